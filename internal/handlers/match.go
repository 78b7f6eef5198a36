package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/services/matcher"
	"welfare-scheme-engine/internal/utils"
)

// MatchHandler serves matching requests behind API Gateway.
type MatchHandler struct {
	engine *matcher.Engine
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(engine *matcher.Engine) *MatchHandler {
	return &MatchHandler{engine: engine}
}

// MatchRequest is the request body for a matching run.
type MatchRequest struct {
	Profile models.UserProfile   `json:"profile"`
	Options matcher.MatchOptions `json:"options"`

	// For check and compare operations.
	SchemeID  string   `json:"scheme_id,omitempty"`
	SchemeIDs []string `json:"scheme_ids,omitempty"`
}

// MatchResponse is the response for a matching run.
type MatchResponse struct {
	Matches      []models.MatchResult       `json:"matches"`
	Count        int                        `json:"count"`
	Completeness models.ProfileCompleteness `json:"profile_completeness"`
}

// Handle routes API Gateway requests by path suffix: /match, /check,
// /near-misses, /compare, /by-category.
func (h *MatchHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()
	headers := corsHeaders()

	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	var req MatchRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(headers, http.StatusBadRequest, "Invalid JSON in request body")
	}
	req.Profile.Gender = string(models.NormalizeGender(req.Profile.Gender))

	switch operation(request.Path) {
	case "check":
		if req.SchemeID == "" {
			return errorResponse(headers, http.StatusBadRequest, "Missing required field: scheme_id")
		}
		report := h.engine.CheckEligibility(&req.Profile, req.SchemeID)
		if !report.Found {
			return jsonResponse(headers, http.StatusNotFound, report)
		}
		return jsonResponse(headers, http.StatusOK, report)

	case "near-misses":
		return jsonResponse(headers, http.StatusOK, map[string]interface{}{
			"near_misses": h.engine.FindNearMisses(&req.Profile),
		})

	case "compare":
		if len(req.SchemeIDs) < 2 {
			return errorResponse(headers, http.StatusBadRequest, "compare requires at least two scheme_ids")
		}
		return jsonResponse(headers, http.StatusOK, map[string]interface{}{
			"comparison": h.engine.CompareSchemes(&req.Profile, req.SchemeIDs),
		})

	case "by-category":
		return jsonResponse(headers, http.StatusOK, map[string]interface{}{
			"categories": h.engine.FindBestByCategory(&req.Profile, 0),
		})

	default:
		matches := h.engine.FindMatches(&req.Profile, req.Options)
		logger.Info("Match request served",
			utils.String("path", request.Path),
			utils.Int("matches", len(matches)),
		)
		return jsonResponse(headers, http.StatusOK, MatchResponse{
			Matches:      matches,
			Count:        len(matches),
			Completeness: h.engine.GetProfileCompleteness(&req.Profile),
		})
	}
}

func operation(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
