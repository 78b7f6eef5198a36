// Package main provides the HTTP API server for the welfare scheme
// engine: profile matching, eligibility checks, catalog queries, and
// admin endpoints for reload and export.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"welfare-scheme-engine/internal/config"
	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/services/catalog"
	"welfare-scheme-engine/internal/services/matcher"
	"welfare-scheme-engine/internal/services/notify"
	"welfare-scheme-engine/internal/services/scoring"
	"welfare-scheme-engine/internal/utils"
)

// Server holds all dependencies.
type Server struct {
	store    *catalog.Store
	scorer   *scoring.Engine
	matcher  *matcher.Engine
	notifier *notify.Service
	config   *config.Config
}

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	store := catalog.NewStore(cfg.CatalogPath)
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load scheme catalog",
			zap.String("path", cfg.CatalogPath),
			zap.Error(err),
		)
	}

	scorer, err := scoring.NewEngine(cfg.WeightProfile)
	if err != nil {
		logger.Fatal("Failed to create scoring engine",
			zap.String("profile", cfg.WeightProfile),
			zap.Error(err),
		)
	}

	matchEngine := matcher.NewEngine(store.All(), scorer)

	server := &Server{
		store:   store,
		scorer:  scorer,
		matcher: matchEngine,
		config:  cfg,
	}

	if cfg.SESSenderEmail != "" {
		notifier, err := notify.NewService(context.Background(), cfg.SESSenderEmail)
		if err != nil {
			logger.Warn("Email notifications disabled", zap.Error(err))
		} else {
			server.notifier = notifier
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchCatalog {
		watcher, err := catalog.NewWatcher(store, func() {
			matchEngine.UpdateSchemes(store.All())
		})
		if err != nil {
			logger.Warn("Catalog hot reload disabled", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", server.healthHandler)
	mux.HandleFunc("/api/health", server.healthHandler)

	mux.HandleFunc("/api/match", server.matchHandler)
	mux.HandleFunc("/api/match/check", server.checkHandler)
	mux.HandleFunc("/api/match/near-misses", server.nearMissesHandler)
	mux.HandleFunc("/api/match/compare", server.compareHandler)
	mux.HandleFunc("/api/match/by-category", server.byCategoryHandler)
	mux.HandleFunc("/api/match/batch", server.batchHandler)
	mux.HandleFunc("/api/match/completeness", server.completenessHandler)
	mux.HandleFunc("/api/match/notify", server.notifyHandler)

	mux.HandleFunc("/api/schemes", server.schemesHandler)
	mux.HandleFunc("/api/schemes/detail", server.schemeDetailHandler)
	mux.HandleFunc("/api/schemes/search", server.searchHandler)
	mux.HandleFunc("/api/schemes/export", server.exportHandler)

	mux.HandleFunc("/api/stats", server.statsHandler)
	mux.HandleFunc("/api/reload", server.reloadHandler)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(mux)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logger.Info("Welfare Scheme Engine API Server",
		zap.String("addr", addr),
		zap.Int("schemes", store.Count()),
		zap.String("weight_profile", cfg.WeightProfile),
	)

	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// matchRequest is the common request body for matching endpoints.
type matchRequest struct {
	Profile   models.UserProfile   `json:"profile"`
	Profiles  []models.UserProfile `json:"profiles,omitempty"`
	Options   matcher.MatchOptions `json:"options"`
	SchemeID  string               `json:"scheme_id,omitempty"`
	SchemeIDs []string             `json:"scheme_ids,omitempty"`
	UserName  string               `json:"user_name,omitempty"`
	UserEmail string               `json:"user_email,omitempty"`
}

func decodeMatchRequest(w http.ResponseWriter, r *http.Request) (*matchRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return nil, false
	}
	req.Profile.Gender = string(models.NormalizeGender(req.Profile.Gender))
	for i := range req.Profiles {
		req.Profiles[i].Gender = string(models.NormalizeGender(req.Profiles[i].Gender))
	}
	return &req, true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	catalogState := "loaded"
	if !s.store.IsLoaded() {
		status = "degraded"
		catalogState = "not loaded"
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Welfare Scheme Engine API is running",
		Data: map[string]interface{}{
			"status":    status,
			"catalog":   catalogState,
			"schemes":   s.store.Count(),
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
		},
	})
}

func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}

	matches := s.matcher.FindMatches(&req.Profile, req.Options)
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"matches":              matches,
			"count":                len(matches),
			"profile_completeness": s.matcher.GetProfileCompleteness(&req.Profile),
		},
	})
}

func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	if req.SchemeID == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Missing required field: scheme_id"})
		return
	}

	report := s.matcher.CheckEligibility(&req.Profile, req.SchemeID)
	if !report.Found {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Error: "Scheme not found", Data: report})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: report})
}

func (s *Server) nearMissesHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	nearMisses := s.matcher.FindNearMisses(&req.Profile)
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"near_misses": nearMisses, "count": len(nearMisses)},
	})
}

func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	if len(req.SchemeIDs) < 2 {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "compare requires at least two scheme_ids"})
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"comparison": s.matcher.CompareSchemes(&req.Profile, req.SchemeIDs)},
	})
}

func (s *Server) byCategoryHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	perCategory, _ := strconv.Atoi(r.URL.Query().Get("per_category"))
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"categories": s.matcher.FindBestByCategory(&req.Profile, perCategory)},
	})
}

func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	if len(req.Profiles) == 0 {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Missing required field: profiles"})
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"results": s.matcher.BatchMatch(req.Profiles, req.Options)},
	})
}

func (s *Server) completenessHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: s.matcher.GetProfileCompleteness(&req.Profile)})
}

func (s *Server) notifyHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMatchRequest(w, r)
	if !ok {
		return
	}
	if s.notifier == nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Email notifications not configured"})
		return
	}
	if req.UserEmail == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Missing required field: user_email"})
		return
	}

	matches := s.matcher.FindMatches(&req.Profile, req.Options)
	if len(matches) == 0 {
		writeJSON(w, http.StatusOK, Response{Success: false, Error: "No matches to notify about"})
		return
	}

	params := notify.BuildMatchNotificationParams(req.UserName, req.UserEmail, matches, "")
	result, err := s.notifier.SendMatchNotification(r.Context(), params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Notification sent for %d matches", len(matches)),
		Data:    map[string]interface{}{"message_id": result.MessageID},
	})
}

func (s *Server) schemesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	criteria := catalog.FilterCriteria{
		Category:   q.Get("category"),
		SchemeType: q.Get("type"),
		State:      q.Get("state"),
		Gender:     q.Get("gender"),
		Occupation: q.Get("occupation"),
		SocialCat:  q.Get("social_category"),
	}

	schemes := s.store.Filter(criteria)
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"schemes":    schemes,
			"count":      len(schemes),
			"categories": s.store.Categories(),
			"types":      s.store.Types(),
		},
	})
}

func (s *Server) schemeDetailHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Missing required query param: id"})
		return
	}

	scheme, found := s.store.ByID(id)
	if !found {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Error: "Scheme not found"})
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"scheme":  scheme,
			"similar": s.store.FindSimilar(id, 3),
		},
	})
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results := s.store.Search(query, limit)
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]interface{}{"results": results, "count": len(results)},
	})
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=schemes.csv")
		if err := s.store.ExportCSV(w, nil); err != nil {
			utils.GetLogger().Error("CSV export failed", zap.Error(err))
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := s.store.ExportJSON(w, nil); err != nil {
			utils.GetLogger().Error("JSON export failed", zap.Error(err))
		}
	}
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"catalog":     s.store.Statistics(),
			"filters":     s.matcher.GetFilterStats(),
			"performance": s.matcher.GetPerformanceStats(),
			"cache":       s.matcher.GetCacheStats(),
			"scoring":     s.scorer.GetAnalytics(),
		},
	})
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Reload(); err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	s.matcher.UpdateSchemes(s.store.All())

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: fmt.Sprintf("Catalog reloaded: %d schemes", s.store.Count()),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
