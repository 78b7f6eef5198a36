package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/utils"
)

// completenessWeights is a UX-facing field-presence weighting, distinct
// from the scoring weights.
var completenessWeights = []struct {
	field      string
	weight     int
	suggestion string
}{
	{"age", 20, "Add your age to unlock age-restricted schemes"},
	{"state", 20, "Add your state to find state-specific schemes"},
	{"gender", 15, "Add your gender to find gender-targeted schemes"},
	{"annual_income", 15, "Add your annual income to check income-limited schemes"},
	{"category", 10, "Add your social category (SC/ST/OBC/General) for targeted schemes"},
	{"occupation", 10, "Add your occupation to find profession-specific schemes"},
	{"welfare_flags", 10, "Mark BPL, farmer, student, or disability status if applicable"},
}

// GetProfileCompleteness scores how much of the profile is filled in
// and suggests the highest-impact missing fields, at most five.
func (e *Engine) GetProfileCompleteness(user *models.UserProfile) models.ProfileCompleteness {
	earned := 0
	total := 0
	var missing []string
	var suggestions []string

	for _, fw := range completenessWeights {
		total += fw.weight
		if profileFieldPresent(user, fw.field) {
			earned += fw.weight
			continue
		}
		missing = append(missing, fw.field)
		if len(suggestions) < 5 {
			suggestions = append(suggestions, fw.suggestion)
		}
	}

	return models.ProfileCompleteness{
		Percentage:    earned * 100 / total,
		MissingFields: missing,
		Suggestions:   suggestions,
	}
}

func profileFieldPresent(user *models.UserProfile, field string) bool {
	switch field {
	case "age":
		return user.Age > 0
	case "state":
		return strings.TrimSpace(user.State) != ""
	case "gender":
		return strings.TrimSpace(user.Gender) != ""
	case "annual_income":
		return user.AnnualIncome > 0
	case "category":
		return strings.TrimSpace(user.Category) != ""
	case "occupation":
		return strings.TrimSpace(user.Occupation) != ""
	case "welfare_flags":
		return user.IsBPL || user.IsFarmer || user.IsStudent || user.Disability
	default:
		return false
	}
}

// FindNearMisses returns schemes the user fails on exactly one filter.
// Each filter is evaluated independently, not with the hard-filter
// early exit, so a single-criterion miss is always reported as such.
// Never cached.
func (e *Engine) FindNearMisses(user *models.UserProfile) []models.NearMiss {
	e.mu.RLock()
	schemes := e.schemes
	e.mu.RUnlock()

	var nearMisses []models.NearMiss
	for i := range schemes {
		failures := independentFilterFailures(user, &schemes[i].Eligibility)
		if len(failures) == 1 {
			nearMisses = append(nearMisses, models.NearMiss{
				Scheme:        schemes[i].Clone(),
				Failures:      failures,
				FailuresCount: 1,
			})
		}
	}
	return nearMisses
}

func independentFilterFailures(user *models.UserProfile, elig *models.EligibilityRule) []string {
	var failures []string

	if elig.States != nil && !elig.States.All && !elig.States.Contains(user.State) {
		failures = append(failures, fmt.Sprintf("Not available in your state (%s)", user.State))
	}
	if elig.Gender != "" && elig.Gender != models.GenderAll &&
		!strings.EqualFold(user.Gender, string(elig.Gender)) {
		failures = append(failures, fmt.Sprintf("Restricted to %s applicants", elig.Gender))
	}
	if elig.MinAge != nil && user.Age < *elig.MinAge {
		failures = append(failures, fmt.Sprintf("Minimum age is %d (you are %d)", *elig.MinAge, user.Age))
	}
	if elig.MaxAge != nil && user.Age > *elig.MaxAge {
		failures = append(failures, fmt.Sprintf("Maximum age is %d (you are %d)", *elig.MaxAge, user.Age))
	}
	if elig.MaxIncome != nil && user.AnnualIncome > *elig.MaxIncome {
		failures = append(failures, fmt.Sprintf("Income limit is %d (yours is %d)", *elig.MaxIncome, user.AnnualIncome))
	}

	return failures
}

// FindBestByCategory runs an uncapped match and buckets the results
// into per-category top lists, best categories first.
func (e *Engine) FindBestByCategory(user *models.UserProfile, perCategory int) []models.CategoryMatches {
	if perCategory <= 0 {
		perCategory = 3
	}

	matches := e.FindMatches(user, MatchOptions{MaxResults: maxResultsCeiling})

	buckets := make(map[string][]models.MatchResult)
	for _, m := range matches {
		cat := strings.ToLower(m.Scheme.Category)
		if len(buckets[cat]) < perCategory {
			buckets[cat] = append(buckets[cat], m)
		}
	}

	out := make([]models.CategoryMatches, 0, len(buckets))
	for cat, bucket := range buckets {
		out = append(out, models.CategoryMatches{
			Category:  cat,
			BestScore: bucket[0].Score,
			Matches:   bucket,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BestScore > out[j].BestScore
	})
	return out
}

// CompareSchemes scores an explicit list of scheme IDs for one user.
// Unknown IDs and hard-filtered schemes stay in the output with
// Found=false or score 0 so callers can show why each lost.
func (e *Engine) CompareSchemes(user *models.UserProfile, schemeIDs []string) []models.ComparisonEntry {
	entries := make([]models.ComparisonEntry, 0, len(schemeIDs))

	for _, id := range schemeIDs {
		scheme, found := e.GetSchemeDetail(id)
		if !found {
			entries = append(entries, models.ComparisonEntry{SchemeID: id, Found: false})
			continue
		}

		if reason := hardFilter(user, &scheme.Eligibility); reason != "" {
			entries = append(entries, models.ComparisonEntry{
				SchemeID:        id,
				SchemeName:      scheme.Name,
				Found:           true,
				Eligible:        false,
				Score:           0,
				RejectionReason: reason,
			})
			continue
		}

		baseScore := e.scorer.CalculateScore(user, &scheme.Eligibility)
		score, _ := adjustScore(baseScore, user, &scheme)
		entries = append(entries, models.ComparisonEntry{
			SchemeID:   id,
			SchemeName: scheme.Name,
			Found:      true,
			Eligible:   true,
			Score:      score,
			Tier:       models.TierForScore(score),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// CheckEligibility evaluates every criterion of one scheme without
// short-circuiting, so the user sees all failures at once.
func (e *Engine) CheckEligibility(user *models.UserProfile, schemeID string) models.EligibilityReport {
	scheme, found := e.GetSchemeDetail(schemeID)
	if !found {
		return models.EligibilityReport{SchemeID: schemeID, Found: false}
	}

	elig := &scheme.Eligibility
	var checks []models.EligibilityCheck

	addCheck := func(name string, passed bool, reason string) {
		checks = append(checks, models.EligibilityCheck{Name: name, Passed: passed, Reason: reason})
	}

	switch {
	case elig.MinAge == nil && elig.MaxAge == nil:
		addCheck("age", true, "No age requirement")
	case elig.MinAge != nil && user.Age < *elig.MinAge:
		addCheck("age", false, reasonAgeBelowMinimum)
	case elig.MaxAge != nil && user.Age > *elig.MaxAge:
		addCheck("age", false, reasonAgeAboveMaximum)
	default:
		addCheck("age", true, fmt.Sprintf("Age %d is within range", user.Age))
	}

	switch {
	case elig.Gender == "" || elig.Gender == models.GenderAll:
		addCheck("gender", true, "Open to all genders")
	case strings.EqualFold(user.Gender, string(elig.Gender)):
		addCheck("gender", true, fmt.Sprintf("Gender matches (%s)", elig.Gender))
	default:
		addCheck("gender", false, reasonGenderMismatch)
	}

	switch {
	case elig.States == nil || elig.States.All:
		addCheck("state", true, "Available in all states")
	case elig.States.Contains(user.State):
		addCheck("state", true, fmt.Sprintf("Available in %s", user.State))
	default:
		addCheck("state", false, reasonStateMismatch)
	}

	switch {
	case elig.MaxIncome == nil:
		addCheck("income", true, "No income limit")
	case user.AnnualIncome <= *elig.MaxIncome:
		addCheck("income", true, fmt.Sprintf("Income %d within limit %d", user.AnnualIncome, *elig.MaxIncome))
	default:
		addCheck("income", false, reasonIncomeExceeded)
	}

	switch {
	case len(elig.Categories) == 0:
		addCheck("category", true, "No category restriction")
	case user.Category != "" && elig.HasCategory(user.Category):
		addCheck("category", true, fmt.Sprintf("Category %s accepted", strings.ToUpper(user.Category)))
	default:
		addCheck("category", false, "category_mismatch")
	}

	switch {
	case len(elig.Occupations) == 0:
		addCheck("occupation", true, "No occupation restriction")
	case user.Occupation != "" && elig.HasOccupation(user.Occupation):
		addCheck("occupation", true, fmt.Sprintf("Occupation %s accepted", strings.ToLower(user.Occupation)))
	default:
		addCheck("occupation", false, "occupation_mismatch")
	}

	switch {
	case !elig.IsBPL.Known():
		addCheck("bpl", true, "No BPL requirement")
	case user.IsBPL == elig.IsBPL.Bool():
		addCheck("bpl", true, "BPL status matches")
	default:
		addCheck("bpl", false, reasonBPLRequired)
	}

	failed := 0
	for _, c := range checks {
		if !c.Passed {
			failed++
		}
	}

	score := e.scorer.CalculateScore(user, elig)

	return models.EligibilityReport{
		SchemeID:       schemeID,
		SchemeName:     scheme.Name,
		Found:          true,
		Eligible:       failed == 0,
		Checks:         checks,
		FailedCount:    failed,
		Score:          score,
		Recommendation: recommendation(failed, score),
	}
}

func recommendation(failed, score int) string {
	switch {
	case failed == 0 && score >= 75:
		return "Strongly recommended: apply for this scheme"
	case failed == 0:
		return "Eligible: worth applying"
	case failed == 1:
		return "Almost eligible: one criterion short"
	default:
		return fmt.Sprintf("Not eligible: %d criteria unmet", failed)
	}
}

// BatchMatch matches many profiles sequentially. Profiles are
// independent; one degenerate profile never affects the others.
func (e *Engine) BatchMatch(users []models.UserProfile, opts MatchOptions) []models.BatchMatchResult {
	runID := uuid.New().String()

	results := make([]models.BatchMatchResult, len(users))
	for i := range users {
		results[i] = models.BatchMatchResult{
			RunID:   runID,
			Index:   i,
			Matches: e.FindMatches(&users[i], opts),
		}
	}

	utils.GetLogger().Info("Batch match complete",
		zap.String("run_id", runID),
		zap.Int("profiles", len(users)),
	)
	return results
}
