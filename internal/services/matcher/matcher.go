// Package matcher orchestrates the filter, score, and rank pipeline
// that turns a user profile and the scheme catalog into a ranked list
// of recommendations.
package matcher

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/services/scoring"
	"welfare-scheme-engine/internal/utils"
)

const (
	defaultMaxResults = 20
	defaultMinScore   = 30
	maxResultsCeiling = 100
)

// Rejection reasons used for both filter analytics and eligibility
// reports.
const (
	reasonStateMismatch   = "state_mismatch"
	reasonGenderMismatch  = "gender_mismatch"
	reasonAgeBelowMinimum = "age_below_minimum"
	reasonAgeAboveMaximum = "age_above_maximum"
	reasonIncomeExceeded  = "income_exceeds_limit"
	reasonBPLRequired     = "bpl_required"
	reasonBelowMinScore   = "below_min_score"
)

// MatchOptions tunes one matching run. Zero values take the documented
// defaults.
type MatchOptions struct {
	MaxResults     int    `json:"max_results"`
	MinScore       int    `json:"min_score"`
	Category       string `json:"category,omitempty"`
	Type           string `json:"type,omitempty"`
	IncludeReasons bool   `json:"include_reasons"`
}

func (o MatchOptions) normalized() MatchOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = defaultMaxResults
	}
	if o.MaxResults > maxResultsCeiling {
		o.MaxResults = maxResultsCeiling
	}
	if o.MinScore <= 0 {
		o.MinScore = defaultMinScore
	}
	return o
}

// Engine matches user profiles against the scheme catalog. Reads may
// run concurrently; UpdateSchemes and ClearCache serialize against
// in-flight matches.
type Engine struct {
	mu      sync.RWMutex
	schemes []models.SchemeRecord

	scorer *scoring.Engine
	cache  *resultCache

	statsMu        sync.Mutex
	totalRuns      int64
	totalTime      time.Duration
	totalMatched   int64
	rejectionTally map[string]int64
}

// NewEngine creates a matching engine over a scheme collection.
func NewEngine(schemes []models.SchemeRecord, scorer *scoring.Engine) *Engine {
	copied := make([]models.SchemeRecord, len(schemes))
	for i, s := range schemes {
		copied[i] = s.Clone()
	}
	return &Engine{
		schemes:        copied,
		scorer:         scorer,
		cache:          newResultCache(),
		rejectionTally: make(map[string]int64),
	}
}

// FindMatches runs the full pipeline: hard filters, gradient scoring,
// contextual adjustment, tiering, and ranking.
func (e *Engine) FindMatches(user *models.UserProfile, opts MatchOptions) []models.MatchResult {
	opts = opts.normalized()
	start := time.Now()

	// Verbose runs bypass the cache so reasons are always rebuilt.
	var key string
	if !opts.IncludeReasons {
		key = cacheKey(user, opts)
		if cached, ok := e.cache.get(key); ok {
			return cached
		}
	}

	e.mu.RLock()
	schemes := e.schemes
	e.mu.RUnlock()

	var results []models.MatchResult
	rejections := make(map[string]int64)

	for i := range schemes {
		scheme := &schemes[i]

		if opts.Category != "" && !strings.EqualFold(scheme.Category, opts.Category) {
			continue
		}
		if opts.Type != "" && !strings.EqualFold(string(scheme.Type), opts.Type) {
			continue
		}

		if reason := hardFilter(user, &scheme.Eligibility); reason != "" {
			rejections[reason]++
			continue
		}

		baseScore := e.scorer.CalculateScore(user, &scheme.Eligibility)
		score, adjustments := adjustScore(baseScore, user, scheme)

		if score < opts.MinScore {
			rejections[reasonBelowMinScore]++
			continue
		}

		result := models.MatchResult{
			Scheme: scheme.Clone(),
			Score:  score,
			Tier:   models.TierForScore(score),
		}
		if opts.IncludeReasons {
			result.Reasons = buildReasons(user, scheme, score, adjustments)
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Tier.Rank() < results[j].Tier.Rank()
	})
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	e.recordRun(time.Since(start), len(results), rejections)

	if !opts.IncludeReasons {
		e.cache.put(key, results)
	}

	utils.GetLogger().Debug("Matching run complete",
		zap.Int("candidates", len(schemes)),
		zap.Int("matched", len(results)),
		zap.Duration("took", time.Since(start)),
	)
	return results
}

// hardFilter returns the first failing check's rejection reason, or ""
// when the scheme survives. Check order is fixed: state, gender, age,
// income, BPL.
func hardFilter(user *models.UserProfile, elig *models.EligibilityRule) string {
	if elig.States != nil && !elig.States.All {
		if !elig.States.Contains(user.State) {
			return reasonStateMismatch
		}
	}

	if elig.Gender != "" && elig.Gender != models.GenderAll {
		if !strings.EqualFold(user.Gender, string(elig.Gender)) {
			return reasonGenderMismatch
		}
	}

	// Missing user age stays 0 and can legitimately fail min_age.
	if elig.MinAge != nil && user.Age < *elig.MinAge {
		return reasonAgeBelowMinimum
	}
	if elig.MaxAge != nil && user.Age > *elig.MaxAge {
		return reasonAgeAboveMaximum
	}

	if elig.MaxIncome != nil && user.AnnualIncome > *elig.MaxIncome {
		return reasonIncomeExceeded
	}

	if elig.IsBPL.Known() && elig.IsBPL.Bool() && !user.IsBPL {
		return reasonBPLRequired
	}

	return ""
}

type adjustment struct {
	points int
	reason string
}

// adjustScore applies contextual boosts and penalties on top of the
// gradient base score and clamps the result to [0, 100].
func adjustScore(base int, user *models.UserProfile, scheme *models.SchemeRecord) (int, []adjustment) {
	score := base
	var applied []adjustment

	add := func(points int, reason string) {
		score += points
		applied = append(applied, adjustment{points, reason})
	}

	switch {
	case user.IsBPL && user.Disability:
		add(3, "Priority boost for BPL household with disability")
	case user.IsBPL:
		add(1, "Priority boost for BPL household")
	}

	if user.Age >= 60 {
		add(1, "Senior citizen priority")
	}

	if scheme.Eligibility.Gender == models.GenderFemale && strings.EqualFold(user.Gender, "female") {
		add(2, "Women-specific scheme match")
	}

	if user.Occupation != "" && scheme.Eligibility.HasOccupation(user.Occupation) {
		add(2, fmt.Sprintf("Occupation '%s' directly targeted", strings.ToLower(user.Occupation)))
	}

	if user.Category != "" && scheme.Eligibility.HasCategory(user.Category) {
		add(2, fmt.Sprintf("Social category '%s' directly targeted", strings.ToUpper(user.Category)))
	}

	if scheme.URL == "" {
		add(-2, "No official link available")
	}
	if scheme.Description == "" {
		add(-1, "Incomplete scheme information")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score, applied
}

// buildReasons renders the per-dimension facts behind a match into
// human-readable strings.
func buildReasons(user *models.UserProfile, scheme *models.SchemeRecord, score int, adjustments []adjustment) []string {
	var reasons []string
	elig := &scheme.Eligibility

	switch {
	case elig.States == nil || elig.States.All:
		reasons = append(reasons, "Available across India")
	case elig.States.Contains(user.State):
		reasons = append(reasons, fmt.Sprintf("Available in %s", user.State))
	}

	if (elig.MinAge != nil || elig.MaxAge != nil) && user.Age > 0 {
		reasons = append(reasons, fmt.Sprintf("Your age (%d) meets the age requirement", user.Age))
	}

	if elig.Gender != "" && elig.Gender != models.GenderAll {
		reasons = append(reasons, fmt.Sprintf("Targeted at %s applicants", elig.Gender))
	}

	if elig.MaxIncome != nil && user.AnnualIncome > 0 && user.AnnualIncome <= *elig.MaxIncome {
		reasons = append(reasons, fmt.Sprintf("Your income is within the %d limit", *elig.MaxIncome))
	}

	if user.Category != "" && elig.HasCategory(user.Category) {
		reasons = append(reasons, fmt.Sprintf("Open to %s category", strings.ToUpper(user.Category)))
	}

	if user.Occupation != "" && elig.HasOccupation(user.Occupation) {
		reasons = append(reasons, fmt.Sprintf("Meant for %ss", strings.ToLower(user.Occupation)))
	}

	for _, adj := range adjustments {
		if adj.points > 0 {
			reasons = append(reasons, adj.reason)
		}
	}

	reasons = append(reasons, fmt.Sprintf("Overall match: %s (%d/100)", models.TierForScore(score), score))
	return reasons
}

// GetSchemeDetail looks up one scheme by ID.
func (e *Engine) GetSchemeDetail(schemeID string) (models.SchemeRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := range e.schemes {
		if e.schemes[i].ID == schemeID {
			return e.schemes[i].Clone(), true
		}
	}
	return models.SchemeRecord{}, false
}

// SchemeCount returns the size of the current scheme collection.
func (e *Engine) SchemeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.schemes)
}

// UpdateSchemes replaces the scheme collection wholesale and drops the
// entire result cache. In-flight matches finish against the old list.
func (e *Engine) UpdateSchemes(schemes []models.SchemeRecord) {
	copied := make([]models.SchemeRecord, len(schemes))
	for i, s := range schemes {
		copied[i] = s.Clone()
	}

	e.mu.Lock()
	e.schemes = copied
	e.mu.Unlock()
	e.cache.clear()

	utils.GetLogger().Info("Scheme collection updated",
		zap.Int("schemes", len(copied)),
	)
}

// ClearCache drops all cached match results.
func (e *Engine) ClearCache() {
	e.cache.clear()
}

func (e *Engine) recordRun(took time.Duration, matched int, rejections map[string]int64) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.totalRuns++
	e.totalTime += took
	e.totalMatched += int64(matched)
	for reason, count := range rejections {
		e.rejectionTally[reason] += count
	}
}

// FilterStats tallies rejections by reason across all matching runs.
type FilterStats struct {
	TotalRuns       int64            `json:"total_runs"`
	TotalMatched    int64            `json:"total_matched"`
	RejectionCounts map[string]int64 `json:"rejection_counts"`
}

// GetFilterStats returns a copy of the rejection tallies.
func (e *Engine) GetFilterStats() FilterStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	counts := make(map[string]int64, len(e.rejectionTally))
	for k, v := range e.rejectionTally {
		counts[k] = v
	}
	return FilterStats{
		TotalRuns:       e.totalRuns,
		TotalMatched:    e.totalMatched,
		RejectionCounts: counts,
	}
}

// PerformanceStats summarizes matching throughput.
type PerformanceStats struct {
	TotalRuns     int64   `json:"total_runs"`
	TotalTimeMs   float64 `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	SchemeCount   int     `json:"scheme_count"`
}

// GetPerformanceStats returns timing aggregates over all runs.
func (e *Engine) GetPerformanceStats() PerformanceStats {
	e.statsMu.Lock()
	runs := e.totalRuns
	totalMs := float64(e.totalTime) / float64(time.Millisecond)
	e.statsMu.Unlock()

	avg := 0.0
	if runs > 0 {
		avg = totalMs / float64(runs)
	}
	return PerformanceStats{
		TotalRuns:     runs,
		TotalTimeMs:   totalMs,
		AverageTimeMs: avg,
		SchemeCount:   e.SchemeCount(),
	}
}

// GetCacheStats returns hit/miss counters for the result cache.
func (e *Engine) GetCacheStats() CacheStats {
	return e.cache.stats()
}
