// Package models defines the data structures for the welfare scheme engine.
package models

// MatchTier is a coarse display bucket derived purely from the match score.
type MatchTier string

const (
	MatchTierPerfect  MatchTier = "perfect"
	MatchTierStrong   MatchTier = "strong"
	MatchTierModerate MatchTier = "moderate"
	MatchTierPartial  MatchTier = "partial"
)

// TierForScore maps a 0-100 score to its tier. Thresholds are fixed:
// >=90 perfect, >=75 strong, >=50 moderate, else partial.
func TierForScore(score int) MatchTier {
	switch {
	case score >= 90:
		return MatchTierPerfect
	case score >= 75:
		return MatchTierStrong
	case score >= 50:
		return MatchTierModerate
	default:
		return MatchTierPartial
	}
}

// Rank returns the sort rank of the tier; lower sorts first at equal score.
func (t MatchTier) Rank() int {
	switch t {
	case MatchTierPerfect:
		return 0
	case MatchTierStrong:
		return 1
	case MatchTierModerate:
		return 2
	default:
		return 3
	}
}

// MatchResult is one scheme annotated with its match score and tier.
// Results are ephemeral copies, safe for callers to retain or serialize.
type MatchResult struct {
	Scheme  SchemeRecord `json:"scheme"`
	Score   int          `json:"score"`
	Tier    MatchTier    `json:"tier"`
	Reasons []string     `json:"reasons,omitempty"`
}

// Clone returns an independent copy of the result.
func (m MatchResult) Clone() MatchResult {
	c := m
	c.Scheme = m.Scheme.Clone()
	if m.Reasons != nil {
		c.Reasons = append([]string(nil), m.Reasons...)
	}
	return c
}

// EligibilityCheck is the outcome of one criterion in a detailed
// eligibility check.
type EligibilityCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// EligibilityReport is the per-dimension pass/fail detail for one scheme,
// evaluated without the hard-filter short-circuit. An unknown scheme id
// yields Found=false rather than an error.
type EligibilityReport struct {
	SchemeID       string             `json:"scheme_id"`
	SchemeName     string             `json:"scheme_name,omitempty"`
	Found          bool               `json:"found"`
	Eligible       bool               `json:"eligible"`
	Checks         []EligibilityCheck `json:"checks,omitempty"`
	FailedCount    int                `json:"failed_count"`
	Score          int                `json:"score"`
	Recommendation string             `json:"recommendation,omitempty"`
}

// NearMiss is a scheme that failed exactly one independently-evaluated
// hard filter.
type NearMiss struct {
	Scheme        SchemeRecord `json:"scheme"`
	Failures      []string     `json:"failures"`
	FailuresCount int          `json:"failures_count"`
}

// ComparisonEntry is one scheme in a side-by-side comparison. Ineligible
// schemes are included with score 0 and a rejection reason, never dropped.
type ComparisonEntry struct {
	SchemeID        string    `json:"scheme_id"`
	SchemeName      string    `json:"scheme_name,omitempty"`
	Found           bool      `json:"found"`
	Eligible        bool      `json:"eligible"`
	Score           int       `json:"score"`
	Tier            MatchTier `json:"tier,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

// ProfileCompleteness is a UX-facing measure of how much of the profile
// the user filled in, with improvement hints ordered by impact.
type ProfileCompleteness struct {
	Percentage    int      `json:"percentage"`
	MissingFields []string `json:"missing_fields"`
	Suggestions   []string `json:"suggestions"`
}

// CategoryMatches groups the top matches of a single catalog category.
type CategoryMatches struct {
	Category  string        `json:"category"`
	BestScore int           `json:"best_score"`
	Matches   []MatchResult `json:"matches"`
}

// BatchMatchResult is the outcome of matching one profile within a batch
// run. One profile's degenerate data never affects the others.
type BatchMatchResult struct {
	RunID   string        `json:"run_id"`
	Index   int           `json:"index"`
	Matches []MatchResult `json:"matches"`
}
