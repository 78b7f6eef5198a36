package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/services/scoring"
)

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		Age:          30,
		Gender:       "male",
		State:        "Bihar",
		Category:     "obc",
		AnnualIncome: 150000,
		Occupation:   "farmer",
		IsBPL:        true,
	}
}

func testSchemes() []models.SchemeRecord {
	return []models.SchemeRecord{
		{
			ID:          "pm-kisan",
			Name:        "PM Kisan Samman Nidhi",
			Description: "Income support for farmer families",
			Category:    "agriculture",
			Type:        models.SchemeTypeCentral,
			URL:         "https://pmkisan.gov.in",
			Eligibility: models.EligibilityRule{
				States:      models.AllStates(),
				Occupations: []string{"farmer"},
				MaxIncome:   models.IntPtr(300000),
			},
		},
		{
			ID:          "women-skill",
			Name:        "Women Skill Development",
			Description: "Skill training for women",
			Category:    "employment",
			Type:        models.SchemeTypeCentral,
			URL:         "https://example.gov.in/women-skill",
			Eligibility: models.EligibilityRule{
				Gender: models.GenderFemale,
				States: models.AllStates(),
			},
		},
		{
			ID:          "kerala-housing",
			Name:        "Kerala Housing Assistance",
			Description: "Housing grants for Kerala residents",
			Category:    "housing",
			Type:        models.SchemeTypeState,
			URL:         "https://example.gov.in/kerala-housing",
			Eligibility: models.EligibilityRule{
				States: models.States("Kerala"),
			},
		},
		{
			ID:          "low-income-grant",
			Name:        "Low Income Grant",
			Description: "Grant for households below a strict income bar",
			Category:    "financial",
			Type:        models.SchemeTypeCentral,
			URL:         "https://example.gov.in/low-income",
			Eligibility: models.EligibilityRule{
				States:    models.AllStates(),
				MaxIncome: models.IntPtr(100000),
			},
		},
		{
			ID:          "youth-startup",
			Name:        "Youth Startup Seed Fund",
			Description: "Seed funding for young entrepreneurs",
			Category:    "employment",
			Type:        models.SchemeTypeCentral,
			URL:         "https://example.gov.in/youth-startup",
			Eligibility: models.EligibilityRule{
				States: models.AllStates(),
				MaxAge: models.IntPtr(25),
			},
		},
		{
			ID:          "open-welfare",
			Name:        "Open Welfare Programme",
			Description: "General assistance open to everyone",
			Category:    "other",
			Type:        models.SchemeTypeCentral,
			URL:         "https://example.gov.in/open-welfare",
			Eligibility: models.EligibilityRule{},
		},
	}
}

func testEngine(t *testing.T, schemes []models.SchemeRecord) *Engine {
	t.Helper()
	scorer, err := scoring.NewEngine("balanced")
	assert.NoError(t, err)
	return NewEngine(schemes, scorer)
}

func TestFindMatchesRankingAndTiers(t *testing.T) {
	e := testEngine(t, testSchemes())

	matches := e.FindMatches(testProfile(), MatchOptions{})

	assert.NotEmpty(t, matches)
	assert.Equal(t, "pm-kisan", matches[0].Scheme.ID)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	for _, m := range matches {
		assert.Equal(t, models.TierForScore(m.Score), m.Tier)
		assert.GreaterOrEqual(t, m.Score, defaultMinScore)
	}
}

func TestHardFiltersExcludeSchemes(t *testing.T) {
	e := testEngine(t, testSchemes())

	matches := e.FindMatches(testProfile(), MatchOptions{})

	ids := make(map[string]bool)
	for _, m := range matches {
		ids[m.Scheme.ID] = true
	}
	assert.False(t, ids["women-skill"], "gender-restricted scheme must not match a male profile")
	assert.False(t, ids["kerala-housing"], "state-restricted scheme must not match another state")
	assert.False(t, ids["low-income-grant"], "income above the limit must reject outright")
	assert.False(t, ids["youth-startup"], "age above the maximum must reject outright")

	stats := e.GetFilterStats()
	assert.Positive(t, stats.RejectionCounts[reasonGenderMismatch])
	assert.Positive(t, stats.RejectionCounts[reasonStateMismatch])
	assert.Positive(t, stats.RejectionCounts[reasonIncomeExceeded])
	assert.Positive(t, stats.RejectionCounts[reasonAgeAboveMaximum])
}

func TestIncomeFilterPrecedesScoring(t *testing.T) {
	// Within 10% over the limit the scorer still grants marginal
	// credit, but the hard filter must reject first.
	e := testEngine(t, []models.SchemeRecord{{
		ID:   "tight-income",
		Name: "Tight Income Scheme",
		URL:  "https://example.gov.in/tight",
		Eligibility: models.EligibilityRule{
			States:    models.AllStates(),
			MaxIncome: models.IntPtr(145000),
		},
	}})

	matches := e.FindMatches(testProfile(), MatchOptions{MinScore: 1})

	assert.Empty(t, matches)
	assert.Positive(t, e.GetFilterStats().RejectionCounts[reasonIncomeExceeded])
}

func TestMinScoreCutoff(t *testing.T) {
	e := testEngine(t, testSchemes())

	matches := e.FindMatches(testProfile(), MatchOptions{MinScore: 99})
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 99)
	}
	assert.Positive(t, e.GetFilterStats().RejectionCounts[reasonBelowMinScore])
}

func TestMaxResultsClampedAtCeiling(t *testing.T) {
	schemes := make([]models.SchemeRecord, 120)
	for i := range schemes {
		schemes[i] = models.SchemeRecord{
			ID:          fmt.Sprintf("scheme-%d", i),
			Name:        fmt.Sprintf("Scheme %d", i),
			Description: "Open scheme",
			URL:         "https://example.gov.in",
			Eligibility: models.EligibilityRule{States: models.AllStates()},
		}
	}
	e := testEngine(t, schemes)

	matches := e.FindMatches(testProfile(), MatchOptions{MaxResults: 500})
	assert.Len(t, matches, maxResultsCeiling)
}

func TestCategoryAndTypeOptionsFilter(t *testing.T) {
	e := testEngine(t, testSchemes())

	matches := e.FindMatches(testProfile(), MatchOptions{Category: "agriculture"})
	assert.Len(t, matches, 1)
	assert.Equal(t, "pm-kisan", matches[0].Scheme.ID)

	matches = e.FindMatches(testProfile(), MatchOptions{Type: "state"})
	assert.Empty(t, matches)
}

func TestIncludeReasonsExplainsMatch(t *testing.T) {
	e := testEngine(t, testSchemes())

	matches := e.FindMatches(testProfile(), MatchOptions{IncludeReasons: true})
	assert.NotEmpty(t, matches)
	assert.NotEmpty(t, matches[0].Reasons)

	plain := e.FindMatches(testProfile(), MatchOptions{})
	assert.Nil(t, plain[0].Reasons)
}

func TestCacheReturnsIdenticalResults(t *testing.T) {
	e := testEngine(t, testSchemes())

	first := e.FindMatches(testProfile(), MatchOptions{})
	second := e.FindMatches(testProfile(), MatchOptions{})

	assert.Equal(t, first, second)

	stats := e.GetCacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestUpdateSchemesInvalidatesCache(t *testing.T) {
	e := testEngine(t, testSchemes())

	before := e.FindMatches(testProfile(), MatchOptions{})
	assert.NotEmpty(t, before)

	e.UpdateSchemes(nil)
	assert.Zero(t, e.SchemeCount())

	after := e.FindMatches(testProfile(), MatchOptions{})
	assert.Empty(t, after)
}

func TestCheckEligibilityReportsAllFailures(t *testing.T) {
	e := testEngine(t, testSchemes())

	report := e.CheckEligibility(testProfile(), "women-skill")

	assert.True(t, report.Found)
	assert.False(t, report.Eligible)
	assert.Equal(t, 1, report.FailedCount)
	assert.Len(t, report.Checks, 7)

	var genderReason string
	for _, c := range report.Checks {
		if c.Name == "gender" {
			genderReason = c.Reason
		}
	}
	assert.Equal(t, "gender_mismatch", genderReason)
}

func TestCheckEligibilityUnknownScheme(t *testing.T) {
	e := testEngine(t, testSchemes())

	report := e.CheckEligibility(testProfile(), "no-such-scheme")
	assert.False(t, report.Found)
}

func TestCheckEligibilityEligible(t *testing.T) {
	e := testEngine(t, testSchemes())

	report := e.CheckEligibility(testProfile(), "pm-kisan")
	assert.True(t, report.Eligible)
	assert.Zero(t, report.FailedCount)
	assert.Positive(t, report.Score)
	assert.NotEmpty(t, report.Recommendation)
}

func TestFindNearMissesSingleFailureOnly(t *testing.T) {
	e := testEngine(t, testSchemes())

	nearMisses := e.FindNearMisses(testProfile())

	ids := make(map[string]int)
	for _, nm := range nearMisses {
		assert.Equal(t, 1, nm.FailuresCount)
		assert.Len(t, nm.Failures, 1)
		ids[nm.Scheme.ID]++
	}
	assert.Contains(t, ids, "kerala-housing")
	assert.Contains(t, ids, "low-income-grant")
	assert.Contains(t, ids, "youth-startup")
	assert.NotContains(t, ids, "pm-kisan")
}

func TestCompareSchemesKeepsIneligibleAndUnknown(t *testing.T) {
	e := testEngine(t, testSchemes())

	entries := e.CompareSchemes(testProfile(), []string{"women-skill", "pm-kisan", "ghost"})

	assert.Len(t, entries, 3)
	assert.Equal(t, "pm-kisan", entries[0].SchemeID)
	assert.True(t, entries[0].Eligible)
	assert.Positive(t, entries[0].Score)

	byID := make(map[string]models.ComparisonEntry)
	for _, entry := range entries {
		byID[entry.SchemeID] = entry
	}
	assert.True(t, byID["women-skill"].Found)
	assert.False(t, byID["women-skill"].Eligible)
	assert.Zero(t, byID["women-skill"].Score)
	assert.Equal(t, "gender_mismatch", byID["women-skill"].RejectionReason)
	assert.False(t, byID["ghost"].Found)
}

func TestFindBestByCategory(t *testing.T) {
	e := testEngine(t, testSchemes())

	grouped := e.FindBestByCategory(testProfile(), 3)

	assert.NotEmpty(t, grouped)
	assert.Equal(t, "agriculture", grouped[0].Category)
	for i := 1; i < len(grouped); i++ {
		assert.GreaterOrEqual(t, grouped[i-1].BestScore, grouped[i].BestScore)
	}
	for _, g := range grouped {
		assert.LessOrEqual(t, len(g.Matches), 3)
		assert.Equal(t, g.Matches[0].Score, g.BestScore)
	}
}

func TestGetProfileCompleteness(t *testing.T) {
	e := testEngine(t, testSchemes())

	full := e.GetProfileCompleteness(testProfile())
	assert.Equal(t, 100, full.Percentage)
	assert.Empty(t, full.MissingFields)
	assert.Empty(t, full.Suggestions)

	empty := e.GetProfileCompleteness(&models.UserProfile{})
	assert.Zero(t, empty.Percentage)
	assert.Len(t, empty.MissingFields, 7)
	assert.Len(t, empty.Suggestions, 5)
}

func TestBatchMatchSharesRunID(t *testing.T) {
	e := testEngine(t, testSchemes())

	users := []models.UserProfile{*testProfile(), {}}
	results := e.BatchMatch(users, MatchOptions{})

	assert.Len(t, results, 2)
	assert.Equal(t, results[0].RunID, results[1].RunID)
	assert.NotEmpty(t, results[0].RunID)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1, results[1].Index)
	assert.NotEmpty(t, results[0].Matches)
}

func TestGetSchemeDetail(t *testing.T) {
	e := testEngine(t, testSchemes())

	scheme, found := e.GetSchemeDetail("pm-kisan")
	assert.True(t, found)
	assert.Equal(t, "PM Kisan Samman Nidhi", scheme.Name)

	_, found = e.GetSchemeDetail("ghost")
	assert.False(t, found)
}
