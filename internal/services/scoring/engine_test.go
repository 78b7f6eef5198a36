package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"welfare-scheme-engine/internal/models"
)

// completeProfile returns a fully filled profile so individual tests can
// tweak single fields without tripping the sparse-profile penalty.
func completeProfile() *models.UserProfile {
	return &models.UserProfile{
		Age:          30,
		Gender:       "male",
		State:        "Bihar",
		Category:     "general",
		AnnualIncome: 400000,
		Occupation:   "farmer",
	}
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("balanced")
	assert.NoError(t, err)
	return e
}

func TestNewEngineUnknownProfile(t *testing.T) {
	e, err := NewEngine("nonsense")
	assert.Nil(t, e)
	assert.ErrorIs(t, err, models.ErrUnknownWeightProfile)
}

func TestNewEngineProfileAliases(t *testing.T) {
	for _, name := range []string{"location", "location_priority", "Economic_Priority"} {
		e, err := NewEngine(name)
		assert.NoError(t, err, name)
		assert.NotNil(t, e, name)
	}
}

func TestNewEngineWithWeightsRejectsNegative(t *testing.T) {
	e, err := NewEngineWithWeights(Weights{DimAge: -5})
	assert.Nil(t, e)
	assert.ErrorIs(t, err, models.ErrInvalidWeights)
}

func TestUnconstrainedRuleScoresNeutral(t *testing.T) {
	e := mustEngine(t)

	b := e.CalculateDetailedScore(completeProfile(), &models.EligibilityRule{})

	assert.Equal(t, 50, b.FinalScore)
	assert.Equal(t, 0, b.Confidence)
	assert.Contains(t, b.Notes, "No applicable criteria found, default score assigned")
}

func TestIncomeGradientBands(t *testing.T) {
	e := mustEngine(t)
	rule := &models.EligibilityRule{MaxIncome: models.IntPtr(1000000)}

	cases := []struct {
		name   string
		income int
		want   int
	}{
		{"well within half the limit", 400000, 100},
		{"comfortably within", 700000, 95},
		{"close to the limit", 950000, 85},
		{"slightly over the limit", 1050000, 30},
		{"far over the limit", 1500000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := completeProfile()
			user.AnnualIncome = tc.income
			assert.Equal(t, tc.want, e.CalculateScore(user, rule))
		})
	}
}

func TestAgeGradient(t *testing.T) {
	e := mustEngine(t)
	rule := &models.EligibilityRule{
		MinAge: models.IntPtr(20),
		MaxAge: models.IntPtr(40),
	}

	score := func(age int) int {
		user := completeProfile()
		user.Age = age
		return e.CalculateScore(user, rule)
	}

	t.Run("midpoint is optimal", func(t *testing.T) {
		assert.Equal(t, 100, score(30))
	})

	t.Run("edges attenuate symmetrically with a floor", func(t *testing.T) {
		low, high := score(21), score(39)
		assert.Equal(t, low, high)
		assert.GreaterOrEqual(t, low, 80)
		assert.Less(t, low, 100)
	})

	t.Run("just outside the range earns partial credit", func(t *testing.T) {
		got := score(43)
		assert.Greater(t, got, 0)
		assert.Less(t, got, 80)
	})

	t.Run("far outside the range earns nothing", func(t *testing.T) {
		assert.Equal(t, 0, score(10))
	})
}

func TestGenderOpenToAllIsNotApplicable(t *testing.T) {
	e := mustEngine(t)

	b := e.CalculateDetailedScore(completeProfile(), &models.EligibilityRule{
		Gender: models.GenderAll,
	})

	assert.Zero(t, b.FieldScores[DimGender].Applicable)
	assert.Equal(t, 50, b.FinalScore)
}

func TestUnsetStatesCarryNoConstraint(t *testing.T) {
	e := mustEngine(t)

	b := e.CalculateDetailedScore(completeProfile(), &models.EligibilityRule{})
	assert.Zero(t, b.FieldScores[DimState].Applicable)

	b = e.CalculateDetailedScore(completeProfile(), &models.EligibilityRule{
		States: models.AllStates(),
	})
	field := b.FieldScores[DimState]
	assert.Equal(t, field.Applicable, field.Earned)
	assert.Positive(t, field.Applicable)
}

func TestNeighboringStateEarnsPartialCredit(t *testing.T) {
	e := mustEngine(t)
	rule := &models.EligibilityRule{States: models.States("Uttar Pradesh")}

	user := completeProfile()
	user.State = "Bihar"

	b := e.CalculateDetailedScore(user, rule)
	assert.InDelta(t, 0.2, b.FieldScores[DimState].Gradient, 0.001)
}

func TestSpecialFlagsProportionalCredit(t *testing.T) {
	e := mustEngine(t)
	rule := &models.EligibilityRule{
		IsBPL:    models.TriStateTrue,
		IsFarmer: models.TriStateTrue,
	}

	user := completeProfile()
	user.IsBPL = true
	user.IsFarmer = false

	b := e.CalculateDetailedScore(user, rule)
	field := b.FieldScores[DimSpecial]
	assert.InDelta(t, 0.5, field.Gradient, 0.001)
	assert.InDelta(t, field.Applicable/2, field.Earned, 0.001)
}

func TestHighlyCompatibleProfileScoresPerfectTier(t *testing.T) {
	e := mustEngine(t)

	user := &models.UserProfile{
		Age:          28,
		Gender:       "male",
		State:        "Bihar",
		Category:     "obc",
		AnnualIncome: 120000,
		Occupation:   "farmer",
		IsBPL:        true,
	}
	rule := &models.EligibilityRule{
		MinAge:      models.IntPtr(18),
		MaxAge:      models.IntPtr(40),
		Gender:      models.GenderAll,
		States:      models.AllStates(),
		Categories:  []string{"obc", "sc", "st"},
		MaxIncome:   models.IntPtr(200000),
		Occupations: []string{"farmer"},
		IsBPL:       models.TriStateTrue,
	}

	b := e.CalculateDetailedScore(user, rule)
	assert.GreaterOrEqual(t, b.FinalScore, 90)
	assert.Equal(t, models.MatchTierPerfect, models.TierForScore(b.FinalScore))

	bonusNames := make([]string, 0, len(b.Bonuses))
	for _, bonus := range b.Bonuses {
		bonusNames = append(bonusNames, bonus.Name)
	}
	assert.Contains(t, bonusNames, "perfect_alignment")
	assert.Contains(t, bonusNames, "bpl_priority")
}

func TestSparseProfilePenalty(t *testing.T) {
	e := mustEngine(t)
	rule := &models.EligibilityRule{
		MinAge: models.IntPtr(18),
		MaxAge: models.IntPtr(60),
	}

	user := &models.UserProfile{Age: 30}

	b := e.CalculateDetailedScore(user, rule)
	assert.Equal(t, 3, b.TotalPenalty())
	assert.Equal(t, "sparse_profile", b.Penalties[0].Name)
}

func TestBoundaryAgeAddsAdvisoryNote(t *testing.T) {
	e := mustEngine(t)
	rule := &models.EligibilityRule{
		MinAge: models.IntPtr(18),
		MaxAge: models.IntPtr(40),
	}

	user := completeProfile()
	user.Age = 18

	b := e.CalculateDetailedScore(user, rule)
	assert.NotEmpty(t, b.Notes)
}

func TestGradientDisabledScoresPassFail(t *testing.T) {
	e := mustEngine(t)
	e.SetGradient(false)
	rule := &models.EligibilityRule{
		MinAge: models.IntPtr(20),
		MaxAge: models.IntPtr(40),
	}

	user := completeProfile()
	user.Age = 43

	b := e.CalculateDetailedScore(user, rule)
	assert.Zero(t, b.FieldScores[DimAge].Earned)
}

func TestScoreMultipleSortedDescending(t *testing.T) {
	e := mustEngine(t)

	schemes := []models.SchemeRecord{
		{ID: "s-high", Eligibility: models.EligibilityRule{States: models.AllStates()}},
		{ID: "s-low", Eligibility: models.EligibilityRule{States: models.States("Kerala")}},
		{ID: "s-neutral", Eligibility: models.EligibilityRule{}},
	}

	results := e.ScoreMultiple(completeProfile(), schemes)

	assert.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, "s-high", results[0].Scheme.ID)
}

func TestCompareScoresTieGoesToFirst(t *testing.T) {
	e := mustEngine(t)

	a := models.SchemeRecord{ID: "a", Name: "Scheme A"}
	b := models.SchemeRecord{ID: "b", Name: "Scheme B"}

	cmp := e.CompareScores(completeProfile(), a, b)
	assert.Equal(t, "Scheme A", cmp.Winner)
	assert.Zero(t, cmp.ScoreDifference)
}

func TestAnalyticsCounters(t *testing.T) {
	e := mustEngine(t)
	e.CalculateScore(completeProfile(), &models.EligibilityRule{})
	e.CalculateScore(completeProfile(), &models.EligibilityRule{})

	analytics := e.GetAnalytics()
	assert.Equal(t, int64(2), analytics.ScoresCalculated)
	assert.Equal(t, "balanced", analytics.WeightProfile)
	assert.NotEmpty(t, analytics.ScoreDistribution)

	e.ResetAnalytics()
	assert.Zero(t, e.GetAnalytics().ScoresCalculated)
}
