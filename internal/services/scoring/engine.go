package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/utils"
)

// Engine computes 0-100 gradient relevance scores. Scoring is a pure
// function of (profile, eligibility, weights); the analytics counters are
// the only cross-call mutable state and are advisory, never
// correctness-affecting.
type Engine struct {
	weights     Weights
	profileName string
	gradient    bool

	mu                sync.Mutex
	scoresCalculated  int64
	totalTime         time.Duration
	scoreDistribution map[string]int
	fieldMatchRates   map[string]*matchRate
}

type matchRate struct {
	Matched int `json:"matched"`
	Total   int `json:"total_evaluated"`
}

// ScoredScheme is one entry of a bulk scoring run.
type ScoredScheme struct {
	Scheme     models.SchemeRecord `json:"scheme"`
	Score      int                 `json:"score"`
	Confidence int                 `json:"confidence"`
	Breakdown  *Breakdown          `json:"breakdown"`
}

// Comparison is the side-by-side scoring of two schemes for one user.
type Comparison struct {
	SchemeA         ScoredScheme                `json:"scheme_a"`
	SchemeB         ScoredScheme                `json:"scheme_b"`
	Winner          string                      `json:"winner"`
	ScoreDifference int                         `json:"score_difference"`
	FieldComparison map[Dimension]FieldContrast `json:"field_comparison"`
}

// FieldContrast contrasts one dimension across two schemes.
type FieldContrast struct {
	SchemeA float64 `json:"scheme_a"`
	SchemeB float64 `json:"scheme_b"`
	Better  string  `json:"better"`
}

// NewEngine creates a scoring engine from a named weight profile. An
// unknown profile name is rejected at construction time.
func NewEngine(profileName string) (*Engine, error) {
	weights, err := ProfileWeights(profileName)
	if err != nil {
		return nil, err
	}
	e := newEngine(weights, strings.ToLower(strings.TrimSpace(profileName)))

	utils.GetLogger().Info("Scoring engine initialized",
		zap.String("weight_profile", e.profileName),
		zap.Bool("gradient", e.gradient),
	)
	return e, nil
}

// NewEngineWithWeights creates a scoring engine from an explicit override
// weight map. Missing dimensions default to the balanced profile.
func NewEngineWithWeights(overrides Weights) (*Engine, error) {
	if err := ValidateWeights(overrides); err != nil {
		return nil, err
	}
	weights, _ := ProfileWeights("balanced")
	for dim, w := range overrides {
		weights[dim] = w
	}
	return newEngine(weights, "custom"), nil
}

func newEngine(weights Weights, profileName string) *Engine {
	return &Engine{
		weights:           weights,
		profileName:       profileName,
		gradient:          true,
		scoreDistribution: make(map[string]int),
		fieldMatchRates:   make(map[string]*matchRate),
	}
}

// ProfileName returns the active weight profile name.
func (e *Engine) ProfileName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profileName
}

// SetGradient toggles partial-credit scoring; with gradient off every
// dimension is scored pass/fail.
func (e *Engine) SetGradient(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gradient = enabled
}

// ChangeWeights switches to a named profile or merges an explicit
// override map. Callers that cache scores must invalidate after this.
func (e *Engine) ChangeWeights(profileName string, overrides Weights) error {
	if profileName != "" {
		weights, err := ProfileWeights(profileName)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.weights = weights
		e.profileName = strings.ToLower(strings.TrimSpace(profileName))
		e.mu.Unlock()
	} else if len(overrides) > 0 {
		if err := ValidateWeights(overrides); err != nil {
			return err
		}
		e.mu.Lock()
		for dim, w := range overrides {
			e.weights[dim] = w
		}
		e.profileName = "custom"
		e.mu.Unlock()
	}

	utils.GetLogger().Info("Scoring weights changed", zap.String("weight_profile", e.ProfileName()))
	return nil
}

// CalculateScore returns just the final 0-100 score.
func (e *Engine) CalculateScore(user *models.UserProfile, elig *models.EligibilityRule) int {
	return e.CalculateDetailedScore(user, elig).FinalScore
}

// CalculateDetailedScore scores one (profile, eligibility) pair with a
// full per-dimension breakdown, bonuses, penalties, and confidence.
func (e *Engine) CalculateDetailedScore(user *models.UserProfile, elig *models.EligibilityRule) *Breakdown {
	start := time.Now()

	e.mu.Lock()
	weights := e.weights.Clone()
	gradient := e.gradient
	strategy := e.profileName
	e.mu.Unlock()

	b := newBreakdown(strategy)

	e.scoreAge(user, elig, weights, gradient, b)
	e.scoreGender(user, elig, weights, b)
	e.scoreState(user, elig, weights, gradient, b)
	e.scoreCategory(user, elig, weights, gradient, b)
	e.scoreIncome(user, elig, weights, gradient, b)
	e.scoreOccupation(user, elig, weights, gradient, b)
	e.scoreSpecialFlags(user, elig, weights, b)

	e.applyBonuses(user, elig, b)
	e.applyPenalties(user, elig, b)

	final := b.calculateFinal()

	// Time is measured for analytics only; it never feeds the score.
	e.mu.Lock()
	e.scoresCalculated++
	e.totalTime += time.Since(start)
	bucket := final / 10 * 10
	e.scoreDistribution[fmt.Sprintf("%d-%d", bucket, bucket+9)]++
	e.mu.Unlock()

	return b
}

func (e *Engine) trackField(field string, matched bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rate, ok := e.fieldMatchRates[field]
	if !ok {
		rate = &matchRate{}
		e.fieldMatchRates[field] = rate
	}
	rate.Total++
	if matched {
		rate.Matched++
	}
}

func (e *Engine) scoreAge(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, gradient bool, b *Breakdown) {
	if elig.MinAge == nil && elig.MaxAge == nil {
		b.addField(DimAge, 0, 0, "No age requirement", 1.0)
		return
	}

	weight := weights[DimAge]

	if user.Age <= 0 {
		e.trackField("age", false)
		b.addField(DimAge, 0, weight, "User age not provided", 0)
		return
	}

	inRange := true
	if elig.MinAge != nil && user.Age < *elig.MinAge {
		inRange = false
	}
	if elig.MaxAge != nil && user.Age > *elig.MaxAge {
		inRange = false
	}

	if inRange {
		e.trackField("age", true)

		if gradient && elig.MinAge != nil && elig.MaxAge != nil && *elig.MaxAge > *elig.MinAge {
			span := float64(*elig.MaxAge - *elig.MinAge)
			mid := float64(*elig.MinAge+*elig.MaxAge) / 2
			distance := math.Abs(float64(user.Age)-mid) / (span / 2)
			g := math.Max(0.8, 1.0-distance*0.2)
			b.addField(DimAge, weight*g, weight,
				fmt.Sprintf("Age %d in range %d-%d (optimality: %.0f%%)",
					user.Age, *elig.MinAge, *elig.MaxAge, g*100),
				g)
			return
		}

		b.addField(DimAge, weight, weight,
			fmt.Sprintf("Age %d within range (%s)", user.Age, ageRangeString(elig)), 1.0)
		return
	}

	if gradient {
		distance := 0
		if elig.MinAge != nil && user.Age < *elig.MinAge {
			distance = *elig.MinAge - user.Age
		} else if elig.MaxAge != nil && user.Age > *elig.MaxAge {
			distance = user.Age - *elig.MaxAge
		}

		// Partial credit within a 5-year tolerance band.
		if distance <= 5 {
			g := math.Max(0, 1.0-float64(distance)/5*0.8)
			b.addField(DimAge, weight*g, weight,
				fmt.Sprintf("Age %d is %d years outside range (partial credit: %.0f%%)",
					user.Age, distance, g*100),
				g)
			e.trackField("age", weight*g > 0)
			return
		}
	}

	e.trackField("age", false)
	b.addField(DimAge, 0, weight,
		fmt.Sprintf("Age %d outside range (%s)", user.Age, ageRangeString(elig)), 0)
}

func ageRangeString(elig *models.EligibilityRule) string {
	min, max := "?", "?"
	if elig.MinAge != nil {
		min = fmt.Sprintf("%d", *elig.MinAge)
	}
	if elig.MaxAge != nil {
		max = fmt.Sprintf("%d", *elig.MaxAge)
	}
	return min + "-" + max
}

func (e *Engine) scoreGender(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, b *Breakdown) {
	required := elig.Gender
	if required == "" || required == models.GenderAll {
		b.addField(DimGender, 0, 0, "Open to all genders", 1.0)
		return
	}

	weight := weights[DimGender]
	userGender := strings.ToLower(strings.TrimSpace(user.Gender))

	if userGender == "" {
		e.trackField("gender", false)
		b.addField(DimGender, 0, weight, "User gender not provided", 0)
		return
	}

	if userGender == strings.ToLower(string(required)) {
		e.trackField("gender", true)
		b.addField(DimGender, weight, weight,
			fmt.Sprintf("Gender '%s' matches requirement '%s'", userGender, required), 1.0)
		return
	}

	e.trackField("gender", false)
	b.addField(DimGender, 0, weight,
		fmt.Sprintf("Gender '%s' doesn't match '%s'", userGender, required), 0)
}

func (e *Engine) scoreState(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, gradient bool, b *Breakdown) {
	if elig.States == nil {
		b.addField(DimState, 0, 0, "No state requirement", 1.0)
		return
	}

	weight := weights[DimState]

	if elig.States.All {
		e.trackField("state", true)
		b.addField(DimState, weight, weight, "Available across all states", 1.0)
		return
	}

	userState := strings.TrimSpace(user.State)
	if userState == "" {
		e.trackField("state", false)
		b.addField(DimState, 0, weight, "User state not provided", 0)
		return
	}

	if elig.States.Contains(userState) {
		e.trackField("state", true)
		b.addField(DimState, weight, weight,
			fmt.Sprintf("State '%s' is eligible", userState), 1.0)
		return
	}

	if gradient {
		if proximity := stateProximity(userState, elig.States.Names); proximity > 0 {
			e.trackField("state", false)
			b.addField(DimState, weight*proximity, weight,
				fmt.Sprintf("State '%s' not listed but neighboring state is eligible (proximity: %.0f%%)",
					userState, proximity*100),
				proximity)
			return
		}
	}

	e.trackField("state", false)
	b.addField(DimState, 0, weight,
		fmt.Sprintf("State '%s' not in eligible list: %s",
			userState, truncateList(elig.States.Names, 5)),
		0)
}

func truncateList(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + "..."
}

func (e *Engine) scoreCategory(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, gradient bool, b *Breakdown) {
	if len(elig.Categories) == 0 {
		b.addField(DimCategory, 0, 0, "No category restriction", 1.0)
		return
	}

	weight := weights[DimCategory]
	userCat := strings.ToLower(strings.TrimSpace(user.Category))

	if userCat == "" {
		e.trackField("category", false)
		b.addField(DimCategory, 0, weight, "User category not provided", 0)
		return
	}

	eligibleCats := lowercaseAll(elig.Categories)

	if contains(eligibleCats, userCat) {
		e.trackField("category", true)
		b.addField(DimCategory, weight, weight,
			fmt.Sprintf("Category '%s' is eligible", strings.ToUpper(userCat)), 1.0)
		return
	}

	if gradient {
		if relation := categoryRelation(userCat, eligibleCats); relation > 0 {
			e.trackField("category", false)
			b.addField(DimCategory, weight*relation, weight,
				fmt.Sprintf("Category '%s' not listed but related category is eligible (relation: %.0f%%)",
					strings.ToUpper(userCat), relation*100),
				relation)
			return
		}
	}

	e.trackField("category", false)
	b.addField(DimCategory, 0, weight,
		fmt.Sprintf("Category '%s' not in [%s]",
			strings.ToUpper(userCat), strings.ToUpper(strings.Join(eligibleCats, " "))),
		0)
}

func (e *Engine) scoreIncome(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, gradient bool, b *Breakdown) {
	if elig.MaxIncome == nil {
		b.addField(DimIncome, 0, 0, "No income restriction", 1.0)
		return
	}

	weight := weights[DimIncome]
	maxIncome := *elig.MaxIncome

	if user.AnnualIncome <= 0 {
		e.trackField("income", false)
		b.addField(DimIncome, 0, weight, "User income not provided", 0)
		return
	}

	if user.AnnualIncome <= maxIncome {
		e.trackField("income", true)

		if gradient && maxIncome > 0 {
			ratio := float64(user.AnnualIncome) / float64(maxIncome)
			var g float64
			var note string
			switch {
			case ratio <= 0.5:
				g, note = 1.0, "well within"
			case ratio <= 0.8:
				g, note = 0.95, "comfortably within"
			default:
				g, note = 0.85, "close to"
			}
			b.addField(DimIncome, weight*g, weight,
				fmt.Sprintf("Income %d is %s limit %d (%.0f%% of max)",
					user.AnnualIncome, note, maxIncome, ratio*100),
				g)
			return
		}

		b.addField(DimIncome, weight, weight,
			fmt.Sprintf("Income %d within limit %d", user.AnnualIncome, maxIncome), 1.0)
		return
	}

	if gradient && maxIncome > 0 {
		overshoot := float64(user.AnnualIncome-maxIncome) / float64(maxIncome)
		// Narrow "almost qualifies" band: within 10% over the ceiling.
		if overshoot <= 0.1 {
			const g = 0.3
			e.trackField("income", false)
			b.addField(DimIncome, weight*g, weight,
				fmt.Sprintf("Income %d slightly exceeds limit %d by %.0f%% (marginal credit)",
					user.AnnualIncome, maxIncome, overshoot*100),
				g)
			return
		}
	}

	e.trackField("income", false)
	b.addField(DimIncome, 0, weight,
		fmt.Sprintf("Income %d exceeds limit %d", user.AnnualIncome, maxIncome), 0)
}

func (e *Engine) scoreOccupation(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, gradient bool, b *Breakdown) {
	if len(elig.Occupations) == 0 {
		b.addField(DimOccupation, 0, 0, "No occupation restriction", 1.0)
		return
	}

	weight := weights[DimOccupation]
	userOcc := strings.ToLower(strings.TrimSpace(user.Occupation))

	if userOcc == "" {
		e.trackField("occupation", false)
		b.addField(DimOccupation, 0, weight, "User occupation not provided", 0)
		return
	}

	eligibleOccs := lowercaseAll(elig.Occupations)

	if contains(eligibleOccs, userOcc) {
		e.trackField("occupation", true)
		b.addField(DimOccupation, weight, weight,
			fmt.Sprintf("Occupation '%s' matches", userOcc), 1.0)
		return
	}

	if gradient {
		if relation := occupationRelation(userOcc, eligibleOccs); relation > 0 {
			e.trackField("occupation", false)
			b.addField(DimOccupation, weight*relation, weight,
				fmt.Sprintf("Occupation '%s' related to eligible: [%s] (relation: %.0f%%)",
					userOcc, strings.Join(eligibleOccs, ", "), relation*100),
				relation)
			return
		}
	}

	e.trackField("occupation", false)
	b.addField(DimOccupation, 0, weight,
		fmt.Sprintf("Occupation '%s' not in [%s]", userOcc, strings.Join(eligibleOccs, ", ")), 0)
}

// scoreSpecialFlags scores the four booleans as one weighted block with
// credit proportional to the fraction of applicable sub-flags that match.
func (e *Engine) scoreSpecialFlags(user *models.UserProfile, elig *models.EligibilityRule, weights Weights, b *Breakdown) {
	weight := weights[DimSpecial]

	flags := []struct {
		label    string
		field    string
		required models.TriState
		actual   bool
	}{
		{"BPL Status", "is_bpl", elig.IsBPL, user.IsBPL},
		{"Farmer Status", "is_farmer", elig.IsFarmer, user.IsFarmer},
		{"Student Status", "is_student", elig.IsStudent, user.IsStudent},
		{"Disability Status", "disability", elig.Disability, user.Disability},
	}

	var earned, applicable float64
	var details []string

	for _, flag := range flags {
		if !flag.required.Known() {
			continue
		}
		applicable += weight

		if flag.actual == flag.required.Bool() {
			earned += weight
			e.trackField(flag.field, true)
			details = append(details, fmt.Sprintf("%s: matches (you: %t)", flag.label, flag.actual))
		} else {
			e.trackField(flag.field, false)
			details = append(details, fmt.Sprintf("%s: mismatch (you: %t, required: %t)",
				flag.label, flag.actual, flag.required.Bool()))
		}
	}

	if applicable == 0 {
		b.addField(DimSpecial, 0, 0, "No special flag requirements", 1.0)
		return
	}

	b.addField(DimSpecial, earned, applicable, strings.Join(details, " | "), earned/applicable)
}

func (e *Engine) applyBonuses(user *models.UserProfile, elig *models.EligibilityRule, b *Breakdown) {
	applicable := 0
	matched := 0
	for _, f := range b.FieldScores {
		if f.Applicable > 0 {
			applicable++
			if f.Gradient >= 0.8 {
				matched++
			}
		}
	}
	if applicable >= 3 && matched == applicable {
		b.AddBonus("perfect_alignment", 3,
			fmt.Sprintf("All %d criteria matched perfectly", applicable))
	}

	switch {
	case user.IsBPL && user.Disability:
		b.AddBonus("vulnerable_priority", 3, "BPL + disability: priority applicant")
	case user.IsBPL:
		b.AddBonus("bpl_priority", 1, "BPL applicant priority")
	}

	if user.Age >= 60 {
		b.AddBonus("senior_citizen", 1, fmt.Sprintf("Senior citizen (age %d)", user.Age))
	}

	userCat := strings.ToLower(strings.TrimSpace(user.Category))
	if len(elig.Categories) > 0 && len(elig.Categories) <= 2 && userCat != "" && elig.HasCategory(userCat) {
		b.AddBonus("targeted_scheme", 2,
			fmt.Sprintf("Scheme specifically targets %s category", strings.ToUpper(userCat)))
	}
}

func (e *Engine) applyPenalties(user *models.UserProfile, elig *models.EligibilityRule, b *Breakdown) {
	const keyFields = 6
	provided := user.ProvidedKeyFields()
	if provided <= 2 {
		b.AddPenalty("sparse_profile", 3,
			fmt.Sprintf("Only %d/%d key fields provided", provided, keyFields))
		b.AddNote("Score accuracy limited due to incomplete profile")
	}

	// Boundary-age notes are advisory only.
	if elig.MinAge != nil && user.Age == *elig.MinAge {
		b.AddNote(fmt.Sprintf(
			"You are at the minimum age limit (%d). Verify exact date of birth eligibility.", *elig.MinAge))
	}
	if elig.MaxAge != nil && user.Age == *elig.MaxAge {
		b.AddNote(fmt.Sprintf(
			"You are at the maximum age limit (%d). Apply soon before age cutoff.", *elig.MaxAge))
	}
}

// ScoreMultiple scores one user against many schemes, returning entries
// sorted by descending score.
func (e *Engine) ScoreMultiple(user *models.UserProfile, schemes []models.SchemeRecord) []ScoredScheme {
	results := make([]ScoredScheme, 0, len(schemes))

	for _, scheme := range schemes {
		b := e.CalculateDetailedScore(user, &scheme.Eligibility)
		results = append(results, ScoredScheme{
			Scheme:     scheme.Clone(),
			Score:      b.FinalScore,
			Confidence: b.Confidence,
			Breakdown:  b,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// CompareScores scores two schemes for the same user, with a per-field
// contrast. Score ties go to scheme A.
func (e *Engine) CompareScores(user *models.UserProfile, schemeA, schemeB models.SchemeRecord) Comparison {
	ba := e.CalculateDetailedScore(user, &schemeA.Eligibility)
	bb := e.CalculateDetailedScore(user, &schemeB.Eligibility)

	winner := schemeA.Name
	if bb.FinalScore > ba.FinalScore {
		winner = schemeB.Name
	}

	cmp := Comparison{
		SchemeA: ScoredScheme{Scheme: schemeA.Clone(), Score: ba.FinalScore, Confidence: ba.Confidence, Breakdown: ba},
		SchemeB: ScoredScheme{Scheme: schemeB.Clone(), Score: bb.FinalScore, Confidence: bb.Confidence, Breakdown: bb},
		Winner:  winner,
		ScoreDifference: func() int {
			d := ba.FinalScore - bb.FinalScore
			if d < 0 {
				return -d
			}
			return d
		}(),
		FieldComparison: make(map[Dimension]FieldContrast, len(Dimensions())),
	}

	for _, dim := range Dimensions() {
		fa := ba.FieldScores[dim]
		fb := bb.FieldScores[dim]
		better := "A"
		if fb.Percentage > fa.Percentage {
			better = "B"
		}
		cmp.FieldComparison[dim] = FieldContrast{
			SchemeA: fa.Percentage,
			SchemeB: fb.Percentage,
			Better:  better,
		}
	}

	return cmp
}

// Analytics is a snapshot of the engine's advisory counters.
type Analytics struct {
	ScoresCalculated  int64                `json:"total_scores_calculated"`
	TotalTimeMs       float64              `json:"total_time_ms"`
	AverageTimeMs     float64              `json:"average_time_ms"`
	WeightProfile     string               `json:"weight_profile"`
	CurrentWeights    Weights              `json:"current_weights"`
	GradientEnabled   bool                 `json:"gradient_enabled"`
	ScoreDistribution map[string]int       `json:"score_distribution"`
	FieldMatchRates   map[string]matchRate `json:"field_match_rates"`
	AvailableProfiles []string             `json:"available_profiles"`
}

// GetAnalytics returns a copy of the engine analytics.
func (e *Engine) GetAnalytics() Analytics {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalMs := float64(e.totalTime) / float64(time.Millisecond)
	avgMs := 0.0
	if e.scoresCalculated > 0 {
		avgMs = totalMs / float64(e.scoresCalculated)
	}

	distribution := make(map[string]int, len(e.scoreDistribution))
	for k, v := range e.scoreDistribution {
		distribution[k] = v
	}
	rates := make(map[string]matchRate, len(e.fieldMatchRates))
	for k, v := range e.fieldMatchRates {
		rates[k] = *v
	}

	return Analytics{
		ScoresCalculated:  e.scoresCalculated,
		TotalTimeMs:       round2(totalMs),
		AverageTimeMs:     round2(avgMs),
		WeightProfile:     e.profileName,
		CurrentWeights:    e.weights.Clone(),
		GradientEnabled:   e.gradient,
		ScoreDistribution: distribution,
		FieldMatchRates:   rates,
		AvailableProfiles: ListProfiles(),
	}
}

// ResetAnalytics clears the advisory counters.
func (e *Engine) ResetAnalytics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scoresCalculated = 0
	e.totalTime = 0
	e.scoreDistribution = make(map[string]int)
	e.fieldMatchRates = make(map[string]*matchRate)
}

func lowercaseAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(strings.TrimSpace(item))
	}
	return out
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
