package scoring

import "math"

// neutralScore is assigned when an eligibility rule constrains nothing at
// all; "open to everyone" is a legal, meaningful rule, never an error.
const neutralScore = 50

// FieldScore is the scored outcome of one dimension.
type FieldScore struct {
	Earned     float64 `json:"earned"`
	Applicable float64 `json:"applicable"`
	Percentage float64 `json:"percentage"`
	Detail     string  `json:"detail"`
	Gradient   float64 `json:"gradient"`
}

// Adjustment is one named bonus or penalty applied after the weighted
// dimensions.
type Adjustment struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// Breakdown is the accumulator built during one scoring call. It is
// created fresh per (profile, eligibility) pair and discarded after the
// final numbers are extracted; only those numbers are ever cached.
type Breakdown struct {
	FieldScores     map[Dimension]FieldScore `json:"field_scores"`
	TotalEarned     float64                  `json:"base_earned"`
	TotalApplicable float64                  `json:"base_applicable"`
	FinalScore      int                      `json:"final_score"`
	Confidence      int                      `json:"confidence"`
	Strategy        string                   `json:"strategy"`
	Bonuses         []Adjustment             `json:"bonuses"`
	Penalties       []Adjustment             `json:"penalties"`
	Notes           []string                 `json:"notes"`
}

func newBreakdown(strategy string) *Breakdown {
	return &Breakdown{
		FieldScores: make(map[Dimension]FieldScore, 7),
		Strategy:    strategy,
	}
}

func (b *Breakdown) addField(dim Dimension, earned, applicable float64, detail string, gradient float64) {
	percentage := 0.0
	if applicable > 0 {
		percentage = round1(earned / applicable * 100)
	}
	b.FieldScores[dim] = FieldScore{
		Earned:     round2(earned),
		Applicable: round2(applicable),
		Percentage: percentage,
		Detail:     detail,
		Gradient:   round2(gradient),
	}
	b.TotalEarned += earned
	b.TotalApplicable += applicable
}

// AddBonus records a named point bonus.
func (b *Breakdown) AddBonus(name string, points int, reason string) {
	b.Bonuses = append(b.Bonuses, Adjustment{Name: name, Points: points, Reason: reason})
}

// AddPenalty records a named point penalty.
func (b *Breakdown) AddPenalty(name string, points int, reason string) {
	b.Penalties = append(b.Penalties, Adjustment{Name: name, Points: points, Reason: reason})
}

// AddNote appends an advisory, non-score-affecting note.
func (b *Breakdown) AddNote(note string) {
	b.Notes = append(b.Notes, note)
}

// TotalBonus sums all bonus points.
func (b *Breakdown) TotalBonus() int {
	total := 0
	for _, bonus := range b.Bonuses {
		total += bonus.Points
	}
	return total
}

// TotalPenalty sums all penalty points.
func (b *Breakdown) TotalPenalty() int {
	total := 0
	for _, penalty := range b.Penalties {
		total += penalty.Points
	}
	return total
}

// ApplicableFields counts the dimensions that carried any constraint.
func (b *Breakdown) ApplicableFields() int {
	count := 0
	for _, f := range b.FieldScores {
		if f.Applicable > 0 {
			count++
		}
	}
	return count
}

// calculateFinal derives the final score and confidence. A rule with zero
// applicable weight across all dimensions yields the fixed neutral score
// with confidence 0 rather than dividing by zero.
func (b *Breakdown) calculateFinal() int {
	if b.TotalApplicable == 0 {
		b.FinalScore = neutralScore
		b.Confidence = 0
		b.AddNote("No applicable criteria found, default score assigned")
		return b.FinalScore
	}

	base := b.TotalEarned / b.TotalApplicable * 100
	adjusted := math.Round(base) + float64(b.TotalBonus()) - float64(b.TotalPenalty())
	b.FinalScore = clampScore(int(adjusted))

	totalFields := len(b.FieldScores)
	if totalFields == 0 {
		totalFields = 1
	}
	b.Confidence = int(math.Round(float64(b.ApplicableFields()) / float64(totalFields) * 100))

	return b.FinalScore
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
