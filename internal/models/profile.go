// Package models defines the data structures for the welfare scheme engine.
package models

// UserProfile is the applicant's self-reported attributes. Profiles are
// constructed fresh per request by the caller and never persisted by the
// engines. Missing fields degrade scoring on that dimension rather than
// failing the request.
type UserProfile struct {
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	State        string `json:"state"`
	Category     string `json:"category"`
	AnnualIncome int    `json:"annual_income"`
	Occupation   string `json:"occupation"`
	IsBPL        bool   `json:"is_bpl"`
	IsFarmer     bool   `json:"is_farmer"`
	IsStudent    bool   `json:"is_student"`
	Disability   bool   `json:"disability"`
}

// ProvidedKeyFields counts how many of the six key profile fields carry a
// value. Used by the sparse-profile penalty and the completeness metric.
func (p *UserProfile) ProvidedKeyFields() int {
	provided := 0
	if p.Age > 0 {
		provided++
	}
	if p.Gender != "" {
		provided++
	}
	if p.State != "" {
		provided++
	}
	if p.Category != "" {
		provided++
	}
	if p.AnnualIncome > 0 {
		provided++
	}
	if p.Occupation != "" {
		provided++
	}
	return provided
}
