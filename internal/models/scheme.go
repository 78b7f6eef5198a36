// Package models defines the data structures for the welfare scheme engine.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SchemeType represents the administrative level of a scheme.
type SchemeType string

const (
	SchemeTypeCentral SchemeType = "central"
	SchemeTypeState   SchemeType = "state"
	SchemeTypeBoth    SchemeType = "both"
)

// ValidSchemeTypes returns all valid scheme type values.
func ValidSchemeTypes() []SchemeType {
	return []SchemeType{SchemeTypeCentral, SchemeTypeState, SchemeTypeBoth}
}

// IsValid checks if the scheme type is valid.
func (t SchemeType) IsValid() bool {
	for _, valid := range ValidSchemeTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// ValidSchemeCategories lists the known catalog categories. Unknown
// categories are tolerated (they load as-is) but flagged by the loader.
func ValidSchemeCategories() []string {
	return []string{
		"agriculture", "health", "education", "housing", "finance",
		"women", "pension", "insurance", "employment", "sanitation",
		"social", "rural", "urban", "skill", "food", "energy", "other",
	}
}

// Gender represents a gender requirement or attribute.
type Gender string

const (
	GenderAll         Gender = "all"
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderTransgender Gender = "transgender"
)

// IsValid checks if the gender value is one of the recognized values.
func (g Gender) IsValid() bool {
	switch g {
	case GenderAll, GenderMale, GenderFemale, GenderTransgender:
		return true
	}
	return false
}

// TriState is an optional boolean: required-true, required-false, or not
// evaluated. Upstream data sometimes carries these as strings ("true",
// "yes", "1"), which UnmarshalJSON coerces at the boundary so the engines
// only ever see a clean three-state value.
type TriState int8

const (
	TriStateUnset TriState = iota
	TriStateFalse
	TriStateTrue
)

// Known reports whether the flag carries a constraint.
func (t TriState) Known() bool { return t != TriStateUnset }

// Bool returns the flag value; false when unset.
func (t TriState) Bool() bool { return t == TriStateTrue }

// TriStateOf converts a plain bool to the corresponding TriState.
func TriStateOf(b bool) TriState {
	if b {
		return TriStateTrue
	}
	return TriStateFalse
}

// UnmarshalJSON accepts booleans, truthy/falsy strings, numbers, and null.
func (t *TriState) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*t = TriStateUnset
		return nil
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		*t = TriStateOf(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*t = TriStateOf(ParseFlexBool(s))
		return nil
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		*t = TriStateOf(n != 0)
		return nil
	}

	*t = TriStateUnset
	return nil
}

// MarshalJSON emits null for unset, a plain bool otherwise.
func (t TriState) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Bool())
}

// StateList is the state restriction of a scheme: either open to all
// states or limited to a named set. A nil *StateList means the dimension
// carries no constraint at all.
type StateList struct {
	All   bool     `json:"-"`
	Names []string `json:"-"`
}

// AllStates is the "available everywhere" restriction.
func AllStates() *StateList { return &StateList{All: true} }

// States builds a restriction limited to the given state names.
func States(names ...string) *StateList { return &StateList{Names: names} }

// Contains reports whether the given state is in the eligible set.
func (s *StateList) Contains(state string) bool {
	if s == nil {
		return false
	}
	if s.All {
		return true
	}
	for _, name := range s.Names {
		if strings.EqualFold(name, state) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (s *StateList) Clone() *StateList {
	if s == nil {
		return nil
	}
	c := &StateList{All: s.All}
	if s.Names != nil {
		c.Names = append([]string(nil), s.Names...)
	}
	return c
}

// UnmarshalJSON accepts the literal "all", a bare state name, or a list
// of state names. Upstream data carries single-state restrictions both
// ways ("states": "Bihar" and "states": ["Bihar"]).
func (s *StateList) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		literal = strings.TrimSpace(literal)
		if strings.EqualFold(literal, "all") {
			s.All = true
			s.Names = nil
			return nil
		}
		s.All = false
		if literal == "" {
			s.Names = nil
		} else {
			s.Names = []string{literal}
		}
		return nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	s.All = false
	s.Names = names
	return nil
}

// MarshalJSON emits "all" or the list of names.
func (s StateList) MarshalJSON() ([]byte, error) {
	if s.All {
		return json.Marshal("all")
	}
	return json.Marshal(s.Names)
}

// EligibilityRule holds the matchable criteria of a scheme. Every field is
// independently optional; an absent field means the dimension carries no
// constraint and must score as fully satisfied.
type EligibilityRule struct {
	MinAge      *int       `json:"min_age,omitempty"`
	MaxAge      *int       `json:"max_age,omitempty"`
	Gender      Gender     `json:"gender,omitempty"`
	States      *StateList `json:"states,omitempty"`
	Categories  []string   `json:"category,omitempty"`
	MaxIncome   *int       `json:"max_income,omitempty"`
	Occupations []string   `json:"occupation,omitempty"`
	IsBPL       TriState   `json:"is_bpl,omitempty"`
	IsFarmer    TriState   `json:"is_farmer,omitempty"`
	IsStudent   TriState   `json:"is_student,omitempty"`
	Disability  TriState   `json:"disability,omitempty"`
}

// HasCategory reports (case-insensitive) membership in the category set.
func (e *EligibilityRule) HasCategory(category string) bool {
	for _, c := range e.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// HasOccupation reports (case-insensitive) membership in the occupation set.
func (e *EligibilityRule) HasOccupation(occupation string) bool {
	for _, o := range e.Occupations {
		if strings.EqualFold(o, occupation) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the rule.
func (e EligibilityRule) Clone() EligibilityRule {
	c := e
	if e.MinAge != nil {
		v := *e.MinAge
		c.MinAge = &v
	}
	if e.MaxAge != nil {
		v := *e.MaxAge
		c.MaxAge = &v
	}
	if e.MaxIncome != nil {
		v := *e.MaxIncome
		c.MaxIncome = &v
	}
	c.States = e.States.Clone()
	if e.Categories != nil {
		c.Categories = append([]string(nil), e.Categories...)
	}
	if e.Occupations != nil {
		c.Occupations = append([]string(nil), e.Occupations...)
	}
	return c
}

// SchemeRecord represents one welfare program in the catalog. Records are
// constructed by the loader and never mutated by the engines; match output
// carries annotated copies.
type SchemeRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        SchemeType      `json:"type"`
	Benefits    string          `json:"benefits"`
	HowToApply  string          `json:"how_to_apply"`
	URL         string          `json:"url"`
	Eligibility EligibilityRule `json:"eligibility"`
}

// Clone returns an independent copy safe for callers to retain.
func (s SchemeRecord) Clone() SchemeRecord {
	c := s
	c.Eligibility = s.Eligibility.Clone()
	return c
}

// IntPtr is a convenience for building optional rule fields.
func IntPtr(v int) *int { return &v }
