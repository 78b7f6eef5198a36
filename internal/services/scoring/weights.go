// Package scoring computes gradient relevance scores between a user
// profile and a scheme's eligibility rule.
package scoring

import (
	"fmt"
	"strings"

	"welfare-scheme-engine/internal/models"
)

// Dimension identifies one scored criterion.
type Dimension string

const (
	DimAge        Dimension = "age"
	DimGender     Dimension = "gender"
	DimState      Dimension = "state"
	DimCategory   Dimension = "category"
	DimIncome     Dimension = "income"
	DimOccupation Dimension = "occupation"
	DimSpecial    Dimension = "special_flags"
)

// Dimensions returns the seven scored dimensions in evaluation order.
func Dimensions() []Dimension {
	return []Dimension{
		DimAge, DimGender, DimState, DimCategory,
		DimIncome, DimOccupation, DimSpecial,
	}
}

// Weights maps each dimension to its relative importance.
type Weights map[Dimension]float64

// Clone returns an independent copy of the weight map.
func (w Weights) Clone() Weights {
	c := make(Weights, len(w))
	for k, v := range w {
		c[k] = v
	}
	return c
}

// Predefined weight profiles. Each profile changes how much each
// criterion matters; the exact numbers are tunable policy.
var weightProfiles = map[string]Weights{
	"balanced": {
		DimAge: 15, DimGender: 15, DimState: 20, DimCategory: 15,
		DimIncome: 15, DimOccupation: 10, DimSpecial: 10,
	},
	"location": {
		DimAge: 10, DimGender: 10, DimState: 30, DimCategory: 15,
		DimIncome: 15, DimOccupation: 10, DimSpecial: 10,
	},
	"economic": {
		DimAge: 10, DimGender: 10, DimState: 15, DimCategory: 15,
		DimIncome: 25, DimOccupation: 10, DimSpecial: 15,
	},
	"demographic": {
		DimAge: 20, DimGender: 20, DimState: 15, DimCategory: 20,
		DimIncome: 10, DimOccupation: 5, DimSpecial: 10,
	},
	"occupation": {
		DimAge: 10, DimGender: 10, DimState: 15, DimCategory: 10,
		DimIncome: 15, DimOccupation: 25, DimSpecial: 15,
	},
}

// ListProfiles returns the names of all predefined weight profiles.
func ListProfiles() []string {
	return []string{"balanced", "location", "economic", "demographic", "occupation"}
}

// ProfileWeights resolves a named weight profile. The "_priority"
// suffix is accepted and stripped ("location_priority" == "location").
// Unknown names are a construction-time configuration error, not a
// soft fallback.
func ProfileWeights(name string) (Weights, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(strings.TrimSuffix(key, "_priority"), "-priority")
	profile, ok := weightProfiles[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)",
			models.ErrUnknownWeightProfile, name, strings.Join(ListProfiles(), ", "))
	}
	return profile.Clone(), nil
}

// ValidateWeights rejects negative weights in an override map.
func ValidateWeights(w Weights) error {
	for dim, weight := range w {
		if weight < 0 {
			return fmt.Errorf("%w: %s=%.1f", models.ErrInvalidWeights, dim, weight)
		}
	}
	return nil
}
