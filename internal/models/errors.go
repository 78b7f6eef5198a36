// Package models defines the data structures for the welfare scheme engine.
package models

import (
	"errors"
	"strconv"
	"strings"
)

// Common errors
var (
	ErrUnknownWeightProfile = errors.New("unknown weight profile")
	ErrInvalidWeights       = errors.New("weights must be non-negative")
	ErrCatalogNotFound      = errors.New("catalog file not found")
	ErrCatalogEmpty         = errors.New("catalog contains no schemes")
)

// NormalizeGender converts common gender spellings to the standard values.
// Unrecognized input is returned lowercased as-is (it will simply fail to
// match a gendered requirement).
func NormalizeGender(gender string) Gender {
	normalized := strings.ToLower(strings.TrimSpace(gender))

	genderMap := map[string]Gender{
		"all":         GenderAll,
		"any":         GenderAll,
		"male":        GenderMale,
		"m":           GenderMale,
		"man":         GenderMale,
		"female":      GenderFemale,
		"f":           GenderFemale,
		"woman":       GenderFemale,
		"women":       GenderFemale,
		"transgender": GenderTransgender,
		"trans":       GenderTransgender,
		"third":       GenderTransgender,
		"other":       GenderTransgender,
	}

	if mapped, ok := genderMap[normalized]; ok {
		return mapped
	}
	return Gender(normalized)
}

// ParseFlexBool interprets the loose boolean spellings that arrive from
// upstream data: "true", "1", "yes" (any case) are true, everything else
// is false.
func ParseFlexBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// SafeInt coerces a free-form numeric string to an int, falling back to
// the default on unparsable input. Partially-filled profiles degrade to 0
// credit on the affected dimension instead of raising.
func SafeInt(value string, defaultValue int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return int(f)
	}
	return defaultValue
}
