package scoring

import "strings"

// Static relation tables used for soft (partial-credit) matching. These
// are data, not logic: swapping or extending them never touches the
// scoring algorithm itself.

// stateNeighbors keys each state to its geographic neighbors. A user in a
// neighboring state of an eligible one earns partial state credit.
var stateNeighbors = map[string][]string{
	"Delhi":   {"Haryana", "Uttar Pradesh"},
	"Haryana": {"Delhi", "Punjab", "Rajasthan", "Uttar Pradesh", "Himachal Pradesh"},
	"Punjab":  {"Haryana", "Himachal Pradesh", "Rajasthan", "Jammu and Kashmir", "Chandigarh"},
	"Uttar Pradesh": {
		"Delhi", "Haryana", "Rajasthan", "Madhya Pradesh", "Bihar",
		"Jharkhand", "Chhattisgarh", "Uttarakhand",
	},
	"Bihar":       {"Uttar Pradesh", "Jharkhand", "West Bengal"},
	"West Bengal": {"Bihar", "Jharkhand", "Odisha", "Sikkim", "Assam"},
	"Maharashtra": {"Gujarat", "Madhya Pradesh", "Chhattisgarh", "Telangana", "Karnataka", "Goa"},
	"Karnataka":   {"Maharashtra", "Goa", "Kerala", "Tamil Nadu", "Telangana", "Andhra Pradesh"},
	"Tamil Nadu":  {"Karnataka", "Kerala", "Andhra Pradesh", "Puducherry"},
	"Kerala":      {"Karnataka", "Tamil Nadu"},
	"Gujarat":     {"Maharashtra", "Rajasthan", "Madhya Pradesh"},
	"Rajasthan": {
		"Gujarat", "Maharashtra", "Madhya Pradesh", "Uttar Pradesh",
		"Haryana", "Punjab",
	},
	"Madhya Pradesh": {"Rajasthan", "Gujarat", "Maharashtra", "Chhattisgarh", "Uttar Pradesh"},
	"Andhra Pradesh": {"Telangana", "Karnataka", "Tamil Nadu", "Odisha", "Chhattisgarh"},
	"Telangana":      {"Andhra Pradesh", "Maharashtra", "Karnataka", "Chhattisgarh"},
	"Odisha":         {"West Bengal", "Jharkhand", "Chhattisgarh", "Andhra Pradesh"},
	"Jharkhand":      {"Bihar", "West Bengal", "Odisha", "Chhattisgarh", "Uttar Pradesh"},
	"Chhattisgarh": {
		"Madhya Pradesh", "Maharashtra", "Telangana", "Andhra Pradesh",
		"Odisha", "Jharkhand", "Uttar Pradesh",
	},
	"Assam": {
		"West Bengal", "Meghalaya", "Nagaland", "Manipur", "Mizoram",
		"Tripura", "Arunachal Pradesh",
	},
	"Himachal Pradesh":  {"Punjab", "Haryana", "Uttarakhand", "Jammu and Kashmir"},
	"Uttarakhand":       {"Uttar Pradesh", "Himachal Pradesh"},
	"Goa":               {"Maharashtra", "Karnataka"},
	"Sikkim":            {"West Bengal"},
	"Meghalaya":         {"Assam"},
	"Nagaland":          {"Assam", "Manipur", "Arunachal Pradesh"},
	"Manipur":           {"Assam", "Nagaland", "Mizoram"},
	"Mizoram":           {"Assam", "Manipur", "Tripura"},
	"Tripura":           {"Assam", "Mizoram"},
	"Arunachal Pradesh": {"Assam", "Nagaland"},
}

// relatedCategories cross-relates social categories for partial credit.
var relatedCategories = map[string][]string{
	"sc":       {"st", "obc"},
	"st":       {"sc", "obc"},
	"obc":      {"sc", "st"},
	"general":  {},
	"minority": {"obc"},
}

// relatedOccupations groups occupations that qualify for closely-related
// scheme targeting.
var relatedOccupations = map[string][]string{
	"farmer":     {"agriculture", "farm worker", "fisherman", "dairy farmer"},
	"student":    {"researcher", "scholar"},
	"business":   {"entrepreneur", "self-employed", "trader", "shopkeeper"},
	"labour":     {"worker", "construction", "daily wage", "factory worker"},
	"unemployed": {"job seeker", "fresh graduate"},
	"housewife":  {"homemaker", "self-help group"},
	"teacher":    {"educator", "professor", "lecturer"},
	"doctor":     {"medical professional", "health worker"},
	"artisan":    {"craftsman", "weaver", "potter", "handicraft"},
}

// stateProximity returns 0.2 when the user's state neighbors any eligible
// state, 0 otherwise.
func stateProximity(userState string, eligibleStates []string) float64 {
	for _, neighbor := range stateNeighbors[userState] {
		for _, eligible := range eligibleStates {
			if strings.EqualFold(neighbor, eligible) {
				return 0.2
			}
		}
	}
	return 0
}

// categoryRelation returns 0.15 when the user's category is related to an
// eligible one, 0 otherwise. Inputs are expected lowercased.
func categoryRelation(userCategory string, eligibleCategories []string) float64 {
	for _, related := range relatedCategories[userCategory] {
		for _, eligible := range eligibleCategories {
			if related == eligible {
				return 0.15
			}
		}
	}
	return 0
}

// occupationRelation returns 0.5 for a relation-table hit (in either
// direction), 0.3 for a substring overlap, 0 otherwise. Inputs are
// expected lowercased.
func occupationRelation(userOccupation string, eligibleOccupations []string) float64 {
	for _, related := range relatedOccupations[userOccupation] {
		for _, eligible := range eligibleOccupations {
			if related == eligible {
				return 0.5
			}
		}
	}

	for _, eligible := range eligibleOccupations {
		for _, related := range relatedOccupations[eligible] {
			if related == userOccupation {
				return 0.5
			}
		}
	}

	for _, eligible := range eligibleOccupations {
		if strings.Contains(eligible, userOccupation) || strings.Contains(userOccupation, eligible) {
			return 0.3
		}
	}

	return 0
}
