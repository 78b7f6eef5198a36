package catalog

import (
	"sort"
	"strings"
	"time"

	"welfare-scheme-engine/internal/models"
)

// FilterCriteria selects schemes by multiple orthogonal conditions; zero
// values mean "no constraint". Pointer fields distinguish false from
// unfiltered.
type FilterCriteria struct {
	Category   string
	SchemeType string
	State      string
	Gender     string
	Age        *int
	Income     *int
	Occupation string
	SocialCat  string
	IsBPL      *bool
	HasURL     *bool
}

// Filter applies all set criteria conjunctively.
func (s *Store) Filter(criteria FilterCriteria) []models.SchemeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SchemeRecord
	for i := range s.schemes {
		if matchesCriteria(&s.schemes[i], criteria) {
			out = append(out, s.schemes[i].Clone())
		}
	}
	return out
}

// FilterForProfile selects schemes a user could plausibly apply to,
// treating each unset eligibility rule as permissive.
func (s *Store) FilterForProfile(user *models.UserProfile) []models.SchemeRecord {
	criteria := FilterCriteria{
		State:      user.State,
		Gender:     user.Gender,
		Occupation: user.Occupation,
		SocialCat:  user.Category,
	}
	if user.Age > 0 {
		age := user.Age
		criteria.Age = &age
	}
	if user.AnnualIncome > 0 {
		income := user.AnnualIncome
		criteria.Income = &income
	}
	if user.IsBPL {
		bpl := true
		criteria.IsBPL = &bpl
	}
	return s.Filter(criteria)
}

func matchesCriteria(scheme *models.SchemeRecord, c FilterCriteria) bool {
	elig := &scheme.Eligibility

	if c.Category != "" && !strings.EqualFold(scheme.Category, c.Category) {
		return false
	}
	if c.SchemeType != "" && !strings.EqualFold(string(scheme.Type), c.SchemeType) {
		return false
	}
	if c.State != "" && elig.States != nil && !elig.States.All && !elig.States.Contains(c.State) {
		return false
	}
	if c.Gender != "" && elig.Gender != "" && elig.Gender != models.GenderAll &&
		!strings.EqualFold(string(elig.Gender), c.Gender) {
		return false
	}
	if c.Age != nil {
		if elig.MinAge != nil && *c.Age < *elig.MinAge {
			return false
		}
		if elig.MaxAge != nil && *c.Age > *elig.MaxAge {
			return false
		}
	}
	if c.Income != nil && elig.MaxIncome != nil && *c.Income > *elig.MaxIncome {
		return false
	}
	if c.Occupation != "" && len(elig.Occupations) > 0 && !elig.HasOccupation(c.Occupation) {
		return false
	}
	if c.SocialCat != "" && len(elig.Categories) > 0 && !elig.HasCategory(c.SocialCat) {
		return false
	}
	if c.IsBPL != nil && elig.IsBPL.Known() && elig.IsBPL.Bool() != *c.IsBPL {
		return false
	}
	if c.HasURL != nil && (scheme.URL != "") != *c.HasURL {
		return false
	}
	return true
}

// SearchResult pairs a scheme with its text relevance score.
type SearchResult struct {
	Scheme models.SchemeRecord `json:"scheme"`
	Score  int                 `json:"score"`
}

// Search runs a weighted full-text search across name, description,
// benefits, and category, ordered by relevance.
func (s *Store) Search(query string, limit int) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}
	words := strings.Fields(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for i := range s.schemes {
		scheme := &s.schemes[i]
		score := 0

		fields := []struct {
			value  string
			isName bool
		}{
			{scheme.Name, true},
			{scheme.Description, false},
			{scheme.Benefits, false},
			{scheme.Category, false},
		}

		for _, f := range fields {
			value := strings.ToLower(f.value)
			if value == "" {
				continue
			}
			if strings.Contains(value, query) {
				score += 50
				if f.isName {
					score += 30
				}
			}
			for _, word := range words {
				if len(word) < 2 {
					continue
				}
				if strings.Contains(value, word) {
					score += 10
					if f.isName {
						score += 15
					}
				}
			}
			if f.isName {
				if sim := bigramSimilarity(query, value); sim > 0.4 {
					score += int(sim * 40)
				}
			}
		}

		if score > 0 {
			results = append(results, SearchResult{Scheme: scheme.Clone(), Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// SearchByName finds schemes whose name contains or resembles the
// given name, best matches first.
func (s *Store) SearchByName(name string, limit int) []models.SchemeRecord {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		index int
		score int
	}
	var matches []ranked

	for i := range s.schemes {
		schemeName := strings.ToLower(s.schemes[i].Name)
		if strings.Contains(schemeName, name) || strings.Contains(name, schemeName) {
			matches = append(matches, ranked{i, 100})
			continue
		}
		if sim := bigramSimilarity(name, schemeName); sim > 0.4 {
			matches = append(matches, ranked{i, int(sim * 100)})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]models.SchemeRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, s.schemes[m.index].Clone())
	}
	return out
}

// FindSimilar returns schemes most like the given one, ranked by shared
// category, type, and eligibility overlap.
func (s *Store) FindSimilar(schemeID string, limit int) []models.SchemeRecord {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	srcIdx, ok := s.byID[schemeID]
	if !ok {
		return nil
	}
	src := &s.schemes[srcIdx]

	type ranked struct {
		index int
		score int
	}
	var similar []ranked

	for i := range s.schemes {
		if s.schemes[i].ID == schemeID {
			continue
		}
		other := &s.schemes[i]
		score := 0
		if strings.EqualFold(other.Category, src.Category) {
			score += 2
		}
		if other.Type == src.Type {
			score++
		}
		if other.Eligibility.Gender == src.Eligibility.Gender {
			score++
		}
		if score > 0 {
			similar = append(similar, ranked{i, score})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].score > similar[j].score
	})
	if len(similar) > limit {
		similar = similar[:limit]
	}

	out := make([]models.SchemeRecord, 0, len(similar))
	for _, m := range similar {
		out = append(out, s.schemes[m.index].Clone())
	}
	return out
}

// bigramSimilarity is a Dice coefficient over character bigrams, a
// cheap stand-in for edit-distance ratios.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}
	overlap := 0
	for i := 0; i < len(b)-1; i++ {
		if bigrams[b[i:i+2]] > 0 {
			bigrams[b[i:i+2]]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(a)+len(b)-2)
}

// Statistics describes the loaded catalog in aggregate.
type Statistics struct {
	TotalSchemes int            `json:"total_schemes"`
	LoadedAt     *time.Time     `json:"loaded_at,omitempty"`
	FileSizeKB   float64        `json:"file_size_kb"`
	IsLoaded     bool           `json:"is_loaded"`
	Categories   map[string]int `json:"categories"`
	Types        map[string]int `json:"types"`

	AllIndiaSchemes     int `json:"all_india_schemes"`
	StateSpecificStates int `json:"state_specific_states"`

	WithAgeLimit    int `json:"with_age_limit"`
	WithIncomeLimit int `json:"with_income_limit"`
	GenderSpecific  int `json:"gender_specific"`
	WithOccupation  int `json:"with_occupation"`
	BPLSpecific     int `json:"bpl_specific"`
	WithCategory    int `json:"with_category"`
	WithURL         int `json:"with_url"`
	WithDescription int `json:"with_description"`

	MinAgeAcrossSchemes *int `json:"min_age_across_schemes,omitempty"`
	MaxAgeAcrossSchemes *int `json:"max_age_across_schemes,omitempty"`
	LowestIncomeLimit   *int `json:"lowest_income_limit,omitempty"`
	HighestIncomeLimit  *int `json:"highest_income_limit,omitempty"`
}

// Statistics computes aggregate counts over the loaded catalog.
func (s *Store) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		TotalSchemes:        len(s.schemes),
		FileSizeKB:          float64(s.fileSize) / 1024,
		IsLoaded:            s.loaded,
		Categories:          make(map[string]int, len(s.byCategory)),
		Types:               make(map[string]int, len(s.byType)),
		AllIndiaSchemes:     len(s.allStates),
		StateSpecificStates: len(s.byState),
	}
	if s.loaded {
		loadedAt := s.loadedAt
		stats.LoadedAt = &loadedAt
	}

	for cat, idx := range s.byCategory {
		stats.Categories[cat] = len(idx)
	}
	for typ, idx := range s.byType {
		stats.Types[typ] = len(idx)
	}

	for i := range s.schemes {
		scheme := &s.schemes[i]
		elig := &scheme.Eligibility

		if elig.MinAge != nil || elig.MaxAge != nil {
			stats.WithAgeLimit++
			if elig.MinAge != nil {
				if stats.MinAgeAcrossSchemes == nil || *elig.MinAge < *stats.MinAgeAcrossSchemes {
					stats.MinAgeAcrossSchemes = models.IntPtr(*elig.MinAge)
				}
			}
			if elig.MaxAge != nil {
				if stats.MaxAgeAcrossSchemes == nil || *elig.MaxAge > *stats.MaxAgeAcrossSchemes {
					stats.MaxAgeAcrossSchemes = models.IntPtr(*elig.MaxAge)
				}
			}
		}
		if elig.MaxIncome != nil {
			stats.WithIncomeLimit++
			if stats.LowestIncomeLimit == nil || *elig.MaxIncome < *stats.LowestIncomeLimit {
				stats.LowestIncomeLimit = models.IntPtr(*elig.MaxIncome)
			}
			if stats.HighestIncomeLimit == nil || *elig.MaxIncome > *stats.HighestIncomeLimit {
				stats.HighestIncomeLimit = models.IntPtr(*elig.MaxIncome)
			}
		}
		if elig.Gender != "" && elig.Gender != models.GenderAll {
			stats.GenderSpecific++
		}
		if len(elig.Occupations) > 0 {
			stats.WithOccupation++
		}
		if elig.IsBPL.Known() {
			stats.BPLSpecific++
		}
		if len(elig.Categories) > 0 {
			stats.WithCategory++
		}
		if scheme.URL != "" {
			stats.WithURL++
		}
		if scheme.Description != "" {
			stats.WithDescription++
		}
	}

	return stats
}

// UniqueOccupations lists every occupation any scheme targets, sorted.
func (s *Store) UniqueOccupations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for i := range s.schemes {
		for _, occ := range s.schemes[i].Eligibility.Occupations {
			set[strings.ToLower(occ)] = struct{}{}
		}
	}
	return sortedSet(set)
}

// UniqueSocialCategories lists every social category any scheme
// targets, sorted.
func (s *Store) UniqueSocialCategories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]struct{})
	for i := range s.schemes {
		for _, cat := range s.schemes[i].Eligibility.Categories {
			set[strings.ToLower(cat)] = struct{}{}
		}
	}
	return sortedSet(set)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
