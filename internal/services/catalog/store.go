// Package catalog loads, validates, and indexes the welfare scheme
// catalog. The store is safe for concurrent readers; reloads swap the
// dataset atomically under a write lock.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"welfare-scheme-engine/internal/models"
	"welfare-scheme-engine/internal/utils"
)

// catalogFile is the on-disk shape of schemes.json.
type catalogFile struct {
	Schemes []models.SchemeRecord `json:"schemes"`
}

// Duplicate records a scheme ID seen more than once.
type Duplicate struct {
	ID             string `json:"id"`
	FirstIndex     int    `json:"first_index"`
	DuplicateIndex int    `json:"duplicate_index"`
}

// ValidationReport summarizes the per-scheme validation run on load.
type ValidationReport struct {
	TotalSchemes int       `json:"total_schemes"`
	Valid        int       `json:"valid"`
	Invalid      int       `json:"invalid"`
	Errors       []string  `json:"errors"`
	Warnings     []string  `json:"warnings"`
	ValidatedAt  time.Time `json:"validated_at"`
}

// Store holds the scheme catalog with fast lookup indexes.
type Store struct {
	mu       sync.RWMutex
	path     string
	schemes  []models.SchemeRecord
	loaded   bool
	loadedAt time.Time
	fileSize int64

	byID       map[string]int
	byCategory map[string][]int
	byType     map[string][]int
	byState    map[string][]int
	allStates  []int

	report     ValidationReport
	duplicates []Duplicate
}

// NewStore creates an empty store bound to a catalog file path. Call
// Load (or LoadBytes) before querying.
func NewStore(path string) *Store {
	return &Store{
		path:       path,
		byID:       make(map[string]int),
		byCategory: make(map[string][]int),
		byType:     make(map[string][]int),
		byState:    make(map[string][]int),
	}
}

// Load reads and indexes the catalog from the bound file path.
func (s *Store) Load() error {
	start := time.Now()

	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", models.ErrCatalogNotFound, s.path)
		}
		return fmt.Errorf("failed to stat catalog file: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	if err := s.loadBytes(data, info.Size()); err != nil {
		return err
	}

	utils.GetLogger().Info("Scheme catalog loaded",
		zap.String("path", s.path),
		zap.Int("schemes", s.Count()),
		zap.Float64("size_kb", float64(info.Size())/1024),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// LoadBytes parses and indexes a catalog document already in memory,
// for example one fetched from S3.
func (s *Store) LoadBytes(data []byte) error {
	return s.loadBytes(data, int64(len(data)))
}

func (s *Store) loadBytes(data []byte, size int64) error {
	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	if len(doc.Schemes) == 0 {
		return models.ErrCatalogEmpty
	}

	repaired := make([]models.SchemeRecord, len(doc.Schemes))
	for i, scheme := range doc.Schemes {
		repaired[i] = repairScheme(scheme, i)
	}

	report := validateAll(repaired)
	duplicates := findDuplicates(repaired)

	s.mu.Lock()
	s.schemes = repaired
	s.fileSize = size
	s.loadedAt = time.Now()
	s.loaded = true
	s.report = report
	s.duplicates = duplicates
	s.buildIndexesLocked()
	s.mu.Unlock()

	if len(report.Errors) > 0 {
		utils.GetLogger().Warn("Catalog validation found errors",
			zap.Int("errors", len(report.Errors)),
			zap.Int("warnings", len(report.Warnings)),
		)
	}
	for _, dup := range duplicates {
		utils.GetLogger().Warn("Duplicate scheme ID",
			zap.String("id", dup.ID),
			zap.Int("first_index", dup.FirstIndex),
			zap.Int("duplicate_index", dup.DuplicateIndex),
		)
	}
	return nil
}

// Reload re-reads the catalog from disk. On failure the previously
// loaded dataset stays in place.
func (s *Store) Reload() error {
	old := s.Count()
	if err := s.Load(); err != nil {
		utils.GetLogger().Error("Catalog reload failed", zap.Error(err))
		return err
	}
	utils.GetLogger().Info("Catalog reloaded",
		zap.Int("schemes", s.Count()),
		zap.Int("delta", s.Count()-old),
	)
	return nil
}

// repairScheme fills missing fields with usable defaults so a partially
// specified entry still participates in matching.
func repairScheme(scheme models.SchemeRecord, index int) models.SchemeRecord {
	repaired := scheme.Clone()

	if strings.TrimSpace(repaired.ID) == "" {
		repaired.ID = fmt.Sprintf("scheme-%d", index+1)
		utils.GetLogger().Warn("Auto-generated scheme ID",
			zap.Int("index", index),
			zap.String("id", repaired.ID),
		)
	}
	if strings.TrimSpace(repaired.Name) == "" {
		repaired.Name = fmt.Sprintf("Unnamed Scheme #%d", index+1)
	}
	if repaired.Category == "" {
		repaired.Category = "other"
	}
	if repaired.Type == "" {
		repaired.Type = models.SchemeTypeCentral
	}
	if repaired.Eligibility.Gender == "" {
		repaired.Eligibility.Gender = models.GenderAll
	}

	return repaired
}

func validateScheme(scheme *models.SchemeRecord) (errors, warnings []string) {
	id := scheme.ID

	if strings.Contains(id, " ") {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s': ID contains spaces", id))
	}
	if scheme.Category != "" && !contains(models.ValidSchemeCategories(), strings.ToLower(scheme.Category)) {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s': Unknown category '%s'", id, scheme.Category))
	}
	if scheme.Type != "" && !scheme.Type.IsValid() {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s': Unknown type '%s'", id, scheme.Type))
	}
	if scheme.Description == "" {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s': Missing description", id))
	}

	elig := &scheme.Eligibility

	if elig.MinAge != nil {
		if *elig.MinAge < 0 {
			errors = append(errors, fmt.Sprintf("Scheme '%s': Invalid min_age: %d", id, *elig.MinAge))
		} else if *elig.MinAge > 120 {
			warnings = append(warnings, fmt.Sprintf("Scheme '%s': min_age %d seems too high", id, *elig.MinAge))
		}
	}
	if elig.MaxAge != nil {
		if *elig.MaxAge < 0 {
			errors = append(errors, fmt.Sprintf("Scheme '%s': Invalid max_age: %d", id, *elig.MaxAge))
		} else if *elig.MaxAge > 120 {
			warnings = append(warnings, fmt.Sprintf("Scheme '%s': max_age %d seems too high", id, *elig.MaxAge))
		}
	}
	if elig.MinAge != nil && elig.MaxAge != nil && *elig.MinAge > *elig.MaxAge {
		errors = append(errors, fmt.Sprintf(
			"Scheme '%s': min_age (%d) > max_age (%d)", id, *elig.MinAge, *elig.MaxAge))
	}
	if elig.Gender != "" && !elig.Gender.IsValid() {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s': Unknown gender '%s'", id, elig.Gender))
	}
	if elig.States != nil && !elig.States.All && len(elig.States.Names) == 0 {
		warnings = append(warnings, fmt.Sprintf("Scheme '%s': Empty states list", id))
	}
	if elig.MaxIncome != nil && *elig.MaxIncome < 0 {
		errors = append(errors, fmt.Sprintf("Scheme '%s': Invalid max_income: %d", id, *elig.MaxIncome))
	}

	return errors, warnings
}

func validateAll(schemes []models.SchemeRecord) ValidationReport {
	report := ValidationReport{
		TotalSchemes: len(schemes),
		ValidatedAt:  time.Now(),
	}
	for i := range schemes {
		errs, warns := validateScheme(&schemes[i])
		if len(errs) == 0 {
			report.Valid++
		}
		report.Errors = append(report.Errors, errs...)
		report.Warnings = append(report.Warnings, warns...)
	}
	report.Invalid = report.TotalSchemes - report.Valid
	return report
}

func findDuplicates(schemes []models.SchemeRecord) []Duplicate {
	seen := make(map[string]int, len(schemes))
	var duplicates []Duplicate
	for i, scheme := range schemes {
		if first, ok := seen[scheme.ID]; ok {
			duplicates = append(duplicates, Duplicate{
				ID:             scheme.ID,
				FirstIndex:     first,
				DuplicateIndex: i,
			})
			continue
		}
		seen[scheme.ID] = i
	}
	return duplicates
}

// buildIndexesLocked rebuilds all lookup indexes. Caller holds s.mu.
// On duplicate IDs the first entry wins the ID index.
func (s *Store) buildIndexesLocked() {
	s.byID = make(map[string]int, len(s.schemes))
	s.byCategory = make(map[string][]int)
	s.byType = make(map[string][]int)
	s.byState = make(map[string][]int)
	s.allStates = s.allStates[:0]

	for i, scheme := range s.schemes {
		if _, ok := s.byID[scheme.ID]; !ok {
			s.byID[scheme.ID] = i
		}

		cat := strings.ToLower(scheme.Category)
		s.byCategory[cat] = append(s.byCategory[cat], i)

		typ := strings.ToLower(string(scheme.Type))
		s.byType[typ] = append(s.byType[typ], i)

		switch {
		case scheme.Eligibility.States == nil, scheme.Eligibility.States.All:
			s.allStates = append(s.allStates, i)
		default:
			for _, state := range scheme.Eligibility.States.Names {
				key := strings.ToLower(state)
				s.byState[key] = append(s.byState[key], i)
			}
		}
	}
}

// All returns a copy of every scheme in the catalog.
func (s *Store) All() []models.SchemeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked(allIndexes(len(s.schemes)))
}

// ByID looks up a single scheme. The second return reports existence.
func (s *Store) ByID(id string) (models.SchemeRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.SchemeRecord{}, false
	}
	return s.schemes[i].Clone(), true
}

// ByCategory returns schemes in one category.
func (s *Store) ByCategory(category string) []models.SchemeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked(s.byCategory[strings.ToLower(category)])
}

// ByType returns schemes of one type (central, state, both).
func (s *Store) ByType(schemeType string) []models.SchemeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked(s.byType[strings.ToLower(schemeType)])
}

// ByState returns nationwide schemes plus the ones listing the state.
func (s *Store) ByState(state string) []models.SchemeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	indexes := make([]int, 0, len(s.allStates))
	indexes = append(indexes, s.allStates...)
	indexes = append(indexes, s.byState[strings.ToLower(state)]...)
	return s.cloneLocked(indexes)
}

// Categories returns all distinct categories, sorted.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.byCategory)
}

// Types returns all distinct scheme types, sorted.
func (s *Store) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.byType)
}

// States returns every state with state-specific schemes, sorted.
func (s *Store) States() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.byState)
}

// Count returns the number of loaded schemes.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schemes)
}

// IsLoaded reports whether a catalog has been loaded successfully.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Report returns the validation report from the last load.
func (s *Store) Report() ValidationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report := s.report
	report.Errors = append([]string(nil), s.report.Errors...)
	report.Warnings = append([]string(nil), s.report.Warnings...)
	return report
}

// Duplicates returns the duplicate IDs found during the last load.
func (s *Store) Duplicates() []Duplicate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Duplicate(nil), s.duplicates...)
}

func (s *Store) cloneLocked(indexes []int) []models.SchemeRecord {
	out := make([]models.SchemeRecord, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.schemes[i].Clone())
	}
	return out
}

func allIndexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
