package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"welfare-scheme-engine/internal/models"
)

type exportDocument struct {
	Schemes    []models.SchemeRecord `json:"schemes"`
	ExportedAt time.Time             `json:"exported_at"`
}

// ExportJSON writes the given schemes (or the full catalog when nil) as
// an indented JSON document.
func (s *Store) ExportJSON(w io.Writer, schemes []models.SchemeRecord) error {
	if schemes == nil {
		schemes = s.All()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportDocument{Schemes: schemes, ExportedAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to export catalog JSON: %w", err)
	}
	return nil
}

// ExportCSV writes the given schemes (or the full catalog when nil) as
// CSV with eligibility flattened into columns.
func (s *Store) ExportCSV(w io.Writer, schemes []models.SchemeRecord) error {
	if schemes == nil {
		schemes = s.All()
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id", "name", "description", "category", "type",
		"benefits", "how_to_apply", "url",
		"min_age", "max_age", "gender", "states",
		"max_income", "category_eligible", "occupation",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, scheme := range schemes {
		elig := scheme.Eligibility
		row := []string{
			scheme.ID,
			scheme.Name,
			scheme.Description,
			scheme.Category,
			string(scheme.Type),
			scheme.Benefits,
			scheme.HowToApply,
			scheme.URL,
			intPtrString(elig.MinAge),
			intPtrString(elig.MaxAge),
			string(elig.Gender),
			statesString(elig.States),
			intPtrString(elig.MaxIncome),
			strings.Join(elig.Categories, ","),
			strings.Join(elig.Occupations, ","),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for scheme %s: %w", scheme.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func statesString(states *models.StateList) string {
	if states == nil {
		return ""
	}
	if states.All {
		return "all"
	}
	return strings.Join(states.Names, ",")
}
