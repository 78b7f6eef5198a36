package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"welfare-scheme-engine/internal/models"
)

const sampleCatalogJSON = `{
  "schemes": [
    {
      "id": "pm-kisan",
      "name": "PM Kisan Samman Nidhi",
      "description": "Income support for farmer families",
      "category": "agriculture",
      "type": "central",
      "url": "https://pmkisan.gov.in",
      "eligibility": {
        "states": "all",
        "occupation": ["farmer"],
        "max_income": 300000,
        "is_bpl": false
      }
    },
    {
      "id": "kerala-housing",
      "name": "Kerala Housing Assistance",
      "description": "Housing grants for Kerala residents",
      "category": "housing",
      "type": "state",
      "eligibility": {
        "states": ["Kerala"],
        "max_income": 250000
      }
    },
    {
      "name": "",
      "eligibility": {
        "min_age": 18,
        "max_age": 35
      }
    },
    {
      "id": "pm-kisan",
      "name": "Duplicate Entry",
      "category": "agriculture",
      "type": "central",
      "eligibility": {}
    }
  ]
}`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemes.json")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(writeCatalog(t, sampleCatalogJSON))
	assert.NoError(t, store.Load())
	return store
}

func TestLoadMissingFileReturnsNotFound(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"))
	err := store.Load()
	assert.ErrorIs(t, err, models.ErrCatalogNotFound)
	assert.False(t, store.IsLoaded())
}

func TestLoadEmptyCatalog(t *testing.T) {
	store := NewStore(writeCatalog(t, `{"schemes": []}`))
	assert.ErrorIs(t, store.Load(), models.ErrCatalogEmpty)
}

func TestLoadMalformedJSON(t *testing.T) {
	store := NewStore(writeCatalog(t, `{"schemes": [`))
	assert.Error(t, store.Load())
}

func TestLoadAndIndex(t *testing.T) {
	store := loadedStore(t)

	assert.True(t, store.IsLoaded())
	assert.Equal(t, 4, store.Count())

	scheme, ok := store.ByID("pm-kisan")
	assert.True(t, ok)
	// First entry wins on duplicate IDs.
	assert.Equal(t, "PM Kisan Samman Nidhi", scheme.Name)

	_, ok = store.ByID("nope")
	assert.False(t, ok)
}

func TestRepairFillsMissingFields(t *testing.T) {
	store := loadedStore(t)

	// Third entry has no id, name, category, type, or gender.
	repaired, ok := store.ByID("scheme-3")
	assert.True(t, ok)
	assert.Equal(t, "Unnamed Scheme #3", repaired.Name)
	assert.Equal(t, "other", repaired.Category)
	assert.Equal(t, models.SchemeTypeCentral, repaired.Type)
	assert.Equal(t, models.GenderAll, repaired.Eligibility.Gender)
	// Absent states stay absent; repair never widens eligibility.
	assert.Nil(t, repaired.Eligibility.States)
}

func TestDuplicateDetection(t *testing.T) {
	store := loadedStore(t)

	dups := store.Duplicates()
	assert.Len(t, dups, 1)
	assert.Equal(t, "pm-kisan", dups[0].ID)
	assert.Equal(t, 0, dups[0].FirstIndex)
	assert.Equal(t, 3, dups[0].DuplicateIndex)
}

func TestValidationReport(t *testing.T) {
	store := loadedStore(t)

	report := store.Report()
	assert.Equal(t, 4, report.TotalSchemes)
	assert.Equal(t, 4, report.Valid)
	assert.Zero(t, report.Invalid)
	assert.Empty(t, report.Errors)
	// Missing descriptions surface as warnings.
	assert.NotEmpty(t, report.Warnings)
}

func TestValidationCatchesBadRules(t *testing.T) {
	store := NewStore(writeCatalog(t, `{
	  "schemes": [
	    {"id": "bad-ages", "name": "Bad Ages",
	     "eligibility": {"min_age": 50, "max_age": 20}},
	    {"id": "bad-income", "name": "Bad Income",
	     "eligibility": {"max_income": -100}}
	  ]
	}`))
	assert.NoError(t, store.Load())

	report := store.Report()
	assert.Equal(t, 2, report.Invalid)
	assert.Len(t, report.Errors, 2)
}

func TestBareStringStatesLoadsAsSingleState(t *testing.T) {
	store := NewStore(writeCatalog(t, `{
	  "schemes": [
	    {"id": "bihar-grant", "name": "Bihar Grant",
	     "eligibility": {"states": "Bihar"}}
	  ]
	}`))
	assert.NoError(t, store.Load())

	scheme, ok := store.ByID("bihar-grant")
	assert.True(t, ok)
	assert.True(t, scheme.Eligibility.States.Contains("Bihar"))

	bihar := store.ByState("Bihar")
	assert.Len(t, bihar, 1)
	assert.Equal(t, []string{"bihar"}, store.States())
}

func TestByStateMergesNationwide(t *testing.T) {
	store := loadedStore(t)

	kerala := store.ByState("kerala")
	ids := make([]string, 0, len(kerala))
	for _, s := range kerala {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "pm-kisan")
	assert.Contains(t, ids, "kerala-housing")

	bihar := store.ByState("Bihar")
	for _, s := range bihar {
		assert.NotEqual(t, "kerala-housing", s.ID)
	}
}

func TestCategoryAndTypeIndexes(t *testing.T) {
	store := loadedStore(t)

	assert.Len(t, store.ByCategory("agriculture"), 2)
	assert.Len(t, store.ByCategory("AGRICULTURE"), 2)
	assert.Len(t, store.ByType("state"), 1)
	assert.Equal(t, []string{"agriculture", "housing", "other"}, store.Categories())
	assert.Equal(t, []string{"central", "state"}, store.Types())
	assert.Equal(t, []string{"kerala"}, store.States())
}

func TestReloadKeepsOldDataOnFailure(t *testing.T) {
	path := writeCatalog(t, sampleCatalogJSON)
	store := NewStore(path)
	assert.NoError(t, store.Load())

	assert.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	assert.Error(t, store.Reload())

	assert.True(t, store.IsLoaded())
	assert.Equal(t, 4, store.Count())
}

func TestReloadPicksUpChanges(t *testing.T) {
	path := writeCatalog(t, sampleCatalogJSON)
	store := NewStore(path)
	assert.NoError(t, store.Load())

	assert.NoError(t, os.WriteFile(path, []byte(`{
	  "schemes": [{"id": "only-one", "name": "Only One", "eligibility": {}}]
	}`), 0o644))
	assert.NoError(t, store.Reload())
	assert.Equal(t, 1, store.Count())
}

func TestFilterCriteria(t *testing.T) {
	store := loadedStore(t)

	t.Run("by state and income", func(t *testing.T) {
		income := 280000
		got := store.Filter(FilterCriteria{State: "Kerala", Income: &income})
		ids := make([]string, 0, len(got))
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		// Over the 250000 limit of kerala-housing, under pm-kisan's.
		assert.Contains(t, ids, "pm-kisan")
		assert.NotContains(t, ids, "kerala-housing")
	})

	t.Run("by occupation", func(t *testing.T) {
		got := store.Filter(FilterCriteria{Occupation: "teacher", Category: "agriculture"})
		for _, s := range got {
			assert.Empty(t, s.Eligibility.Occupations)
		}
	})

	t.Run("by url presence", func(t *testing.T) {
		hasURL := true
		got := store.Filter(FilterCriteria{HasURL: &hasURL})
		assert.Len(t, got, 1)
		assert.Equal(t, "pm-kisan", got[0].ID)
	})
}

func TestFilterForProfile(t *testing.T) {
	store := loadedStore(t)

	user := &models.UserProfile{
		Age:          30,
		State:        "Bihar",
		Occupation:   "farmer",
		AnnualIncome: 150000,
	}
	got := store.FilterForProfile(user)
	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "pm-kisan")
	assert.NotContains(t, ids, "kerala-housing")
}

func TestSearchRanksNameMatchesFirst(t *testing.T) {
	store := loadedStore(t)

	results := store.Search("kisan", 10)
	assert.NotEmpty(t, results)
	assert.Equal(t, "pm-kisan", results[0].Scheme.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	assert.Empty(t, store.Search("", 10))
	assert.Empty(t, store.Search("zzzzqqqq", 10))
}

func TestSearchByName(t *testing.T) {
	store := loadedStore(t)

	got := store.SearchByName("kerala housing", 5)
	assert.NotEmpty(t, got)
	assert.Equal(t, "kerala-housing", got[0].ID)
}

func TestFindSimilar(t *testing.T) {
	store := loadedStore(t)

	similar := store.FindSimilar("pm-kisan", 5)
	assert.NotEmpty(t, similar)
	for _, s := range similar {
		assert.NotEqual(t, "pm-kisan", s.ID)
	}

	assert.Nil(t, store.FindSimilar("ghost", 5))
}

func TestStatistics(t *testing.T) {
	store := loadedStore(t)

	stats := store.Statistics()
	assert.Equal(t, 4, stats.TotalSchemes)
	assert.True(t, stats.IsLoaded)
	assert.Equal(t, 2, stats.Categories["agriculture"])
	assert.Equal(t, 3, stats.Types["central"])
	assert.Equal(t, 3, stats.AllIndiaSchemes)
	assert.Equal(t, 1, stats.StateSpecificStates)
	assert.Equal(t, 1, stats.WithAgeLimit)
	assert.Equal(t, 2, stats.WithIncomeLimit)
	assert.Equal(t, 1, stats.WithOccupation)
	assert.Equal(t, 1, stats.BPLSpecific)
	assert.Equal(t, 1, stats.WithURL)

	assert.NotNil(t, stats.LowestIncomeLimit)
	assert.Equal(t, 250000, *stats.LowestIncomeLimit)
	assert.NotNil(t, stats.HighestIncomeLimit)
	assert.Equal(t, 300000, *stats.HighestIncomeLimit)
	assert.NotNil(t, stats.MinAgeAcrossSchemes)
	assert.Equal(t, 18, *stats.MinAgeAcrossSchemes)
}

func TestUniqueOccupations(t *testing.T) {
	store := loadedStore(t)
	assert.Equal(t, []string{"farmer"}, store.UniqueOccupations())
}

func TestExportCSV(t *testing.T) {
	store := loadedStore(t)

	var buf bytes.Buffer
	assert.NoError(t, store.ExportCSV(&buf, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t,
		"id,name,description,category,type,benefits,how_to_apply,url,min_age,max_age,gender,states,max_income,category_eligible,occupation",
		lines[0])
	assert.Contains(t, lines[1], "pm-kisan")
	assert.Contains(t, lines[1], "all")
}

func TestExportJSONRoundTrips(t *testing.T) {
	store := loadedStore(t)

	var buf bytes.Buffer
	assert.NoError(t, store.ExportJSON(&buf, nil))

	reloaded := NewStore("")
	assert.NoError(t, reloaded.LoadBytes(buf.Bytes()))
	assert.Equal(t, store.Count(), reloaded.Count())
}
