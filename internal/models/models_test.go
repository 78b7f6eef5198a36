package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriStateUnmarshalVariants(t *testing.T) {
	cases := []struct {
		name string
		json string
		want TriState
	}{
		{"boolean true", `true`, TriStateTrue},
		{"boolean false", `false`, TriStateFalse},
		{"string true", `"true"`, TriStateTrue},
		{"string yes", `"Yes"`, TriStateTrue},
		{"string one", `"1"`, TriStateTrue},
		{"string no", `"no"`, TriStateFalse},
		{"number one", `1`, TriStateTrue},
		{"number zero", `0`, TriStateFalse},
		{"null", `null`, TriStateUnset},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ts TriState
			assert.NoError(t, json.Unmarshal([]byte(tc.json), &ts))
			assert.Equal(t, tc.want, ts)
		})
	}
}

func TestTriStateMarshal(t *testing.T) {
	data, err := json.Marshal(TriStateUnset)
	assert.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(TriStateTrue)
	assert.NoError(t, err)
	assert.Equal(t, "true", string(data))
}

func TestStateListUnmarshal(t *testing.T) {
	t.Run("all literal", func(t *testing.T) {
		var s StateList
		assert.NoError(t, json.Unmarshal([]byte(`"all"`), &s))
		assert.True(t, s.All)
		assert.Empty(t, s.Names)
	})

	t.Run("state list", func(t *testing.T) {
		var s StateList
		assert.NoError(t, json.Unmarshal([]byte(`["Bihar", "Kerala"]`), &s))
		assert.False(t, s.All)
		assert.Equal(t, []string{"Bihar", "Kerala"}, s.Names)
	})

	t.Run("bare state name", func(t *testing.T) {
		var rule EligibilityRule
		assert.NoError(t, json.Unmarshal([]byte(`{"states": "Bihar"}`), &rule))
		assert.False(t, rule.States.All)
		assert.Equal(t, []string{"Bihar"}, rule.States.Names)
		assert.True(t, rule.States.Contains("Bihar"))
		assert.False(t, rule.States.Contains("Kerala"))
	})

	t.Run("empty string", func(t *testing.T) {
		var s StateList
		assert.NoError(t, json.Unmarshal([]byte(`""`), &s))
		assert.False(t, s.All)
		assert.Empty(t, s.Names)
	})
}

func TestStateListContains(t *testing.T) {
	assert.True(t, AllStates().Contains("Anywhere"))
	assert.True(t, States("Bihar", "Kerala").Contains("bihar"))
	assert.False(t, States("Bihar").Contains("Kerala"))

	var nilList *StateList
	assert.False(t, nilList.Contains("Bihar"))
}

func TestEligibilityRuleUnmarshal(t *testing.T) {
	raw := `{
	  "min_age": 18,
	  "gender": "female",
	  "states": ["Bihar"],
	  "category": ["SC", "ST"],
	  "max_income": 250000,
	  "occupation": ["farmer"],
	  "is_bpl": "yes"
	}`

	var rule EligibilityRule
	assert.NoError(t, json.Unmarshal([]byte(raw), &rule))

	assert.Equal(t, 18, *rule.MinAge)
	assert.Nil(t, rule.MaxAge)
	assert.Equal(t, GenderFemale, rule.Gender)
	assert.Equal(t, []string{"Bihar"}, rule.States.Names)
	assert.True(t, rule.HasCategory("sc"))
	assert.True(t, rule.HasOccupation("FARMER"))
	assert.Equal(t, TriStateTrue, rule.IsBPL)
	assert.Equal(t, TriStateUnset, rule.IsFarmer)
}

func TestEligibilityRuleCloneIsIndependent(t *testing.T) {
	original := EligibilityRule{
		MinAge:     IntPtr(18),
		States:     States("Bihar"),
		Categories: []string{"sc"},
	}

	clone := original.Clone()
	*clone.MinAge = 99
	clone.States.Names[0] = "Kerala"
	clone.Categories[0] = "general"

	assert.Equal(t, 18, *original.MinAge)
	assert.Equal(t, "Bihar", original.States.Names[0])
	assert.Equal(t, "sc", original.Categories[0])
}

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score int
		want  MatchTier
	}{
		{100, MatchTierPerfect},
		{90, MatchTierPerfect},
		{89, MatchTierStrong},
		{75, MatchTierStrong},
		{74, MatchTierModerate},
		{50, MatchTierModerate},
		{49, MatchTierPartial},
		{0, MatchTierPartial},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierForScore(tc.score), "score %d", tc.score)
	}

	assert.Less(t, MatchTierPerfect.Rank(), MatchTierStrong.Rank())
	assert.Less(t, MatchTierStrong.Rank(), MatchTierModerate.Rank())
	assert.Less(t, MatchTierModerate.Rank(), MatchTierPartial.Rank())
}

func TestNormalizeGender(t *testing.T) {
	cases := map[string]Gender{
		"Male":   GenderMale,
		"m":      GenderMale,
		"WOMEN":  GenderFemale,
		"f":      GenderFemale,
		"any":    GenderAll,
		"trans":  GenderTransgender,
		"martian": Gender("martian"),
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeGender(input), "input %q", input)
	}
}

func TestParseFlexBool(t *testing.T) {
	assert.True(t, ParseFlexBool("true"))
	assert.True(t, ParseFlexBool(" YES "))
	assert.True(t, ParseFlexBool("1"))
	assert.False(t, ParseFlexBool("0"))
	assert.False(t, ParseFlexBool("nope"))
	assert.False(t, ParseFlexBool(""))
}

func TestSafeInt(t *testing.T) {
	assert.Equal(t, 42, SafeInt("42", 0))
	assert.Equal(t, 42, SafeInt(" 42 ", 0))
	assert.Equal(t, 3, SafeInt("3.7", 0))
	assert.Equal(t, 7, SafeInt("", 7))
	assert.Equal(t, 7, SafeInt("abc", 7))
}

func TestProvidedKeyFields(t *testing.T) {
	assert.Zero(t, (&UserProfile{}).ProvidedKeyFields())

	full := &UserProfile{
		Age: 30, Gender: "male", State: "Bihar",
		Category: "obc", AnnualIncome: 100000, Occupation: "farmer",
	}
	assert.Equal(t, 6, full.ProvidedKeyFields())

	partial := &UserProfile{Age: 30, State: "Bihar"}
	assert.Equal(t, 2, partial.ProvidedKeyFields())
}
