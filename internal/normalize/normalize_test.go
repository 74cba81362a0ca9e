package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/mawaddah/internal/normalize"
)

// allMaritalStatuses is the union of both genders' canonical statuses.
func allMaritalStatuses() []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range []normalize.Gender{normalize.Female, normalize.Male} {
		for _, s := range normalize.ValidMaritalStatuses(g) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func TestParseGender(t *testing.T) {
	cases := []struct {
		raw  string
		want normalize.Gender
		ok   bool
	}{
		{"male", normalize.Male, true},
		{" Male ", normalize.Male, true},
		{"M", normalize.Male, true},
		{"malq", normalize.Male, true},
		{"MALE\t", normalize.Male, true},
		{"ذكر", normalize.Male, true},
		{" ذكور ", normalize.Male, true},
		{"female", normalize.Female, true},
		{"FEMALE", normalize.Female, true},
		{"f", normalize.Female, true},
		{"femal", normalize.Female, true},
		{"أنثى", normalize.Female, true},
		{"أنثي", normalize.Female, true},
		{"", "", false},
		{"   ", "", false},
		{"unknown", "", false},
		{"x", "", false},
		{"ma", "", false},
	}
	for _, tc := range cases {
		got, ok := normalize.ParseGender(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got, "raw=%q", tc.raw)
	}
}

func TestGenderSpellingsNormalizeBack(t *testing.T) {
	for _, g := range []normalize.Gender{normalize.Male, normalize.Female} {
		for _, s := range normalize.GenderSpellings(g) {
			got, ok := normalize.ParseGender(s)
			require.True(t, ok, s)
			assert.Equal(t, g, got, s)
		}
	}
}

func TestTargetGenderFor(t *testing.T) {
	g, err := normalize.TargetGenderFor("ذكر")
	require.NoError(t, err)
	assert.Equal(t, normalize.Female, g)

	g, err = normalize.TargetGenderFor("Female ")
	require.NoError(t, err)
	assert.Equal(t, normalize.Male, g)

	_, err = normalize.TargetGenderFor("")
	assert.ErrorIs(t, err, normalize.ErrUnknownGender)

	_, err = normalize.TargetGenderFor("other")
	assert.ErrorIs(t, err, normalize.ErrUnknownGender)
}

func TestMaritalStatus_GenderedSpellings(t *testing.T) {
	assert.Equal(t, normalize.SingleFemale, normalize.MaritalStatus(normalize.SingleMale, normalize.Female))
	assert.Equal(t, normalize.SingleMale, normalize.MaritalStatus(normalize.SingleFemale, normalize.Male))
	assert.Equal(t, normalize.DivorcedFemale, normalize.MaritalStatus(normalize.DivorcedMale, normalize.Female))
	assert.Equal(t, normalize.WidowedMale, normalize.MaritalStatus(normalize.WidowedFemale, normalize.Male))
	assert.Equal(t, normalize.DivorcedMale, normalize.MaritalStatus(" "+normalize.DivorcedMale+" ", normalize.Male))
}

func TestMaritalStatus_NeutralAndUnmapped(t *testing.T) {
	for _, s := range []string{
		normalize.DivorcedWithChildren,
		normalize.DivorcedNoChildren,
		normalize.SeparatedNoDivorce,
		normalize.WidowedWithChildren,
	} {
		assert.Equal(t, s, normalize.MaritalStatus(s, normalize.Female))
		assert.Equal(t, s, normalize.MaritalStatus(s, normalize.Male))
	}
	assert.Equal(t, "متزوج", normalize.MaritalStatus("متزوج", normalize.Male))
	assert.Equal(t, "", normalize.MaritalStatus("  ", normalize.Male))
}

func TestMaritalStatus_Idempotent(t *testing.T) {
	inputs := append(allMaritalStatuses(), "", "unknown", "متزوج")
	for _, g := range []normalize.Gender{normalize.Male, normalize.Female} {
		for _, s := range inputs {
			once := normalize.MaritalStatus(s, g)
			assert.Equal(t, once, normalize.MaritalStatus(once, g), "status=%q gender=%s", s, g)
		}
	}
}

func TestMaritalStatus_NeverInvalidWhenMapped(t *testing.T) {
	for _, g := range []normalize.Gender{normalize.Male, normalize.Female} {
		for _, s := range allMaritalStatuses() {
			assert.True(t, normalize.IsValidMaritalStatus(normalize.MaritalStatus(s, g), g), "status=%q gender=%s", s, g)
		}
	}
}

func TestValidMaritalStatuses(t *testing.T) {
	female := normalize.ValidMaritalStatuses(normalize.Female)
	male := normalize.ValidMaritalStatuses(normalize.Male)

	require.Len(t, female, 8)
	require.Len(t, male, 8)
	assert.Equal(t, normalize.SingleFemale, female[0])
	assert.Equal(t, normalize.SingleMale, male[0])
	assert.Equal(t, female[3:], male[3:], "compound statuses are shared verbatim")

	// callers must not be able to mutate the canonical table
	female[0] = "x"
	assert.Equal(t, normalize.SingleFemale, normalize.ValidMaritalStatuses(normalize.Female)[0])
}

func TestIsValidMaritalStatus(t *testing.T) {
	assert.True(t, normalize.IsValidMaritalStatus(normalize.SingleFemale, normalize.Female))
	assert.False(t, normalize.IsValidMaritalStatus(normalize.SingleMale, normalize.Female))
	assert.True(t, normalize.IsValidMaritalStatus(normalize.SeparatedNoDivorce, normalize.Female))
	assert.False(t, normalize.IsValidMaritalStatus("", normalize.Male))
	assert.False(t, normalize.IsValidMaritalStatus(normalize.SingleMale, ""))
}

func TestMaritalStatusEquivalents(t *testing.T) {
	assert.ElementsMatch(t, []string{normalize.SingleFemale, normalize.SingleMale}, normalize.MaritalStatusEquivalents(normalize.SingleMale))
	assert.ElementsMatch(t, []string{normalize.WidowedFemale, normalize.WidowedMale}, normalize.MaritalStatusEquivalents(normalize.WidowedFemale))
	assert.Equal(t, []string{normalize.DivorcedWithChildren}, normalize.MaritalStatusEquivalents(normalize.DivorcedWithChildren))
	assert.Nil(t, normalize.MaritalStatusEquivalents(""))
}
