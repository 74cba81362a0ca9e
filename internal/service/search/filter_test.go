package search

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/repository"
	"github.com/oggyb/mawaddah/internal/utils/agerange"
)

func ip(v int) *int { return &v }

func TestBuildFilter_AlwaysPresentClauses(t *testing.T) {
	asOf := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	dob := agerange.ToBirthDateRange(ip(25), ip(35), asOf)

	f, notices := BuildFilter(normalize.Female, Criteria{MinAge: ip(25), MaxAge: ip(35)}, dob, Owners{CallerID: 7})
	assert.Empty(t, notices)

	assert.ElementsMatch(t, []string{"female", "f", "أنثى", "أنثي"}, f.GenderIn)
	assert.Equal(t, "fem", f.GenderContains)
	assert.Empty(t, f.GenderExcludes)
	assert.True(t, f.RequireDob)
	require.NotNil(t, f.DobFrom)
	require.NotNil(t, f.DobTo)
	assert.Equal(t, uint64(7), f.OwnerNot)
	assert.True(t, f.ActiveOwnersOnly)
	assert.Empty(t, f.Exact)
	assert.Nil(t, f.OwnerIn)
	assert.False(t, f.MatchNothing)
}

func TestBuildFilter_MaleTargetExcludesFem(t *testing.T) {
	f, _ := BuildFilter(normalize.Male, Criteria{}, agerange.Range{}, Owners{})
	assert.Equal(t, "mal", f.GenderContains)
	assert.Equal(t, "fem", f.GenderExcludes)
	assert.False(t, f.RequireDob)
}

func TestBuildFilter_OptionalClauses(t *testing.T) {
	c := Criteria{
		City:               " Riyadh ",
		Nationality:        "ALL",
		Education:          "",
		Occupation:         "طبيب",
		CompatibilityTest:  "نعم",
		MinHeight:          ip(160),
		HasPhoto:           true,
		Keyword:            "  sara ",
		PolygamyAcceptance: "all",
	}
	f, _ := BuildFilter(normalize.Female, c, agerange.Range{}, Owners{CallerID: 1})

	assert.Equal(t, []repository.FieldMatch{
		{Column: repository.ColCity, Value: "Riyadh"},
		{Column: repository.ColOccupation, Value: "طبيب"},
		{Column: repository.ColCompatibilityTest, Value: "نعم"},
	}, f.Exact)
	assert.Equal(t, 160, *f.MinHeight)
	assert.Nil(t, f.MaxHeight)
	assert.True(t, f.HasPhoto)
	assert.Equal(t, "sara", f.Keyword)
}

func TestBuildFilter_MaritalStatus(t *testing.T) {
	// wrong-gender spelling is mapped for the target, then both spellings match
	f, notices := BuildFilter(normalize.Female, Criteria{MaritalStatus: normalize.DivorcedMale}, agerange.Range{}, Owners{})
	assert.Empty(t, notices)
	assert.ElementsMatch(t, []string{normalize.DivorcedFemale, normalize.DivorcedMale}, f.MaritalStatuses)

	f, _ = BuildFilter(normalize.Male, Criteria{MaritalStatus: normalize.SeparatedNoDivorce}, agerange.Range{}, Owners{})
	assert.Equal(t, []string{normalize.SeparatedNoDivorce}, f.MaritalStatuses)

	f, notices = BuildFilter(normalize.Male, Criteria{MaritalStatus: "married"}, agerange.Range{}, Owners{})
	assert.Nil(t, f.MaritalStatuses)
	require.Len(t, notices, 1)
	assert.Equal(t, "maritalStatus", notices[0].Field)

	f, notices = BuildFilter(normalize.Male, Criteria{MaritalStatus: "All"}, agerange.Range{}, Owners{})
	assert.Nil(t, f.MaritalStatuses)
	assert.Empty(t, notices)
}

func TestBuildFilter_MemberLookup(t *testing.T) {
	f, _ := BuildFilter(normalize.Female, Criteria{}, agerange.Range{}, Owners{CallerID: 1, MemberLookup: true})
	assert.True(t, f.MatchNothing)

	f, _ = BuildFilter(normalize.Female, Criteria{}, agerange.Range{}, Owners{CallerID: 1, MemberLookup: true, Members: []uint64{4}})
	assert.False(t, f.MatchNothing)
	assert.Equal(t, []uint64{4}, f.OwnerIn)
	assert.Equal(t, uint64(1), f.OwnerNot)
}

func TestParseCriteria(t *testing.T) {
	q := url.Values{}
	q.Set("minAge", "25")
	q.Set("maxAge", "all")
	q.Set("city", "Riyadh")
	q.Set("hasPhoto", "true")
	q.Set("memberId", "MAW-000002")
	q.Set("page", "2")
	q.Set("per_page", "10")
	q.Set("gender", " F ")

	c, err := ParseCriteria(q.Get)
	require.NoError(t, err)
	assert.Equal(t, 25, *c.MinAge)
	assert.Nil(t, c.MaxAge)
	assert.Equal(t, "Riyadh", c.City)
	assert.True(t, c.HasPhoto)
	assert.Equal(t, "MAW-000002", c.MemberID)
	assert.Equal(t, 2, c.Page)
	assert.Equal(t, 10, c.PerPage)
	assert.Equal(t, " F ", c.Gender)
	require.NoError(t, c.Validate())
	assert.NoError(t, c.checkGenderOverride(normalize.Female))
	assert.ErrorIs(t, c.checkGenderOverride(normalize.Male), ErrGenderMismatch)

	c.Gender = "all"
	assert.NoError(t, c.checkGenderOverride(normalize.Male))
	c.Gender = "other"
	assert.ErrorIs(t, c.Validate(), ErrGenderInvalid)

	q.Set("minAge", "twenty")
	_, err = ParseCriteria(q.Get)
	assert.Error(t, err)

	q.Set("minAge", "25")
	q.Set("hasPhoto", "maybe")
	_, err = ParseCriteria(q.Get)
	assert.Error(t, err)
}

func TestOwnerIDs_DistinctWithoutCaller(t *testing.T) {
	ps := []db.Profile{{UserID: 4}, {UserID: 1}, {UserID: 4}, {UserID: 0}, {UserID: 2}}
	assert.Equal(t, []uint64{4, 2}, ownerIDs(ps, 1))
	assert.Empty(t, ownerIDs(nil, 1))
}
