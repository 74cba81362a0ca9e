package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/db/dbtest"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/repository"
)

// seedProfiles creates five owners; user 4 is suspended.
//
//	1 male     "Male "   Riyadh
//	2 female   "أنثى"    Jeddah   photo
//	3 female   "femal"   riyadh   no dob
//	4 female   "f"       Riyadh   (suspended owner)
//	5 female   "malq"    Riyadh   (corrupted male)
func seedProfiles(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	for i := uint64(1); i <= 5; i++ {
		status := db.StatusActive
		if i == 4 {
			status = db.StatusSuspended
		}
		dbtest.User(t, gdb, i, status)
	}

	dbtest.Profile(t, gdb, db.Profile{UserID: 1, FirstName: "Omar", Gender: "Male ", City: "Riyadh", DateOfBirth: dbtest.DOB(1995, time.March, 1), MaritalStatus: normalize.SingleMale})
	dbtest.Profile(t, gdb, db.Profile{UserID: 2, FirstName: "Sara", Gender: "أنثى", City: "Jeddah", DateOfBirth: dbtest.DOB(1998, time.June, 10), MaritalStatus: normalize.SingleFemale, PhotoURL: "https://cdn/2.jpg", About: "loves 100% cotton"})
	dbtest.Profile(t, gdb, db.Profile{UserID: 3, FirstName: "Huda", Gender: "femal", City: " riyadh", MaritalStatus: normalize.SingleMale})
	dbtest.Profile(t, gdb, db.Profile{UserID: 4, FirstName: "Mona", Gender: "f", City: "Riyadh", DateOfBirth: dbtest.DOB(1990, time.January, 5), MaritalStatus: normalize.DivorcedFemale})
	dbtest.Profile(t, gdb, db.Profile{UserID: 5, FirstName: "Khaled", Gender: "malq", City: "Riyadh", DateOfBirth: dbtest.DOB(1992, time.July, 7), MaritalStatus: normalize.SingleMale})
}

func femaleFilter() repository.ProfileFilter {
	include, exclude := normalize.GenderFragment(normalize.Female)
	return repository.ProfileFilter{
		GenderIn:       normalize.GenderSpellings(normalize.Female),
		GenderContains: include,
		GenderExcludes: exclude,
	}
}

func ownerIDs(ps []db.Profile) []uint64 {
	out := make([]uint64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.UserID)
	}
	return out
}

func TestFind_GenderSpellingsAndOrder(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	repo := repository.NewProfileRepository(gdb)

	got, err := repo.Find(ctx, femaleFilter(), 0, 10)
	require.NoError(t, err)
	// newest first: CreatedAt grows with user id
	assert.Equal(t, []uint64{4, 3, 2}, ownerIDs(got))

	include, exclude := normalize.GenderFragment(normalize.Male)
	males, err := repo.Find(ctx, repository.ProfileFilter{
		GenderIn:       normalize.GenderSpellings(normalize.Male),
		GenderContains: include,
		GenderExcludes: exclude,
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 1}, ownerIDs(males))

	// tabs and line breaks around a spelling are tolerated like spaces
	for id, gender := range map[uint64]string{6: "f\t", 7: "أنثى\r\n", 8: "m\n", 9: "\tذكر"} {
		dbtest.User(t, gdb, id, db.StatusActive)
		dbtest.Profile(t, gdb, db.Profile{UserID: id, Gender: gender, City: "Riyadh"})
	}

	got, err = repo.Find(ctx, femaleFilter(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7, 6, 4, 3, 2}, ownerIDs(got))

	males, err = repo.Find(ctx, repository.ProfileFilter{
		GenderIn:       normalize.GenderSpellings(normalize.Male),
		GenderContains: include,
		GenderExcludes: exclude,
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{9, 8, 5, 1}, ownerIDs(males))
}

func TestFind_ExactMatchToleratesBlanks(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	dbtest.User(t, gdb, 6, db.StatusActive)
	dbtest.Profile(t, gdb, db.Profile{UserID: 6, Gender: "female", City: "\tJeddah\r\n"})
	repo := repository.NewProfileRepository(gdb)

	f := femaleFilter()
	f.Exact = []repository.FieldMatch{{Column: repository.ColCity, Value: "jeddah"}}
	got, err := repo.Find(ctx, f, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{6, 2}, ownerIDs(got))
}

func TestFind_ActiveOwnersAndCount(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	repo := repository.NewProfileRepository(gdb)

	f := femaleFilter()
	f.ActiveOwnersOnly = true

	got, err := repo.Find(ctx, f, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2}, ownerIDs(got))

	total, err := repo.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// page past the end is empty, count unaffected
	got, err = repo.Find(ctx, f, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFind_DobAndExactMatches(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	repo := repository.NewProfileRepository(gdb)

	f := femaleFilter()
	f.RequireDob = true
	got, err := repo.Find(ctx, f, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 2}, ownerIDs(got))

	f = femaleFilter()
	f.Exact = []repository.FieldMatch{{Column: repository.ColCity, Value: "RIYADH"}}
	got, err = repo.Find(ctx, f, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 3}, ownerIDs(got))

	from := time.Date(1991, time.January, 1, 0, 0, 0, 0, time.UTC)
	f = repository.ProfileFilter{DobFrom: &from, RequireDob: true}
	got, err = repo.Find(ctx, f, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 2, 1}, ownerIDs(got))
}

func TestFind_RejectsUnknownColumn(t *testing.T) {
	gdb := dbtest.Open(t)
	repo := repository.NewProfileRepository(gdb)

	_, err := repo.Find(context.Background(), repository.ProfileFilter{
		Exact: []repository.FieldMatch{{Column: "password_hash", Value: "x"}},
	}, 0, 10)
	assert.Error(t, err)
}

func TestFind_KeywordMaritalPhotoOwners(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	repo := repository.NewProfileRepository(gdb)

	got, err := repo.Find(ctx, repository.ProfileFilter{Keyword: "hud"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, ownerIDs(got))

	// wildcard characters are literal
	got, err = repo.Find(ctx, repository.ProfileFilter{Keyword: "100%"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ownerIDs(got))
	got, err = repo.Find(ctx, repository.ProfileFilter{Keyword: "%"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ownerIDs(got))

	got, err = repo.Find(ctx, repository.ProfileFilter{
		MaritalStatuses: normalize.MaritalStatusEquivalents(normalize.SingleFemale),
	}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 3, 2, 1}, ownerIDs(got))

	got, err = repo.Find(ctx, repository.ProfileFilter{HasPhoto: true}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ownerIDs(got))

	got, err = repo.Find(ctx, repository.ProfileFilter{OwnerIn: []uint64{1, 2, 3}, OwnerNot: 2}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, ownerIDs(got))
}

func TestFind_MatchNothing(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	repo := repository.NewProfileRepository(gdb)

	got, err := repo.Find(ctx, repository.ProfileFilter{MatchNothing: true}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := repo.Count(ctx, repository.ProfileFilter{MatchNothing: true})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateIfAbsent_Idempotent(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	dbtest.User(t, gdb, 1, db.StatusActive)
	repo := repository.NewProfileRepository(gdb)

	first, created, err := repo.CreateIfAbsent(ctx, &db.Profile{UserID: 1, FirstName: "Ali"})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIfAbsent(ctx, &db.Profile{UserID: 1, FirstName: "Other"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ali", second.FirstName)
}

func TestUpdateFields(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	dbtest.User(t, gdb, 1, db.StatusActive)
	repo := repository.NewProfileRepository(gdb)
	_, _, err := repo.CreateIfAbsent(ctx, &db.Profile{UserID: 1, City: "Riyadh"})
	require.NoError(t, err)

	p, err := repo.UpdateFields(ctx, 1, map[string]any{"city": "Jeddah", "gender": "female"})
	require.NoError(t, err)
	assert.Equal(t, "Jeddah", p.City)
	assert.Equal(t, "female", p.Gender)

	// same values again: no rows change but the profile exists
	_, err = repo.UpdateFields(ctx, 1, map[string]any{"city": "Jeddah"})
	require.NoError(t, err)

	_, err = repo.UpdateFields(ctx, 99, map[string]any{"city": "Jeddah"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEachBatch(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	seedProfiles(t, gdb)
	repo := repository.NewProfileRepository(gdb)

	var seen []uint64
	var batches int
	err := repo.EachBatch(ctx, 2, func(ps []db.Profile) error {
		batches++
		seen = append(seen, ownerIDs(ps)...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, batches)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)
}
