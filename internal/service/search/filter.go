package search

import (
	"fmt"
	"strconv"
	"strings"

	svcErr "github.com/oggyb/mawaddah/internal/errors"
	"github.com/oggyb/mawaddah/internal/normalize"
	"github.com/oggyb/mawaddah/internal/repository"
	"github.com/oggyb/mawaddah/internal/utils/agerange"
)

const (
	MinAge = 18
	MaxAge = 80

	minHeight = 100
	maxHeight = 250
)

// Criteria is what a caller may filter on. The target gender is always
// derived from the caller's own profile; Gender may only restate it and is
// rejected when it is unrecognized or names any other gender.
//
// String fields treat "" and "all" (any case) as not supplied.
type Criteria struct {
	MinAge    *int `json:"minAge,omitempty"`
	MaxAge    *int `json:"maxAge,omitempty"`
	MinHeight *int `json:"minHeight,omitempty"`
	MaxHeight *int `json:"maxHeight,omitempty"`

	Gender string `json:"gender,omitempty"`

	City               string `json:"city,omitempty"`
	Nationality        string `json:"nationality,omitempty"`
	CountryOfResidence string `json:"countryOfResidence,omitempty"`
	Education          string `json:"education,omitempty"`
	Occupation         string `json:"occupation,omitempty"`
	Religion           string `json:"religion,omitempty"`
	ReligiosityLevel   string `json:"religiosityLevel,omitempty"`
	MaritalStatus      string `json:"maritalStatus,omitempty"`
	MarriageType       string `json:"marriageType,omitempty"`
	PolygamyAcceptance string `json:"polygamyAcceptance,omitempty"`
	CompatibilityTest  string `json:"compatibilityTest,omitempty"`

	HasPhoto bool   `json:"hasPhoto,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	MemberID string `json:"memberId,omitempty"`

	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
}

// Validate checks bounds before any store access.
func (c Criteria) Validate() error {
	if c.MinAge == nil && c.MaxAge == nil {
		return ErrAgeBoundRequired
	}
	for _, a := range []*int{c.MinAge, c.MaxAge} {
		if a != nil && (*a < MinAge || *a > MaxAge) {
			return svcErr.InvalidArgument(fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
		}
	}
	if c.MinAge != nil && c.MaxAge != nil && *c.MinAge > *c.MaxAge {
		return svcErr.InvalidArgument("minAge must not exceed maxAge")
	}

	for _, h := range []*int{c.MinHeight, c.MaxHeight} {
		if h != nil && (*h < minHeight || *h > maxHeight) {
			return svcErr.InvalidArgument(fmt.Sprintf("height must be between %d and %d", minHeight, maxHeight))
		}
	}
	if c.MinHeight != nil && c.MaxHeight != nil && *c.MinHeight > *c.MaxHeight {
		return svcErr.InvalidArgument("minHeight must not exceed maxHeight")
	}

	if g, ok := supplied(c.Gender); ok {
		if _, known := normalize.ParseGender(g); !known {
			return ErrGenderInvalid
		}
	}

	if c.Page < 0 || c.PerPage < 0 {
		return svcErr.InvalidArgument("page and per_page must be positive")
	}
	return nil
}

// ParseCriteria reads criteria from string-valued parameters, the way both
// the query string and the gRPC struct arrive.
func ParseCriteria(get func(key string) string) (Criteria, error) {
	var (
		c   Criteria
		err error
	)

	ints := []struct {
		key string
		dst **int
	}{
		{"minAge", &c.MinAge},
		{"maxAge", &c.MaxAge},
		{"minHeight", &c.MinHeight},
		{"maxHeight", &c.MaxHeight},
	}
	for _, f := range ints {
		if *f.dst, err = optionalInt(f.key, get(f.key)); err != nil {
			return Criteria{}, err
		}
	}

	c.Gender = get("gender")
	c.City = get("city")
	c.Nationality = get("nationality")
	c.CountryOfResidence = get("countryOfResidence")
	c.Education = get("education")
	c.Occupation = get("occupation")
	c.Religion = get("religion")
	c.ReligiosityLevel = get("religiosityLevel")
	c.MaritalStatus = get("maritalStatus")
	c.MarriageType = get("marriageType")
	c.PolygamyAcceptance = get("polygamyAcceptance")
	c.CompatibilityTest = get("compatibilityTest")
	c.Keyword = get("keyword")
	c.MemberID = get("memberId")

	switch v := strings.ToLower(strings.TrimSpace(get("hasPhoto"))); v {
	case "", "false", "0", "all":
	case "true", "1":
		c.HasPhoto = true
	default:
		return Criteria{}, svcErr.InvalidArgument("hasPhoto must be true or false")
	}

	for key, dst := range map[string]*int{"page": &c.Page, "per_page": &c.PerPage} {
		n, err := optionalInt(key, get(key))
		if err != nil {
			return Criteria{}, err
		}
		if n != nil {
			*dst = *n
		}
	}
	return c, nil
}

func optionalInt(key, raw string) (*int, error) {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "all") {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, svcErr.InvalidArgument(key + " must be a number")
	}
	return &n, nil
}

// checkGenderOverride rejects an explicit gender that differs from target.
func (c Criteria) checkGenderOverride(target normalize.Gender) error {
	g, ok := supplied(c.Gender)
	if !ok {
		return nil
	}
	if parsed, _ := normalize.ParseGender(g); parsed != target {
		return ErrGenderMismatch
	}
	return nil
}

// Notice is a non-fatal remark about how the criteria were applied.
type Notice struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Owners scopes which users' profiles may match.
type Owners struct {
	// CallerID is always excluded.
	CallerID uint64
	// MemberLookup is set when the criteria named a member id; Members then
	// holds the resolved user ids, caller removed.
	MemberLookup bool
	Members      []uint64
}

// BuildFilter assembles the store filter for a caller searching target.
// It is a pure function of its inputs.
//
// An invalid marital status for target is dropped with a Notice rather than
// applied. A member lookup that resolved to nobody yields MatchNothing.
func BuildFilter(target normalize.Gender, c Criteria, dob agerange.Range, owners Owners) (repository.ProfileFilter, []Notice) {
	include, exclude := normalize.GenderFragment(target)
	f := repository.ProfileFilter{
		GenderIn:         normalize.GenderSpellings(target),
		GenderContains:   include,
		GenderExcludes:   exclude,
		DobFrom:          dob.From,
		DobTo:            dob.To,
		RequireDob:       dob.Bounded(),
		MinHeight:        c.MinHeight,
		MaxHeight:        c.MaxHeight,
		HasPhoto:         c.HasPhoto,
		OwnerNot:         owners.CallerID,
		ActiveOwnersOnly: true,
	}
	var notices []Notice

	exact := []struct {
		col string
		val string
	}{
		{repository.ColCity, c.City},
		{repository.ColNationality, c.Nationality},
		{repository.ColEducation, c.Education},
		{repository.ColOccupation, c.Occupation},
		{repository.ColReligion, c.Religion},
		{repository.ColReligiosityLevel, c.ReligiosityLevel},
		{repository.ColCountryOfResidence, c.CountryOfResidence},
		{repository.ColMarriageType, c.MarriageType},
		{repository.ColPolygamyAcceptance, c.PolygamyAcceptance},
		{repository.ColCompatibilityTest, c.CompatibilityTest},
	}
	for _, e := range exact {
		if v, ok := supplied(e.val); ok {
			f.Exact = append(f.Exact, repository.FieldMatch{Column: e.col, Value: v})
		}
	}

	if v, ok := supplied(c.MaritalStatus); ok {
		status := normalize.MaritalStatus(v, target)
		if normalize.IsValidMaritalStatus(status, target) {
			f.MaritalStatuses = normalize.MaritalStatusEquivalents(status)
		} else {
			notices = append(notices, Notice{
				Field:  "maritalStatus",
				Reason: fmt.Sprintf("%q is not a valid status for %s profiles; filter ignored", v, target),
			})
		}
	}

	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		f.Keyword = kw
	}

	if owners.MemberLookup {
		if len(owners.Members) == 0 {
			return repository.ProfileFilter{MatchNothing: true}, notices
		}
		f.OwnerIn = owners.Members
	}

	return f, notices
}

func supplied(v string) (string, bool) {
	s := strings.TrimSpace(v)
	if s == "" || strings.EqualFold(s, "all") {
		return "", false
	}
	return s, true
}
