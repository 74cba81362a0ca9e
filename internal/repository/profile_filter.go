package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/mawaddah/internal/db"
)

// Profile columns that accept exact, case-insensitive matching.
const (
	ColCity               = "city"
	ColNationality        = "nationality"
	ColCountryOfResidence = "country_of_residence"
	ColEducation          = "education"
	ColOccupation         = "occupation"
	ColReligion           = "religion"
	ColReligiosityLevel   = "religiosity_level"
	ColMarriageType       = "marriage_type"
	ColPolygamyAcceptance = "polygamy_acceptance"
	ColCompatibilityTest  = "compatibility_test"
)

var exactColumns = map[string]bool{
	ColCity:               true,
	ColNationality:        true,
	ColCountryOfResidence: true,
	ColEducation:          true,
	ColOccupation:         true,
	ColReligion:           true,
	ColReligiosityLevel:   true,
	ColMarriageType:       true,
	ColPolygamyAcceptance: true,
	ColCompatibilityTest:  true,
}

// keyword search spans these columns
var keywordColumns = []string{"first_name", "last_name", "about", "city", "nationality"}

// FieldMatch is an exact, case-insensitive equality on one column.
type FieldMatch struct {
	Column string
	Value  string
}

// ProfileFilter is the store-neutral description of a candidate query.
// It is built by the search package and only turned into SQL here.
type ProfileFilter struct {
	// Gender: trimmed, lower-cased value in GenderIn, or containing
	// GenderContains but not GenderExcludes.
	GenderIn       []string
	GenderContains string
	GenderExcludes string

	DobFrom    *time.Time
	DobTo      *time.Time
	RequireDob bool

	Exact []FieldMatch

	MinHeight *int
	MaxHeight *int

	MaritalStatuses []string
	HasPhoto        bool
	Keyword         string

	OwnerIn  []uint64
	OwnerNot uint64

	// ActiveOwnersOnly restricts matches to profiles whose user is active.
	ActiveOwnersOnly bool

	// MatchNothing short-circuits every query to an empty result.
	MatchNothing bool
}

// scope turns the filter into gorm clauses on the profiles table.
func (f ProfileFilter) scope(conn *gorm.DB) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if len(f.GenderIn) > 0 || f.GenderContains != "" {
			q = q.Where(genderClause(conn, f))
		}

		if f.RequireDob {
			q = q.Where("date_of_birth IS NOT NULL")
		}
		if f.DobFrom != nil {
			q = q.Where("date_of_birth >= ?", *f.DobFrom)
		}
		if f.DobTo != nil {
			q = q.Where("date_of_birth <= ?", *f.DobTo)
		}

		for _, m := range f.Exact {
			if !exactColumns[m.Column] {
				q.AddError(fmt.Errorf("column %q is not filterable", m.Column))
				continue
			}
			q = q.Where(fmt.Sprintf("LOWER(%s) = LOWER(?)", trimmed(m.Column)), append(blankArgs(), strings.TrimSpace(m.Value))...)
		}

		if f.MinHeight != nil {
			q = q.Where("height >= ?", *f.MinHeight)
		}
		if f.MaxHeight != nil {
			q = q.Where("height <= ?", *f.MaxHeight)
		}

		if len(f.MaritalStatuses) > 0 {
			q = q.Where("TRIM(marital_status) IN ?", f.MaritalStatuses)
		}

		if f.HasPhoto {
			q = q.Where("photo_url IS NOT NULL AND photo_url <> ''")
		}

		if kw := strings.TrimSpace(f.Keyword); kw != "" {
			pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
			or := conn.Where(fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '!'", keywordColumns[0]), pattern)
			for _, col := range keywordColumns[1:] {
				or = or.Or(fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '!'", col), pattern)
			}
			q = q.Where(or)
		}

		if len(f.OwnerIn) > 0 {
			q = q.Where("user_id IN ?", f.OwnerIn)
		}
		if f.OwnerNot != 0 {
			q = q.Where("user_id <> ?", f.OwnerNot)
		}

		if f.ActiveOwnersOnly {
			active := conn.Model(&db.User{}).Select("id").Where("status = ?", db.StatusActive)
			q = q.Where("user_id IN (?)", active)
		}

		return q
	}
}

func genderClause(conn *gorm.DB, f ProfileFilter) *gorm.DB {
	var clause *gorm.DB
	if len(f.GenderIn) > 0 {
		clause = conn.Where("LOWER("+trimmed("gender")+") IN ?", append(blankArgs(), f.GenderIn)...)
	}
	if f.GenderContains != "" {
		frag := conn.Where("LOWER(gender) LIKE ?", "%"+f.GenderContains+"%")
		if f.GenderExcludes != "" {
			frag = frag.Where("LOWER(gender) NOT LIKE ?", "%"+f.GenderExcludes+"%")
		}
		if clause == nil {
			clause = frag
		} else {
			clause = clause.Or(frag)
		}
	}
	return clause
}

// blanks are the ASCII whitespace characters SQL TRIM leaves alone.
var blanks = []string{"\t", "\n", "\v", "\f", "\r"}

// trimmed wraps column in an expression that turns every blank into a
// space and then trims, so leading and trailing tabs or line breaks are
// dropped the way strings.TrimSpace drops them. The replacements are bind
// parameters since control-character literals differ across dialects.
// Arguments come from blankArgs, in order, ahead of any other bind values.
func trimmed(column string) string {
	expr := column
	for range blanks {
		expr = "REPLACE(" + expr + ", ?, ' ')"
	}
	return "TRIM(" + expr + ")"
}

func blankArgs() []any {
	args := make([]any, 0, len(blanks)+1)
	for _, b := range blanks {
		args = append(args, b)
	}
	return args
}

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
