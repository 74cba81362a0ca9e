package normalize

import "strings"

// Bare statuses are grammatically gendered; compound statuses are shared.
const (
	SingleFemale   = "عزباء"
	SingleMale     = "أعزب"
	DivorcedFemale = "مطلقة"
	DivorcedMale   = "مطلق"
	WidowedFemale  = "أرملة"
	WidowedMale    = "أرمل"

	DivorcedNoChildren   = "مطلق - بدون أولاد"
	DivorcedWithChildren = "مطلق - مع أولاد"
	SeparatedNoDivorce   = "منفصل بدون طلاق"
	WidowedNoChildren    = "أرمل - بدون أولاد"
	WidowedWithChildren  = "أرمل - مع أولاد"
)

var sharedStatuses = []string{
	DivorcedNoChildren,
	DivorcedWithChildren,
	SeparatedNoDivorce,
	WidowedNoChildren,
	WidowedWithChildren,
}

var (
	femaleStatuses = append([]string{SingleFemale, DivorcedFemale, WidowedFemale}, sharedStatuses...)
	maleStatuses   = append([]string{SingleMale, DivorcedMale, WidowedMale}, sharedStatuses...)
)

// qualifiers that make a status gender-neutral by convention
var neutralMarkers = []string{"بدون أولاد", "مع أولاد", "منفصل"}

type spelling struct {
	female string
	male   string
}

// keyed by both spellings
var bareStatuses = map[string]spelling{
	SingleFemale:   {female: SingleFemale, male: SingleMale},
	SingleMale:     {female: SingleFemale, male: SingleMale},
	DivorcedFemale: {female: DivorcedFemale, male: DivorcedMale},
	DivorcedMale:   {female: DivorcedFemale, male: DivorcedMale},
	WidowedFemale:  {female: WidowedFemale, male: WidowedMale},
	WidowedMale:    {female: WidowedFemale, male: WidowedMale},
}

// ValidMaritalStatuses returns the canonical statuses for g, in display order.
func ValidMaritalStatuses(g Gender) []string {
	src := maleStatuses
	if g == Female {
		src = femaleStatuses
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// MaritalStatus re-emits status in the spelling valid for g. Qualified
// (children / separation) statuses and unmapped values pass through
// unchanged. Empty input yields "".
func MaritalStatus(status string, g Gender) string {
	s := strings.TrimSpace(status)
	if s == "" {
		return ""
	}
	if isNeutral(s) {
		return s
	}
	if sp, ok := bareStatuses[s]; ok {
		if g == Female {
			return sp.female
		}
		return sp.male
	}
	return s
}

// IsValidMaritalStatus reports whether status is canonical for g.
func IsValidMaritalStatus(status string, g Gender) bool {
	if !g.Valid() {
		return false
	}
	src := maleStatuses
	if g == Female {
		src = femaleStatuses
	}
	for _, v := range src {
		if v == status {
			return true
		}
	}
	return false
}

// MaritalStatusEquivalents lists every stored spelling that normalizes to the
// same canonical status as status: both gendered spellings for bare
// statuses, the value itself otherwise.
func MaritalStatusEquivalents(status string) []string {
	s := strings.TrimSpace(status)
	if s == "" {
		return nil
	}
	if !isNeutral(s) {
		if sp, ok := bareStatuses[s]; ok {
			return []string{sp.female, sp.male}
		}
	}
	return []string{s}
}

func isNeutral(s string) bool {
	for _, m := range neutralMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
