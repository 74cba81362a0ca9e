// Package normalize maps loosely typed legacy profile values (gender and
// marital status) onto their canonical forms.
package normalize

import (
	"errors"
	"sort"
	"strings"
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ErrUnknownGender is returned when a stored gender cannot be normalized.
var ErrUnknownGender = errors.New("gender cannot be normalized")

var arabicGenders = map[string]Gender{
	"أنثى": Female,
	"أنثي": Female,
	"ذكر":  Male,
	"ذكور": Male,
}

// ParseGender normalizes a stored gender spelling. The second return value is
// false when the value is unrecognized; callers must treat that as
// unmatchable and never default it.
//
// Rules, first match wins:
//  1. empty → none
//  2. exact Arabic tokens
//  3. contains "fem" → female, contains "mal" → male (corrupted values like "malq")
//  4. exact "male"/"m", "female"/"f"
func ParseGender(raw string) (Gender, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", false
	}

	if g, ok := arabicGenders[v]; ok {
		return g, true
	}

	// "female" contains "mal", so "fem" is checked first.
	switch {
	case strings.Contains(v, "fem"):
		return Female, true
	case strings.Contains(v, "mal"):
		return Male, true
	}

	switch v {
	case "male", "m":
		return Male, true
	case "female", "f":
		return Female, true
	}
	return "", false
}

// Opposite returns the other canonical gender.
func (g Gender) Opposite() Gender {
	if g == Male {
		return Female
	}
	return Male
}

func (g Gender) Valid() bool { return g == Male || g == Female }

func (g Gender) String() string { return string(g) }

// TargetGenderFor returns the gender a caller with the given profile gender
// may search for. It fails when the caller's own gender does not normalize.
func TargetGenderFor(callerGender string) (Gender, error) {
	g, ok := ParseGender(callerGender)
	if !ok {
		return "", ErrUnknownGender
	}
	return g.Opposite(), nil
}

// GenderSpellings lists the exact lower-case spellings that normalize to g.
// Substring matches ("fem", "mal") are not included; see GenderFragment.
func GenderSpellings(g Gender) []string {
	out := []string{string(g)}
	if g == Male {
		out = append(out, "m")
	} else {
		out = append(out, "f")
	}
	for token, tg := range arabicGenders {
		if tg == g {
			out = append(out, token)
		}
	}
	sort.Strings(out)
	return out
}

// GenderFragment returns the substring whose presence normalizes to g and,
// for male, the fragment that must be absent ("female" contains "mal").
func GenderFragment(g Gender) (include, exclude string) {
	if g == Female {
		return "fem", ""
	}
	return "mal", "fem"
}
