package pagination

import "math"

// Page is offset pagination state, 1-based.
type Page struct {
	Number  int
	PerPage int
}

// New clamps number and perPage into a usable page. perPage falls back to
// def when non-positive and is capped at max when max > 0.
func New(number, perPage, def, max int) Page {
	if number < 1 {
		number = 1
	}
	if perPage < 1 {
		perPage = def
	}
	if max > 0 && perPage > max {
		perPage = max
	}
	if perPage < 1 {
		perPage = 1
	}
	return Page{Number: number, PerPage: perPage}
}

// Offset is the number of rows to skip. It saturates at math.MaxInt so a
// huge page number lands past the last row instead of wrapping negative.
func (p Page) Offset() int {
	if p.Number <= 1 || p.PerPage <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Number - 1) * p.PerPage
}

// Limit is the number of rows to fetch.
func (p Page) Limit() int {
	return p.PerPage
}

// LastPage returns ceil(total / perPage). Zero total yields zero.
func (p Page) LastPage(total int64) int {
	if total <= 0 || p.PerPage <= 0 {
		return 0
	}
	per := int64(p.PerPage)
	return int((total + per - 1) / per)
}
