package surface

import (
	"fmt"
	"regexp"
	"time"

	apperrors "github.com/karnek/ivhist/internal/errors"
)

// DateLayout is the canonical trading date format used everywhere:
// partition file names, index keys, store columns and archive names.
const DateLayout = "2006-01-02"

// Date is a trading date in YYYY-MM-DD form. The string form sorts
// chronologically, so Dates are ordered with plain string comparison.
type Date string

// ParseDate validates s as a trading date.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%q: %w", s, apperrors.ErrInvalidDate)
	}
	return Date(s), nil
}

// MustDate parses s and panics on failure. For tests and literals.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string {
	return string(d)
}

var dateKeyRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// DateFromName extracts the first YYYY-MM-DD date key from an archive
// file name. Returns ErrNoDateKey when none is present.
func DateFromName(name string) (Date, error) {
	m := dateKeyRe.FindString(name)
	if m == "" {
		return "", fmt.Errorf("%q: %w", name, apperrors.ErrNoDateKey)
	}
	return ParseDate(m)
}
