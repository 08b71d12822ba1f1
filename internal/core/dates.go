// Package core holds the domain model of the finance tracker: entities,
// validation, date normalization and billing-cycle math.
package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDateFormat is returned when a wire date does not match YYYY-MM-DD.
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

var dateOnlyRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ParseDateOnlyLocal converts a YYYY-MM-DD string into a timestamp fixed at
// local noon of that calendar day. Noon keeps the value on the same calendar
// day under any timezone-offset conversion of up to ±12h.
func ParseDateOnlyLocal(s string) (time.Time, error) {
	m := dateOnlyRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	// Out-of-range days (e.g. Feb 31) roll into the next month, matching the
	// calendar-overflow behavior of the billing math.
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local), nil
}

// ToISODateOnly projects a timestamp onto its local calendar day as
// YYYY-MM-DD. Time of day and zone offset are discarded.
func ToISODateOnly(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// Date is a calendar day carried as a timestamp. On the wire it reads as
// YYYY-MM-DD; a full RFC3339 timestamp is accepted verbatim so backups and
// already-normalized values round-trip untouched.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given local calendar day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ToISODateOnly(d.Time) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDateFormat, string(b))
	}
	if t, perr := ParseDateOnlyLocal(s); perr == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	d.Time = t
	return nil
}
