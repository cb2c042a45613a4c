package timesheet

import (
	"time"

	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
)

// dateLayout is the fixed textual form dates are stored and exchanged in.
const dateLayout = "2006-01-02"

// Date is a civil date with no time-of-day component, normalized to UTC
// midnight internally. Dates compare with == and are usable as map keys.
type Date struct {
	t time.Time
}

// NewDate builds a date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to the date it falls on in UTC.
func DateOf(t time.Time) Date {
	utc := t.UTC()
	return NewDate(utc.Year(), utc.Month(), utc.Day())
}

// ParseDate parses the fixed YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, domainErrors.InvalidTime("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// Time returns the date as UTC midnight.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d falls after other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.t.AddDate(0, 0, n))
}

// String renders the fixed YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// MarshalText encodes the date in its fixed textual form.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return nil, domainErrors.InvalidTime("cannot encode zero date")
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes the fixed textual form.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
