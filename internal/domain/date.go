package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component, serialized as YYYY-MM-DD.
// Transaction dates and budget windows compare at day granularity.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("ParseDate: %w", err)
	}
	return Date{t: t}, nil
}

// Time returns the day as a time.Time at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d falls after other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalJSON writes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON reads a quoted YYYY-MM-DD string. Timestamps with a time
// component are accepted and truncated to the day.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("Date.UnmarshalJSON: %q is not a date: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// MonthWindow returns the first day of the given month and the last day the
// budget window covers: the end of the month, or today if the month is still
// running.
func MonthWindow(year int, month int, today Date) (Date, Date) {
	start := NewDate(year, time.Month(month), 1)
	end := NewDate(year, time.Month(month)+1, 0) // day 0 of next month
	if today.Before(end) && !today.Before(start) {
		end = today
	}
	return start, end
}
