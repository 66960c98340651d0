/*
date.go - Calendar date arithmetic for due dates

PURPOSE:
  All due dates and start dates cross this package's boundary as plain
  YYYY-MM-DD calendar dates with no time zone and no time-of-day. This file
  provides a Date value type that makes timezone drift impossible.

WHY NOT time.Parse?
  Parsing "2025-11-10" with a generic date parser yields UTC midnight; in
  any timezone behind UTC, reading the local day back gives 9, not 10.
  Dealership due dates are local calendar facts. ParseDate therefore splits
  the string into integer year/month/day and never constructs an instant
  from the raw string.

MONTH ARITHMETIC:
  AddMonths operates on year/month/day components with Go's standard
  calendar normalization: 2025-01-31 + 1 month = 2025-03-03. The generator
  relies on this being deterministic and timezone-independent.

SEE ALSO:
  - generator.go: Uses AddMonths for installment due dates
  - delinquency.go: Uses DaysBetween for days-overdue
*/
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DATE - Local calendar date, no time component
// =============================================================================

// Date is a calendar date in local terms. The zero value means "not set".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string into a Date by splitting integer
// components. It never routes the string through a timezone-aware parser.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year in %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Date{}, fmt.Errorf("invalid month in %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return Date{}, fmt.Errorf("invalid day in %q", s)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// MustParseDate is ParseDate for literals in tests and fixtures.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current local calendar date.
func Today() Date {
	now := time.Now()
	return Date{Year: now.Year(), Month: now.Month(), Day: now.Day()}
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// normalize maps the date onto a fixed-zone instant purely for calendar
// math. The zone is irrelevant: the same one is used on both sides of
// every comparison and the components are read straight back out.
func (d Date) normalize() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Arithmetic. AddMonths follows Go's calendar normalization (Jan 31 + 1
// month = Mar 3), matching how the schedule has always rolled dates.
func (d Date) AddMonths(n int) Date {
	t := time.Date(d.Year, d.Month+time.Month(n), d.Day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) AddDays(n int) Date {
	t := d.normalize().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Comparison
func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d == other }

// DaysBetween returns to - from in whole days.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// JSON - Dates travel as "YYYY-MM-DD" strings, empty for unset
// =============================================================================

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
