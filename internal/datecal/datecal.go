// Package datecal converts calendar date literals to Julian day number
// ranges.
//
// Dates are stored as a pair of Julian day numbers (start and end of the
// period the date denotes) so that comparisons work across calendars and
// precisions. A literal has the form
//
//	CALENDAR:START[:END]
//
// where CALENDAR is GREGORIAN or JULIAN and START/END are YYYY, YYYY-MM or
// YYYY-MM-DD, optionally followed by an era (BC, BCE, AD, CE). The
// precision of each part widens it to the whole year or month.
package datecal

import (
	"fmt"
	"strconv"
	"strings"
)

// Calendar names a supported calendar.
type Calendar string

const (
	Gregorian Calendar = "GREGORIAN"
	Julian    Calendar = "JULIAN"
)

// Precision is the granularity a date part was given with.
type Precision int

const (
	PrecisionYear Precision = iota
	PrecisionMonth
	PrecisionDay
)

// Date is a parsed date literal.
type Date struct {
	Calendar       Calendar
	StartJDN       int
	EndJDN         int
	StartPrecision Precision
	EndPrecision   Precision
}

// Parse parses a date literal.
func Parse(literal string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(literal), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Date{}, fmt.Errorf("invalid date literal %q: expected CALENDAR:START[:END]", literal)
	}

	cal := Calendar(strings.ToUpper(strings.TrimSpace(parts[0])))
	if cal != Gregorian && cal != Julian {
		return Date{}, fmt.Errorf("invalid date literal %q: unknown calendar %q", literal, parts[0])
	}

	start, err := parsePart(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date literal %q: %w", literal, err)
	}
	end := start
	if len(parts) == 3 {
		end, err = parsePart(parts[2])
		if err != nil {
			return Date{}, fmt.Errorf("invalid date literal %q: %w", literal, err)
		}
	}

	d := Date{
		Calendar:       cal,
		StartJDN:       start.first(cal),
		EndJDN:         end.last(cal),
		StartPrecision: start.precision,
		EndPrecision:   end.precision,
	}
	if d.EndJDN < d.StartJDN {
		return Date{}, fmt.Errorf("invalid date literal %q: end precedes start", literal)
	}
	return d, nil
}

// part is one date of a literal with astronomical year numbering
// (1 BC is year 0).
type part struct {
	year, month, day int
	precision        Precision
}

func parsePart(s string) (part, error) {
	s = strings.TrimSpace(s)
	bc := false
	if fields := strings.Fields(s); len(fields) == 2 {
		switch strings.ToUpper(fields[1]) {
		case "BC", "BCE":
			bc = true
		case "AD", "CE":
		default:
			return part{}, fmt.Errorf("unknown era %q", fields[1])
		}
		s = fields[0]
	} else if len(fields) != 1 {
		return part{}, fmt.Errorf("malformed date %q", s)
	}

	pieces := strings.Split(s, "-")
	if len(pieces) > 3 {
		return part{}, fmt.Errorf("malformed date %q", s)
	}

	nums := make([]int, len(pieces))
	for i, piece := range pieces {
		n, err := strconv.Atoi(piece)
		if err != nil || n < 0 {
			return part{}, fmt.Errorf("malformed date %q", s)
		}
		nums[i] = n
	}

	p := part{year: nums[0], precision: PrecisionYear}
	if p.year == 0 {
		return part{}, fmt.Errorf("year 0 does not exist in %q", s)
	}
	if bc {
		p.year = 1 - p.year
	}
	if len(nums) >= 2 {
		if nums[1] < 1 || nums[1] > 12 {
			return part{}, fmt.Errorf("month out of range in %q", s)
		}
		p.month = nums[1]
		p.precision = PrecisionMonth
	}
	if len(nums) == 3 {
		if nums[2] < 1 || nums[2] > 31 {
			return part{}, fmt.Errorf("day out of range in %q", s)
		}
		p.day = nums[2]
		p.precision = PrecisionDay
	}
	if p.year < -4712 {
		return part{}, fmt.Errorf("year before 4713 BC in %q", s)
	}
	return p, nil
}

func (p part) first(cal Calendar) int {
	switch p.precision {
	case PrecisionDay:
		return ToJDN(cal, p.year, p.month, p.day)
	case PrecisionMonth:
		return ToJDN(cal, p.year, p.month, 1)
	default:
		return ToJDN(cal, p.year, 1, 1)
	}
}

func (p part) last(cal Calendar) int {
	switch p.precision {
	case PrecisionDay:
		return ToJDN(cal, p.year, p.month, p.day)
	case PrecisionMonth:
		return ToJDN(cal, p.year, p.month, DaysInMonth(cal, p.year, p.month))
	default:
		return ToJDN(cal, p.year, 12, 31)
	}
}

// ToJDN returns the Julian day number of a date with astronomical year
// numbering.
func ToJDN(cal Calendar, year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	jdn := day + (153*m+2)/5 + 365*y + y/4
	if cal == Julian {
		return jdn - 32083
	}
	return jdn - y/100 + y/400 - 32045
}

// DaysInMonth returns the length of a month in the given calendar.
func DaysInMonth(cal Calendar, year, month int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeap(cal, year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func isLeap(cal Calendar, year int) bool {
	if cal == Julian {
		return mod(year, 4) == 0
	}
	return mod(year, 4) == 0 && (mod(year, 100) != 0 || mod(year, 400) == 0)
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
