package prayer

import (
	"fmt"
	"strings"
	"time"
)

// Name identifies one of the five daily prayers.
// The numeric order matches the order of the prayers through the day.
type Name int

const (
	Fajr Name = iota
	Dhuhr
	Asr
	Maghrib
	Ishaa
)

// Names lists every prayer in time-of-day order.
var Names = [...]Name{Fajr, Dhuhr, Asr, Maghrib, Ishaa}

var nameStrings = [...]string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Ishaa"}

func (n Name) String() string {
	if n < Fajr || n > Ishaa {
		return fmt.Sprintf("Name(%d)", int(n))
	}
	return nameStrings[n]
}

// IsPM reports whether the prayer always falls after noon.
func (n Name) IsPM() bool { return n != Fajr }

// ParseName is case-insensitive and accepts the common "Isha" and "Zuhr" spellings.
func ParseName(s string) (Name, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fajr":
		return Fajr, nil
	case "dhuhr", "zuhr", "zuhur":
		return Dhuhr, nil
	case "asr":
		return Asr, nil
	case "maghrib":
		return Maghrib, nil
	case "ishaa", "isha":
		return Ishaa, nil
	default:
		return 0, fmt.Errorf("unknown prayer %q", s)
	}
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// Compare returns -1, 0 or +1 ordering lexicographically on (hour, minute).
func (t TimeOfDay) Compare(o TimeOfDay) int {
	a, b := t.minutes(), o.minutes()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.Compare(o) < 0 }

// String renders the zero-padded 24h "HH:MM" form used by the cache.
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// On places the time on the calendar day of date, in loc.
// A nil loc uses date's location.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = date.Location()
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// DaySchedule maps each prayer to its time on one calendar day.
type DaySchedule map[Name]TimeOfDay

// Complete reports whether all five prayers are present.
func (d DaySchedule) Complete() bool {
	for _, n := range Names {
		if _, ok := d[n]; !ok {
			return false
		}
	}
	return true
}

// Validate checks completeness and that times strictly increase through the day.
func (d DaySchedule) Validate() error {
	var prev TimeOfDay
	for i, n := range Names {
		t, ok := d[n]
		if !ok {
			return &ParseError{Field: n.String(), Reason: "missing"}
		}
		if i > 0 && !prev.Before(t) {
			return &ParseError{
				Field:  n.String(),
				Raw:    t.String(),
				Reason: fmt.Sprintf("not after %s (%s)", Names[i-1], prev),
			}
		}
		prev = t
	}
	return nil
}

// Equal compares two schedules entry by entry.
func (d DaySchedule) Equal(o DaySchedule) bool {
	if len(d) != len(o) {
		return false
	}
	for n, t := range d {
		if ot, ok := o[n]; !ok || ot != t {
			return false
		}
	}
	return true
}

// Table is a month window of schedules keyed by day-of-month (1..31).
type Table struct {
	Year  int
	Month time.Month
	Days  map[int]DaySchedule
}

// Covers reports whether the table describes the month containing t.
func (tb Table) Covers(t time.Time) bool {
	return tb.Year == t.Year() && tb.Month == t.Month()
}

// Day returns the schedule for the calendar day of t, if the table has it.
func (tb Table) Day(t time.Time) (DaySchedule, bool) {
	if !tb.Covers(t) {
		return nil, false
	}
	d, ok := tb.Days[t.Day()]
	return d, ok
}

// TomorrowFajr returns Fajr of the calendar day after now.
// It is nil when tomorrow lies in another month or the row is missing.
func (tb Table) TomorrowFajr(now time.Time) *TimeOfDay {
	d, ok := tb.Day(now.AddDate(0, 0, 1))
	if !ok {
		return nil
	}
	t, ok := d[Fajr]
	if !ok {
		return nil
	}
	return &t
}

// Len is the number of usable days.
func (tb Table) Len() int { return len(tb.Days) }

// RawDayRow is one row as scraped from the source, before any parsing.
// Fields are ordered Fajr, Dhuhr, Asr, Maghrib, Ishaa.
type RawDayRow struct {
	Day    string
	Fields []string
}
