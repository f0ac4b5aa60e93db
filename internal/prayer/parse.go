package prayer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseTime converts a table cell like "4:15" into a TimeOfDay for prayer n.
//
// The source prints times without a meridiem. Fajr is taken as written; every
// other prayer is PM, so an hour below 12 gets 12 added. An hour of 12 or more
// is already afternoon and is left alone. The rule is applied to Dhuhr too:
// a pre-noon Dhuhr ends up late in the evening and the day then fails Validate.
func ParseTime(raw string, n Name) (TimeOfDay, error) {
	t, err := ParseClock(raw)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Field = n.String()
		}
		return TimeOfDay{}, err
	}
	if n.IsPM() && t.Hour < 12 {
		t.Hour += 12
	}
	return t, nil
}

// ParseClock parses "H:MM" or "HH:MM" with no meridiem adjustment.
// It is the inverse of TimeOfDay.String.
func ParseClock(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "want H:MM"}
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "hour out of range"}
	}
	if mm > 59 {
		return TimeOfDay{}, &ParseError{Raw: raw, Reason: "minute out of range"}
	}
	return TimeOfDay{Hour: h, Minute: mm}, nil
}

// ParseDay parses one raw row into a validated schedule.
func ParseDay(row RawDayRow) (int, DaySchedule, error) {
	dayStr := strings.TrimSpace(row.Day)
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return 0, nil, &ParseError{Day: row.Day, Field: "day", Raw: row.Day, Reason: "want 1..31"}
	}
	if len(row.Fields) < len(Names) {
		return 0, nil, &ParseError{
			Day:    dayStr,
			Reason: fmt.Sprintf("have %d time fields, want %d", len(row.Fields), len(Names)),
		}
	}

	ds := make(DaySchedule, len(Names))
	for i, n := range Names {
		t, err := ParseTime(row.Fields[i], n)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Day = dayStr
			}
			return 0, nil, err
		}
		ds[n] = t
	}
	if err := ds.Validate(); err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Day = dayStr
		}
		return 0, nil, err
	}
	return day, ds, nil
}

// BuildTable parses a month of raw rows.
//
// A row that fails to parse or validate is dropped and its error returned;
// the other days stay usable. When a day appears twice the first valid row wins.
func BuildTable(year int, month time.Month, rows []RawDayRow) (Table, []error) {
	tb := Table{Year: year, Month: month, Days: make(map[int]DaySchedule, len(rows))}
	var errs []error
	for _, row := range rows {
		day, ds, err := ParseDay(row)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := tb.Days[day]; dup {
			errs = append(errs, &ParseError{Day: strconv.Itoa(day), Reason: "duplicate row"})
			continue
		}
		tb.Days[day] = ds
	}
	return tb, errs
}
