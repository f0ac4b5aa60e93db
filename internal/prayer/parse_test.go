package prayer

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimePMRule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		raw    string
		prayer Name
		want   TimeOfDay
	}{
		{name: "fajr untouched", raw: "5:30", prayer: Fajr, want: TimeOfDay{5, 30}},
		{name: "fajr padded", raw: "05:07", prayer: Fajr, want: TimeOfDay{5, 7}},
		{name: "asr shifted", raw: "1:15", prayer: Asr, want: TimeOfDay{13, 15}},
		{name: "maghrib shifted", raw: "7:45", prayer: Maghrib, want: TimeOfDay{19, 45}},
		{name: "ishaa shifted", raw: "9:15", prayer: Ishaa, want: TimeOfDay{21, 15}},
		{name: "dhuhr at noon", raw: "12:00", prayer: Dhuhr, want: TimeOfDay{12, 0}},
		{name: "dhuhr after noon", raw: "1:05", prayer: Dhuhr, want: TimeOfDay{13, 5}},
		{name: "already 24h", raw: "16:30", prayer: Asr, want: TimeOfDay{16, 30}},
		{name: "whitespace", raw: "  4:02 ", prayer: Asr, want: TimeOfDay{16, 2}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTime(tt.raw, tt.prayer)
			if err != nil {
				t.Fatalf("ParseTime(%q, %s) error: %v", tt.raw, tt.prayer, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTime(%q, %s) = %s, want %s", tt.raw, tt.prayer, got, tt.want)
			}
		})
	}
}

func TestParseTimePMAlwaysAfternoon(t *testing.T) {
	t.Parallel()
	for _, n := range []Name{Dhuhr, Asr, Maghrib, Ishaa} {
		for h := 0; h < 24; h++ {
			raw := TimeOfDay{Hour: h, Minute: 10}.String()
			got, err := ParseTime(raw, n)
			if err != nil {
				t.Fatalf("ParseTime(%q, %s) error: %v", raw, n, err)
			}
			if got.Hour < 12 {
				t.Fatalf("ParseTime(%q, %s) = %s, want hour >= 12", raw, n, got)
			}
		}
	}
}

func TestParseTimeInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "5", "5:3", "5:300", "24:00", "7:60", "a:bc", "5.30", "-1:00", "5:30pm"} {
		_, err := ParseTime(raw, Asr)
		if err == nil {
			t.Fatalf("ParseTime(%q) expected error", raw)
		}
		if !errors.Is(err, ErrParse) {
			t.Fatalf("ParseTime(%q) error %v is not ErrParse", raw, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Field != "Asr" {
			t.Fatalf("ParseTime(%q) error = %#v, want field Asr", raw, err)
		}
	}
}

func TestParseClockRoundTrip(t *testing.T) {
	t.Parallel()
	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 1, 30, 59} {
			in := TimeOfDay{Hour: h, Minute: m}
			got, err := ParseClock(in.String())
			if err != nil {
				t.Fatalf("ParseClock(%q) error: %v", in.String(), err)
			}
			if got != in {
				t.Fatalf("ParseClock(%q) = %v, want %v", in.String(), got, in)
			}
		}
	}
}

// A pre-noon Dhuhr is pushed into the evening by the PM rule; the day must then
// be rejected rather than scheduled at 23:50.
func TestParseDayRejectsPreNoonDhuhr(t *testing.T) {
	t.Parallel()
	row := RawDayRow{Day: "3", Fields: []string{"6:20", "11:50", "2:10", "4:30", "6:00"}}
	_, _, err := ParseDay(row)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("ParseDay error = %v, want ErrParse", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Day != "3" || pe.Field != "Asr" {
		t.Fatalf("unexpected error detail: %#v", err)
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()
	day, ds, err := ParseDay(RawDayRow{Day: " 17 ", Fields: []string{"5:30", "1:00", "4:30", "7:45", "9:15", "extra"}})
	if err != nil {
		t.Fatalf("ParseDay error: %v", err)
	}
	if day != 17 {
		t.Fatalf("day = %d, want 17", day)
	}
	want := DaySchedule{
		Fajr: {5, 30}, Dhuhr: {13, 0}, Asr: {16, 30}, Maghrib: {19, 45}, Ishaa: {21, 15},
	}
	if !ds.Equal(want) {
		t.Fatalf("schedule = %v, want %v", ds, want)
	}
}

func TestBuildTableRejectsOnlyBadDays(t *testing.T) {
	t.Parallel()
	rows := []RawDayRow{
		{Day: "1", Fields: []string{"5:30", "1:00", "4:30", "7:45", "9:15"}},
		{Day: "2", Fields: []string{"5:31", "1:00", "7:50", "4:30", "9:15"}}, // Asr after Maghrib
		{Day: "3", Fields: []string{"5:32", "1:00", "4:29"}},                  // short
		{Day: "x", Fields: []string{"5:32", "1:00", "4:29", "7:40", "9:10"}},  // bad day
		{Day: "4", Fields: []string{"5:33", "1:00", "4:28", "7:39", "9:09"}},
		{Day: "4", Fields: []string{"5:34", "1:00", "4:28", "7:39", "9:09"}}, // duplicate
		{Day: "5", Fields: []string{"5:35", "1:00", "4:27", "7:38", "bad"}},
	}
	tb, errs := BuildTable(2026, time.October, rows)
	if tb.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (days %v)", tb.Len(), tb.Days)
	}
	if _, ok := tb.Days[1]; !ok {
		t.Fatal("day 1 missing")
	}
	if got := tb.Days[4][Fajr]; got != (TimeOfDay{5, 33}) {
		t.Fatalf("day 4 fajr = %s, want first row 05:33", got)
	}
	if len(errs) != 5 {
		t.Fatalf("errors = %d (%v), want 5", len(errs), errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrParse) {
			t.Fatalf("error %v is not ErrParse", err)
		}
	}
}

func TestTableTomorrowFajr(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	tb := Table{Year: 2026, Month: time.October, Days: map[int]DaySchedule{
		17: {Fajr: {5, 30}},
		31: {Fajr: {6, 10}},
	}}
	if got := tb.TomorrowFajr(time.Date(2026, time.October, 16, 22, 0, 0, 0, loc)); got == nil || *got != (TimeOfDay{5, 30}) {
		t.Fatalf("TomorrowFajr(16th) = %v, want 05:30", got)
	}
	if got := tb.TomorrowFajr(time.Date(2026, time.October, 17, 22, 0, 0, 0, loc)); got != nil {
		t.Fatalf("TomorrowFajr(17th) = %v, want nil (missing row)", got)
	}
	if got := tb.TomorrowFajr(time.Date(2026, time.October, 31, 22, 0, 0, 0, loc)); got != nil {
		t.Fatalf("TomorrowFajr(31st) = %v, want nil (next month)", got)
	}
	// Day 1 of the table must not stand in for day 1 of next month.
	tb.Days[1] = DaySchedule{Fajr: {5, 0}}
	if got := tb.TomorrowFajr(time.Date(2026, time.October, 31, 22, 0, 0, 0, loc)); got != nil {
		t.Fatalf("TomorrowFajr across month = %v, want nil", got)
	}
}

func TestParseName(t *testing.T) {
	t.Parallel()
	for _, n := range Names {
		got, err := ParseName(n.String())
		if err != nil || got != n {
			t.Fatalf("ParseName(%q) = %v, %v", n.String(), got, err)
		}
	}
	if got, err := ParseName("isha"); err != nil || got != Ishaa {
		t.Fatalf("ParseName(isha) = %v, %v", got, err)
	}
	if _, err := ParseName("tahajjud"); err == nil {
		t.Fatal("expected error for unknown prayer")
	}
}
