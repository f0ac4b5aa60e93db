// Package source fetches a month of raw prayer rows.
//
// The mosque publishes its timetable as an HTML table; HTML downloads it and
// File reads a saved copy. Both emit prayer.RawDayRow values and leave parsing
// of the time fields to package prayer.
package source
