package storage

import (
	"fmt"
	"strconv"
	"time"

	"adhan/internal/prayer"
)

// document is the on-disk layout: {"05": {"Fajr": "05:30", ...}, ...}.
type document map[string]map[string]string

func encodeTable(tb prayer.Table) document {
	doc := make(document, len(tb.Days))
	for day, ds := range tb.Days {
		row := make(map[string]string, len(ds))
		for n, t := range ds {
			row[n.String()] = t.String()
		}
		doc[fmt.Sprintf("%02d", day)] = row
	}
	return doc
}

func decodeTable(doc document, year int, month time.Month) (prayer.Table, error) {
	tb := prayer.Table{Year: year, Month: month, Days: make(map[int]prayer.DaySchedule, len(doc))}
	for key, row := range doc {
		day, err := strconv.Atoi(key)
		if err != nil || len(key) != 2 || day < 1 || day > 31 {
			return prayer.Table{}, fmt.Errorf("%w: bad day key %q", ErrCache, key)
		}
		ds, err := decodeDay(row)
		if err != nil {
			return prayer.Table{}, fmt.Errorf("%w: day %s: %v", ErrCache, key, err)
		}
		tb.Days[day] = ds
	}
	return tb, nil
}

func decodeDay(row map[string]string) (prayer.DaySchedule, error) {
	ds := make(prayer.DaySchedule, len(row))
	for k, v := range row {
		n, err := prayer.ParseName(k)
		if err != nil {
			return nil, err
		}
		t, err := prayer.ParseClock(v)
		if err != nil {
			return nil, err
		}
		ds[n] = t
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
