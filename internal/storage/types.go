package storage

import (
	"context"
	"errors"
	"time"

	"adhan/internal/prayer"
)

var (
	ErrDisabled = errors.New("storage disabled")

	// ErrCache wraps every unreadable or corrupt snapshot error.
	ErrCache = errors.New("cache error")
)

// Config configures storage.
//
// Driver values:
//   - "file": JSON snapshot at Path
//   - "sqlite": SQLite database at Path
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration  // sqlite only; 0 means default
	Location    *time.Location // month of a file snapshot is read in this zone
}

// FiredMark identifies the last prayer that was played.
type FiredMark struct {
	Date   string // 2006-01-02
	Prayer prayer.Name
}

func (m FiredMark) IsZero() bool { return m.Date == "" }

// MarkFor builds the mark for a prayer event.
func MarkFor(ev prayer.Event) FiredMark {
	return FiredMark{Date: ev.At.Format(time.DateOnly), Prayer: ev.Name}
}

// Store is the schedule cache.
//
// LoadTable returns ok=false when there is no usable snapshot. A corrupt
// snapshot also returns ok=false, with an error wrapping ErrCache for logging;
// callers treat both the same way.
type Store interface {
	SaveTable(ctx context.Context, tb prayer.Table) error
	LoadTable(ctx context.Context) (tb prayer.Table, ok bool, err error)
	PutFired(ctx context.Context, m FiredMark) error
	LastFired(ctx context.Context) (m FiredMark, ok bool, err error)
	Close() error
}
