package engine

import (
	"time"

	"adhan/internal/prayer"
	"adhan/internal/storage"
)

// DataSource tells where the active table came from.
type DataSource string

const (
	SourceNone   DataSource = ""
	SourceLive   DataSource = "live"
	SourceCache  DataSource = "cache"
	SourceMemory DataSource = "memory"
)

// Stale reports whether the table did not come from this iteration's fetch.
func (s DataSource) Stale() bool { return s == SourceCache || s == SourceMemory }

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseEvaluating
	PhaseSleeping
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseSleeping:
		return "sleeping"
	default:
		return "idle"
	}
}

// State is the scheduler's view of the world. The loop is its only writer.
type State struct {
	Phase     Phase
	Table     prayer.Table
	HasTable  bool
	Source    DataSource
	FetchedAt time.Time

	LastFired storage.FiredMark
	// Backoff counts consecutive iterations that ended in a retry sleep.
	Backoff int
	Target  prayer.Event
	WakeAt  time.Time
}

// usable reports whether tb can drive the day containing now.
func usable(tb prayer.Table, now time.Time) bool {
	_, ok := tb.Day(now)
	return ok
}
