package engine

import "time"

// Event types published on the bus.
const (
	EventScheduleRefreshed = "schedule.refreshed"
	EventFetchFailed       = "fetch.failed"
	EventPrayerFired       = "prayer.fired"
	EventPrayerNext        = "prayer.next"
)

type RefreshedData struct {
	Source DataSource `json:"source"`
	Year   int        `json:"year"`
	Month  int        `json:"month"`
	Days   int        `json:"days"`
}

type FetchFailedData struct {
	Error string `json:"error"`
}

type FiredData struct {
	Prayer string    `json:"prayer"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}

type NextData struct {
	Prayer string     `json:"prayer"`
	At     time.Time  `json:"at"`
	Source DataSource `json:"source"`
}
