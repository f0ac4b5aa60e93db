package engine

import (
	"time"
)

const (
	DefaultFetchTimeout     = 30 * time.Second
	DefaultFetchMinInterval = time.Hour
	DefaultRetryDelay       = 10 * time.Minute
	DefaultFireWindow       = 5 * time.Minute
	DefaultMaxSleep         = time.Hour
	DefaultRefreshCron      = "5 0 * * *"
)

type Config struct {
	// FetchTimeout bounds one live fetch.
	FetchTimeout time.Duration
	// FetchMinInterval spaces live fetches while the table in memory still
	// covers today. Fetches needed to obtain any table are never held back.
	FetchMinInterval time.Duration
	RetryDelay       time.Duration
	FireWindow       time.Duration
	MaxSleep         time.Duration
	// RefreshCron forces a live fetch. Empty disables it.
	RefreshCron string
	Location    *time.Location
	// Watchdog is the sd_notify keep-alive period; 0 disables it.
	Watchdog time.Duration
}

func (c Config) withDefaults() Config {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.FetchMinInterval <= 0 {
		c.FetchMinInterval = DefaultFetchMinInterval
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.FireWindow <= 0 {
		c.FireWindow = DefaultFireWindow
	}
	if c.MaxSleep <= 0 {
		c.MaxSleep = DefaultMaxSleep
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Watchdog < 0 {
		c.Watchdog = 0
	}
	return c
}
