package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

// ErrFetch marks every failure to obtain rows: transport, status, or markup.
var ErrFetch = errors.New("fetch failed")

const (
	DefaultURL     = "https://croydonmosque.com/?section=prayer"
	DefaultTableID = "salaat_times_month"
	DefaultTimeout = 30 * time.Second
)

// Source yields the raw rows of the current month.
type Source interface {
	FetchRawMonthRows(ctx context.Context) ([]prayer.RawDayRow, error)
}

// Layout says where the data lives inside the month table.
type Layout struct {
	TableID   string
	SkipRows  int
	DayColumn int
	// Columns holds the cell index of each prayer, ordered Fajr..Ishaa.
	Columns [len(prayer.Names)]int
}

// DefaultLayout matches the Croydon mosque timetable: two header rows, the
// day in the first cell, and the jamaat times in cells 3, 6, 8, 10 and 11.
func DefaultLayout() Layout {
	return Layout{
		TableID:   DefaultTableID,
		SkipRows:  2,
		DayColumn: 0,
		Columns:   [len(prayer.Names)]int{3, 6, 8, 10, 11},
	}
}

func (l Layout) normalize() Layout {
	if strings.TrimSpace(l.TableID) == "" {
		l.TableID = DefaultTableID
	}
	if l.SkipRows < 0 {
		l.SkipRows = 0
	}
	return l
}

// Config selects and configures a source.
type Config struct {
	// Kind is "html" (default) or "file".
	Kind      string
	URL       string
	Path      string
	Timeout   time.Duration
	UserAgent string
	Layout    Layout
}

// Open builds the configured source.
func Open(cfg Config, log logx.Logger) (Source, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch kind := strings.ToLower(strings.TrimSpace(cfg.Kind)); kind {
	case "", "html", "http":
		return NewHTML(cfg, nil, log), nil
	case "file":
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, errors.New("source.path is required for file source")
		}
		return NewFile(afero.NewOsFs(), cfg.Path, cfg.Layout, log), nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", kind)
	}
}
