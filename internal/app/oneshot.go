package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adhan/internal/config"
	"adhan/internal/engine"
	"adhan/internal/prayer"
	"adhan/internal/source"
	"adhan/internal/storage"
	logx "adhan/pkg/logx"
)

// Toolbox backs the one-shot CLI commands. It opens only the source and the
// cache; players and the scheduler loop are left alone.
type Toolbox struct {
	Config *config.Config
	Loc    *time.Location

	src   source.Source
	store storage.Store
	fetch time.Duration
	log   logx.Logger
}

func OpenToolbox(cfgPath string, log logx.Logger) (*Toolbox, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := config.LoadDotEnv(cfgPath); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.NewManager(cfgPath).Parse()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	srcCfg, err := mapSourceConfig(cfg)
	if err != nil {
		return nil, err
	}
	src, err := source.Open(srcCfg, log)
	if err != nil {
		return nil, err
	}
	engCfg, err := mapEngineConfig(cfg)
	if err != nil {
		return nil, err
	}

	tb := &Toolbox{Config: cfg, Loc: loc, src: src, fetch: engCfg.FetchTimeout, log: log}
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		if tb.store, err = storage.Open(sc, log); err != nil {
			return nil, err
		}
	}
	return tb, nil
}

func (t *Toolbox) Close() error {
	if t.store == nil {
		return nil
	}
	return t.store.Close()
}

// Fetch downloads and builds the current month. Rejected rows are returned
// alongside the table.
func (t *Toolbox) Fetch(ctx context.Context, now time.Time) (prayer.Table, []error, error) {
	ctx, cancel := context.WithTimeout(ctx, t.fetch)
	defer cancel()
	rows, err := t.src.FetchRawMonthRows(ctx)
	if err != nil {
		return prayer.Table{}, nil, err
	}
	now = now.In(t.Loc)
	tb, errs := prayer.BuildTable(now.Year(), now.Month(), rows)
	if tb.Len() == 0 {
		return prayer.Table{}, errs, fmt.Errorf("%w: no valid rows", source.ErrFetch)
	}
	return tb, errs, nil
}

// Save writes tb to the cache. It is an error when storage is disabled.
func (t *Toolbox) Save(ctx context.Context, tb prayer.Table) error {
	if t.store == nil {
		return storage.ErrDisabled
	}
	return t.store.SaveTable(ctx, tb)
}

// Table returns the month covering now, live first and then from the cache.
// The second result names where it came from.
func (t *Toolbox) Table(ctx context.Context, now time.Time) (prayer.Table, engine.DataSource, error) {
	now = now.In(t.Loc)
	tb, _, err := t.Fetch(ctx, now)
	if err == nil && tb.Covers(now) {
		return tb, engine.SourceLive, nil
	}
	if err != nil {
		t.log.Warn("live fetch failed; trying cache", logx.Err(err))
	}
	if t.store == nil {
		return prayer.Table{}, engine.SourceNone, errors.Join(err, storage.ErrDisabled)
	}
	cached, ok, cerr := t.store.LoadTable(ctx)
	if cerr != nil {
		t.log.Warn("schedule cache unusable", logx.Err(cerr))
	}
	if !ok || !cached.Covers(now) {
		return prayer.Table{}, engine.SourceNone, fmt.Errorf("no timetable for %s", now.Format(time.DateOnly))
	}
	return cached, engine.SourceCache, nil
}
