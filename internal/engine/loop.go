package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"adhan/internal/eventbus"
	"adhan/internal/player"
	"adhan/internal/prayer"
	"adhan/internal/source"
	"adhan/internal/storage"
	logx "adhan/pkg/logx"
)

// Notifier receives service manager notifications. *systemd.Notifier
// satisfies it.
type Notifier interface {
	Ready() error
	Status(s string) error
	Watchdog() error
	Stopping() error
}

type Deps struct {
	Source source.Source
	// Store may be nil; the loop then runs without a cache.
	Store    storage.Store
	Player   player.Player
	Bus      eventbus.Bus
	Notifier Notifier
	Log      logx.Logger
}

type Option func(*Loop)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

type Loop struct {
	src    source.Source
	store  storage.Store
	player player.Player
	bus    eventbus.Bus
	notify Notifier
	log    logx.Logger
	now    func() time.Time

	refreshCh chan struct{}

	mu       sync.Mutex
	cfg      Config
	limiter  *rate.Limiter
	force    bool
	restored bool
	lastEval time.Time
	state    State
}

func New(cfg Config, deps Deps, opts ...Option) (*Loop, error) {
	if deps.Source == nil {
		return nil, errors.New("engine: source is required")
	}
	if deps.Player == nil {
		return nil, errors.New("engine: player is required")
	}
	log := deps.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	l := &Loop{
		src:       deps.Source,
		store:     deps.Store,
		player:    deps.Player,
		bus:       deps.Bus,
		notify:    deps.Notifier,
		log:       log.With(logx.String("comp", "engine")),
		now:       time.Now,
		refreshCh: make(chan struct{}, 1),
		cfg:       cfg,
		limiter:   newLimiter(cfg.FetchMinInterval),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func newLimiter(every time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(every), 1)
}

// Apply swaps the configuration and requests a refresh.
func (l *Loop) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	l.mu.Lock()
	if cfg.FetchMinInterval != l.cfg.FetchMinInterval {
		l.limiter = newLimiter(cfg.FetchMinInterval)
	}
	l.cfg = cfg
	l.mu.Unlock()
	l.Refresh()
}

// Refresh wakes the loop and forces a live fetch on the next iteration.
// It never blocks.
func (l *Loop) Refresh() {
	l.mu.Lock()
	l.force = true
	l.mu.Unlock()
	select {
	case l.refreshCh <- struct{}{}:
	default:
	}
}

// State returns a copy of the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Run iterates until ctx is done. Playback in progress is allowed to finish;
// cancellation is observed between iterations and during the sleep.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("scheduler started")
	ready := false
	defer func() {
		_ = l.notifyStopping()
		l.setPhase(PhaseIdle)
		l.log.Info("scheduler stopped")
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := l.Step(ctx)
		if !ready {
			ready = true
			if l.notify != nil {
				if err := l.notify.Ready(); err != nil {
					l.log.Debug("sd_notify ready failed", logx.Err(err))
				}
			}
		}
		if err := l.sleep(ctx, d); err != nil {
			return err
		}
	}
}

func (l *Loop) notifyStopping() error {
	if l.notify == nil {
		return nil
	}
	return l.notify.Stopping()
}

// Step runs one FETCHING and EVALUATING pass and returns how long to sleep.
func (l *Loop) Step(ctx context.Context) time.Duration {
	cfg := l.config()
	l.restoreFired(ctx)

	l.setPhase(PhaseFetching)
	if !l.refresh(ctx, cfg) {
		l.mu.Lock()
		l.state.Backoff++
		n := l.state.Backoff
		l.mu.Unlock()
		l.log.Warn("no prayer schedule available; retrying",
			logx.Duration("retry_in", cfg.RetryDelay),
			logx.Int("attempt", n),
		)
		return l.sleepFor(cfg, cfg.RetryDelay, prayer.Event{})
	}

	// Shutdown requested while fetching: stop before anything is played.
	if ctx.Err() != nil {
		return 0
	}

	l.setPhase(PhaseEvaluating)
	played := l.fireDue(ctx, cfg, l.now().In(cfg.Location))

	// Playback blocks; measure the next wait from after it.
	now := l.now().In(cfg.Location)
	if played && l.pendingDue(cfg, now) {
		return l.sleepFor(cfg, 0, prayer.Event{})
	}
	ev, err := l.resolve(now)
	if err != nil {
		l.mu.Lock()
		l.state.Backoff++
		n := l.state.Backoff
		l.mu.Unlock()
		l.log.Warn("next prayer unresolvable; retrying",
			logx.Err(err),
			logx.Duration("retry_in", cfg.RetryDelay),
			logx.Int("attempt", n),
		)
		l.status("waiting for schedule")
		return l.sleepFor(cfg, cfg.RetryDelay, prayer.Event{})
	}

	l.mu.Lock()
	l.state.Backoff = 0
	l.state.Target = ev
	src := l.state.Source
	l.mu.Unlock()

	l.publish(EventPrayerNext, NextData{Prayer: ev.Name.String(), At: ev.At, Source: src})
	l.status(fmt.Sprintf("next %s at %s", ev.Name, ev.At.Format("15:04")))

	d := ev.At.Sub(now)
	if d < 0 {
		d = 0
	}
	if d > cfg.MaxSleep {
		d = cfg.MaxSleep
	}
	l.log.Info("next prayer",
		logx.Stringer("prayer", ev.Name),
		logx.Time("at", ev.At),
		logx.Duration("sleep", d),
		logx.String("source", string(src)),
	)
	return l.sleepFor(cfg, d, ev)
}

func (l *Loop) sleepFor(cfg Config, d time.Duration, target prayer.Event) time.Duration {
	l.mu.Lock()
	l.state.Phase = PhaseSleeping
	l.state.WakeAt = l.now().In(cfg.Location).Add(d)
	if target.IsZero() {
		l.state.Target = prayer.Event{}
	}
	l.mu.Unlock()
	return d
}

func (l *Loop) setPhase(p Phase) {
	l.mu.Lock()
	l.state.Phase = p
	l.mu.Unlock()
}

func (l *Loop) status(s string) {
	if l.notify == nil {
		return
	}
	if err := l.notify.Status(s); err != nil {
		l.log.Debug("sd_notify status failed", logx.Err(err))
	}
}

// restoreFired loads the persisted last-fired mark once, so a restart inside
// a firing window does not replay the prayer.
func (l *Loop) restoreFired(ctx context.Context) {
	l.mu.Lock()
	if l.restored {
		l.mu.Unlock()
		return
	}
	l.restored = true
	l.mu.Unlock()

	if l.store == nil {
		return
	}
	m, ok, err := l.store.LastFired(ctx)
	if err != nil {
		l.log.Warn("last fired mark unreadable", logx.Err(err))
		return
	}
	if !ok {
		return
	}
	l.mu.Lock()
	l.state.LastFired = m
	l.mu.Unlock()
	l.log.Debug("last fired mark restored", logx.String("date", m.Date), logx.Stringer("prayer", m.Prayer))
}

// refresh establishes the active table. It reports false when none of the
// live source, the cache or memory can drive today.
func (l *Loop) refresh(ctx context.Context, cfg Config) bool {
	now := l.now().In(cfg.Location)

	l.mu.Lock()
	cur, have := l.state.Table, l.state.HasTable
	force := l.force
	l.force = false
	allowed := l.limiter.Allow()
	l.mu.Unlock()

	inMemory := have && usable(cur, now)
	if inMemory && !force && !allowed {
		l.setTable(cur, SourceMemory, false)
		return true
	}

	tb, err := l.fetchLive(ctx, cfg, now)
	if err == nil {
		if l.store != nil {
			if serr := l.store.SaveTable(ctx, tb); serr != nil {
				l.log.Warn("schedule cache write failed", logx.Err(serr))
			}
		}
		l.setTable(tb, SourceLive, true)
		return true
	}

	l.log.Warn("live fetch failed", logx.Err(err))
	l.publish(EventFetchFailed, FetchFailedData{Error: err.Error()})

	if tb, ok := l.loadCache(ctx, now); ok {
		l.setTable(tb, SourceCache, true)
		return true
	}
	if inMemory {
		l.setTable(cur, SourceMemory, false)
		return true
	}
	return false
}

func (l *Loop) fetchLive(ctx context.Context, cfg Config, now time.Time) (prayer.Table, error) {
	fctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	rows, err := l.src.FetchRawMonthRows(fctx)
	if err != nil {
		return prayer.Table{}, err
	}
	tb, errs := prayer.BuildTable(now.Year(), now.Month(), rows)
	for _, e := range errs {
		l.log.Warn("timetable row rejected", logx.Err(e))
	}
	if tb.Len() == 0 {
		return prayer.Table{}, fmt.Errorf("%w: no valid rows out of %d: %w", source.ErrFetch, len(rows), errors.Join(errs...))
	}
	if !usable(tb, now) {
		return prayer.Table{}, fmt.Errorf("%w: no valid row for day %d", source.ErrFetch, now.Day())
	}
	return tb, nil
}

func (l *Loop) loadCache(ctx context.Context, now time.Time) (prayer.Table, bool) {
	if l.store == nil {
		return prayer.Table{}, false
	}
	tb, ok, err := l.store.LoadTable(ctx)
	if err != nil {
		l.log.Warn("schedule cache unusable", logx.Err(err))
	}
	if !ok {
		return prayer.Table{}, false
	}
	if !usable(tb, now) {
		l.log.Debug("schedule cache has no row for today",
			logx.Int("year", tb.Year), logx.Int("month", int(tb.Month)), logx.Int("day", now.Day()))
		return prayer.Table{}, false
	}
	return tb, true
}

func (l *Loop) setTable(tb prayer.Table, src DataSource, changed bool) {
	l.mu.Lock()
	prev := l.state.Source
	l.state.Table = tb
	l.state.HasTable = true
	l.state.Source = src
	if src == SourceLive {
		l.state.FetchedAt = l.now()
	}
	l.mu.Unlock()

	if !changed {
		if prev != src {
			l.log.Debug("using schedule in memory")
		}
		return
	}
	if src.Stale() {
		l.log.Warn("using stale schedule", logx.String("source", string(src)), logx.Int("days", tb.Len()))
	} else {
		l.log.Debug("schedule refreshed", logx.Int("days", tb.Len()))
	}
	l.publish(EventScheduleRefreshed, RefreshedData{Source: src, Year: tb.Year, Month: int(tb.Month), Days: tb.Len()})
}

// fireDue plays the prayer whose window contains now. When windows overlap
// the latest prayer wins. A (date, prayer) pair is played at most once. It
// reports whether playback ran.
func (l *Loop) fireDue(ctx context.Context, cfg Config, now time.Time) bool {
	l.mu.Lock()
	today, ok := l.state.Table.Day(now)
	last := l.state.LastFired
	lastEval := l.lastEval
	l.lastEval = now
	l.mu.Unlock()
	if !ok {
		return false
	}

	due := prayer.Due(now, today, cfg.FireWindow)
	l.reportMissed(now, lastEval, today, cfg.FireWindow, last, due)
	if len(due) == 0 {
		return false
	}
	ev := due[len(due)-1]
	mark := storage.MarkFor(ev)
	if mark == last {
		l.log.Debug("prayer already played", logx.Stringer("prayer", ev.Name), logx.String("date", mark.Date))
		return false
	}
	if len(due) > 1 {
		skipped := make([]string, 0, len(due)-1)
		for _, e := range due[:len(due)-1] {
			skipped = append(skipped, e.Name.String())
		}
		l.log.Warn("overlapping firing windows; playing latest",
			logx.Stringer("prayer", ev.Name), logx.String("skipped", strings.Join(skipped, ",")))
	}

	// Record before playing so a crash mid-playback cannot cause a replay.
	l.mu.Lock()
	l.state.LastFired = mark
	l.mu.Unlock()
	if l.store != nil {
		if err := l.store.PutFired(ctx, mark); err != nil {
			l.log.Warn("last fired mark not persisted", logx.Err(err))
		}
	}

	l.log.Info("prayer time", logx.Stringer("prayer", ev.Name), logx.Time("at", ev.At))
	data := FiredData{Prayer: ev.Name.String(), At: ev.At}
	if err := l.player.Play(context.WithoutCancel(ctx), player.Signal{Prayer: ev.Name, At: ev.At}); err != nil {
		l.log.Error("playback failed", logx.Stringer("prayer", ev.Name), logx.Err(err))
		data.Error = err.Error()
	}
	l.publish(EventPrayerFired, data)
	return true
}

// pendingDue reports whether a window opened that has not been played yet.
func (l *Loop) pendingDue(cfg Config, now time.Time) bool {
	l.mu.Lock()
	today, ok := l.state.Table.Day(now)
	last := l.state.LastFired
	l.mu.Unlock()
	if !ok {
		return false
	}
	due := prayer.Due(now, today, cfg.FireWindow)
	return len(due) > 0 && storage.MarkFor(due[len(due)-1]) != last
}

// reportMissed warns about windows that closed since the previous evaluation
// without their prayer being played.
func (l *Loop) reportMissed(now, lastEval time.Time, today prayer.DaySchedule, window time.Duration, last storage.FiredMark, due []prayer.Event) {
	if lastEval.IsZero() || !now.After(lastEval) {
		return
	}
	loc := now.Location()
	for _, n := range prayer.Names {
		t, ok := today[n]
		if !ok {
			continue
		}
		at := t.On(now, loc)
		end := at.Add(window)
		if !end.After(lastEval) || end.After(now) {
			continue
		}
		if m := storage.MarkFor(prayer.Event{Name: n, At: at}); m == last {
			continue
		}
		l.log.Warn("prayer window missed",
			logx.Stringer("prayer", n),
			logx.Time("at", at),
			logx.Time("woke", now),
		)
	}
}

func (l *Loop) resolve(now time.Time) (prayer.Event, error) {
	l.mu.Lock()
	tb := l.state.Table
	l.mu.Unlock()

	today, _ := tb.Day(now)
	return prayer.NextEvent(now, today, tb.TomorrowFajr(now))
}

func (l *Loop) publish(typ string, data any) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(eventbus.Event{Type: typ, Time: l.now(), Data: data})
}

// sleep waits for d, a refresh request or cancellation, pinging the
// watchdog meanwhile.
func (l *Loop) sleep(ctx context.Context, d time.Duration) error {
	cfg := l.config()
	timer := time.NewTimer(d)
	defer timer.Stop()

	var tick <-chan time.Time
	if cfg.Watchdog > 0 && l.notify != nil {
		t := time.NewTicker(cfg.Watchdog)
		defer t.Stop()
		tick = t.C
		_ = l.notify.Watchdog()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-l.refreshCh:
			l.log.Debug("refresh requested")
			return nil
		case <-tick:
			if err := l.notify.Watchdog(); err != nil {
				l.log.Debug("sd_notify watchdog failed", logx.Err(err))
			}
		}
	}
}
