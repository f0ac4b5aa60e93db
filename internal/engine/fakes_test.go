package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adhan/internal/eventbus"
	"adhan/internal/player"
	"adhan/internal/prayer"
	"adhan/internal/source"
	"adhan/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeSource struct {
	mu    sync.Mutex
	rows  []prayer.RawDayRow
	err   error
	calls int
	// onFetch runs inside every fetch, before the result is returned.
	onFetch func()
}

func (s *fakeSource) FetchRawMonthRows(ctx context.Context) ([]prayer.RawDayRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *fakeSource) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakePlayer struct {
	mu     sync.Mutex
	played []player.Signal
	err    error
	// onPlay runs during playback, e.g. to let the clock move on.
	onPlay func(sig player.Signal)
}

func (p *fakePlayer) Play(ctx context.Context, sig player.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, sig)
	if p.onPlay != nil {
		p.onPlay(sig)
	}
	return p.err
}

func (p *fakePlayer) Played() []player.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]player.Signal(nil), p.played...)
}

type memStore struct {
	mu       sync.Mutex
	table    prayer.Table
	hasTable bool
	fired    storage.FiredMark
	loadErr  error
	saves    int
}

func (s *memStore) SaveTable(ctx context.Context, tb prayer.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table, s.hasTable = tb, true
	s.saves++
	return nil
}

func (s *memStore) LoadTable(ctx context.Context) (prayer.Table, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return prayer.Table{}, false, s.loadErr
	}
	return s.table, s.hasTable, nil
}

func (s *memStore) PutFired(ctx context.Context, m storage.FiredMark) error {
	s.mu.Lock()
	s.fired = m
	s.mu.Unlock()
	return nil
}

func (s *memStore) LastFired(ctx context.Context) (storage.FiredMark, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired, !s.fired.IsZero(), nil
}

func (s *memStore) Close() error { return nil }

type recNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recNotifier) add(s string) error {
	n.mu.Lock()
	n.msgs = append(n.msgs, s)
	n.mu.Unlock()
	return nil
}

func (n *recNotifier) Ready() error          { return n.add("READY") }
func (n *recNotifier) Status(s string) error { return n.add("STATUS=" + s) }
func (n *recNotifier) Watchdog() error       { return n.add("WATCHDOG") }
func (n *recNotifier) Stopping() error       { return n.add("STOPPING") }

func (n *recNotifier) Has(s string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.msgs {
		if m == s {
			return true
		}
	}
	return false
}

// monthRows returns rows for days 1..n with identical raw times:
// Fajr 5:30, Dhuhr 1:00, Asr 4:30, Maghrib 7:45, Ishaa 9:15.
func monthRows(n int) []prayer.RawDayRow {
	rows := make([]prayer.RawDayRow, 0, n)
	for d := 1; d <= n; d++ {
		rows = append(rows, prayer.RawDayRow{
			Day:    fmt.Sprint(d),
			Fields: []string{"5:30", "1:00", "4:30", "7:45", "9:15"},
		})
	}
	return rows
}

func monthTable(year int, month time.Month, n int) prayer.Table {
	tb, _ := prayer.BuildTable(year, month, monthRows(n))
	return tb
}

var errOffline = fmt.Errorf("%w: dial tcp: connection refused", source.ErrFetch)

type harness struct {
	clock  *fakeClock
	src    *fakeSource
	player *fakePlayer
	store  *memStore
	bus    eventbus.Bus
	notify *recNotifier
	loop   *Loop
}

func newHarness(now time.Time, store *memStore) *harness {
	h := &harness{
		clock:  &fakeClock{now: now},
		src:    &fakeSource{rows: monthRows(31)},
		player: &fakePlayer{},
		store:  store,
		bus:    eventbus.New(),
		notify: &recNotifier{},
	}
	deps := Deps{Source: h.src, Player: h.player, Bus: h.bus, Notifier: h.notify}
	if store != nil {
		deps.Store = store
	}
	l, err := New(Config{Location: time.UTC, MaxSleep: 24 * time.Hour}, deps, WithClock(h.clock.Now))
	if err != nil {
		panic(err)
	}
	h.loop = l
	return h
}
