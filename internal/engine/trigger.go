package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "adhan/pkg/logx"
)

// SecondOptional allows both 5-field and 6-field (with seconds) specs.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron validates a refresh spec.
func ParseCron(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("empty cron spec")
	}
	s, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return s, nil
}

// Trigger calls fn on a cron schedule in a fixed location. It is used to
// force the daily timetable refresh just after midnight.
type Trigger struct {
	log logx.Logger
	fn  func()

	mu   sync.Mutex
	c    *cron.Cron
	spec string
	loc  *time.Location
}

func NewTrigger(fn func(), log logx.Logger) *Trigger {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Trigger{fn: fn, log: log.With(logx.String("comp", "engine.cron"))}
}

// Apply (re)starts the trigger with spec in loc. An empty spec stops it.
// Unchanged settings are a no-op.
func (t *Trigger) Apply(spec string, loc *time.Location) error {
	spec = strings.TrimSpace(spec)
	if loc == nil {
		loc = time.Local
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.c != nil && spec == t.spec && t.loc != nil && loc.String() == t.loc.String() {
		return nil
	}
	if spec == "" {
		t.stopLocked()
		t.spec, t.loc = "", loc
		return nil
	}
	if _, err := ParseCron(spec); err != nil {
		return err
	}

	t.stopLocked()
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, t.fire); err != nil {
		return err
	}
	c.Start()
	t.c, t.spec, t.loc = c, spec, loc
	t.log.Info("refresh schedule set", logx.String("cron", spec), logx.String("tz", loc.String()))
	return nil
}

// Next returns the next activation, or zero when stopped.
func (t *Trigger) Next() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.c == nil {
		return time.Time{}
	}
	entries := t.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (t *Trigger) fire() {
	t.log.Debug("scheduled refresh")
	t.fn()
}

// Stop halts the trigger and waits for a running call to return.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Trigger) stopLocked() {
	if t.c == nil {
		return
	}
	<-t.c.Stop().Done()
	t.c = nil
}
