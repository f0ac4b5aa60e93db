package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adhan/internal/prayer"
)

// ErrPlayback wraps every failure to deliver a signal.
var ErrPlayback = errors.New("playback failed")

// Signal describes the prayer being announced.
type Signal struct {
	Prayer prayer.Name
	At     time.Time
}

func (s Signal) String() string {
	return fmt.Sprintf("%s (%s)", s.Prayer, s.At.Format("15:04"))
}

type Player interface {
	Play(ctx context.Context, sig Signal) error
}

// Func adapts a function to Player.
type Func func(ctx context.Context, sig Signal) error

func (f Func) Play(ctx context.Context, sig Signal) error { return f(ctx, sig) }

type named struct {
	name string
	p    Player
}

// Multi plays a signal on every member in order. One failing member does not
// stop the others; the failures are joined.
type Multi struct {
	members []named
}

func NewMulti() *Multi { return &Multi{} }

// Add registers p under name. Nil players are ignored.
func (m *Multi) Add(name string, p Player) *Multi {
	if p != nil {
		m.members = append(m.members, named{name: name, p: p})
	}
	return m
}

func (m *Multi) Len() int { return len(m.members) }

func (m *Multi) Names() []string {
	out := make([]string, 0, len(m.members))
	for _, n := range m.members {
		out = append(out, n.name)
	}
	return out
}

func (m *Multi) Play(ctx context.Context, sig Signal) error {
	var errs []error
	for _, n := range m.members {
		if err := n.p.Play(ctx, sig); err != nil {
			if !errors.Is(err, ErrPlayback) {
				err = fmt.Errorf("%w: %v", ErrPlayback, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", n.name, err))
		}
	}
	return errors.Join(errs...)
}
