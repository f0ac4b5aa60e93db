package prayer

import "time"

// Event is a prayer pinned to an instant.
type Event struct {
	Name Name
	At   time.Time
}

// IsZero reports whether e is the zero Event.
func (e Event) IsZero() bool { return e.At.IsZero() }

// NextEvent returns the first prayer strictly after now.
//
// Today's schedule is only considered when complete. If nothing remains today
// the answer is tomorrow's Fajr; without it the result is ErrUnresolvable.
// Instants are built in now's location.
func NextEvent(now time.Time, today DaySchedule, tomorrowFajr *TimeOfDay) (Event, error) {
	loc := now.Location()
	if today != nil && today.Complete() {
		var (
			best  Event
			found bool
		)
		for _, n := range Names {
			at := today[n].On(now, loc)
			if !at.After(now) {
				continue
			}
			if !found || at.Before(best.At) {
				best = Event{Name: n, At: at}
				found = true
			}
		}
		if found {
			return best, nil
		}
	}

	if tomorrowFajr == nil {
		return Event{}, ErrUnresolvable
	}
	return Event{Name: Fajr, At: tomorrowFajr.On(now.AddDate(0, 0, 1), loc)}, nil
}

// Due returns the prayers whose firing window [at, at+window) contains now,
// in time-of-day order.
func Due(now time.Time, today DaySchedule, window time.Duration) []Event {
	if today == nil || window <= 0 {
		return nil
	}
	loc := now.Location()
	var out []Event
	for _, n := range Names {
		t, ok := today[n]
		if !ok {
			continue
		}
		at := t.On(now, loc)
		if !now.Before(at) && now.Before(at.Add(window)) {
			out = append(out, Event{Name: n, At: at})
		}
	}
	return out
}
