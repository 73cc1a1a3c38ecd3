package engine

import "time"

// Clock abstracts the timers used by timeout jobs so that tests can drive
// them with a controllable clock.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
