package engine

import "time"

// Clock reads the time used to measure request durations. Tests inject a
// deterministic clock so logged durations are stable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
