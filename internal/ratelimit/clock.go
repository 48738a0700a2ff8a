package ratelimit

import "time"

// Clock supplies the timestamps window boundaries are computed from.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock (with its monotonic reading).
var SystemClock Clock = ClockFunc(time.Now)
