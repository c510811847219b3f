package poller

import "time"

type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual implementation so
// ticks fire on demand instead of in real time.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func RealClock() Clock {
	return realClock{}
}
