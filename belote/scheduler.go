package belote

import "time"

// Scheduler runs delayed continuations. Implementations must not run fn
// synchronously inside After: the engine holds its lock while scheduling.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler fires continuations on runtime timers.
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
