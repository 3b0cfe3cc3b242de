package engine

import "time"

// TimerState is the Timer component's lifecycle state.
type TimerState uint8

const (
	TimerStopped TimerState = iota
	TimerRunning
	TimerPaused
)

// Timer computes a monotonic duration against a TimeProvider. It carries a
// length, a start point, and an optional pause point; it stores no
// projected end. Completed() is true once remaining time reaches zero while
// not Stopped.
type Timer struct {
	clock TimeProvider

	state      TimerState
	length     time.Duration
	startedAt  time.Time
	pausedAt   time.Time
	pausedTime time.Duration // cumulative time spent paused this run
}

// NewTimer constructs a Stopped Timer against clock.
func NewTimer(clock TimeProvider) Timer {
	return Timer{clock: clock, state: TimerStopped}
}

// Start begins (or restarts) the timer running for length, from now.
func (t *Timer) Start(length time.Duration) {
	t.length = length
	t.startedAt = t.clock.Now()
	t.pausedTime = 0
	t.state = TimerRunning
}

// Restart resumes running with the same length as before, starting now.
func (t *Timer) Restart() {
	t.Start(t.length)
}

// Pause freezes the timer's elapsed time. No-op if not Running.
func (t *Timer) Pause() {
	if t.state != TimerRunning {
		return
	}
	t.pausedAt = t.clock.Now()
	t.state = TimerPaused
}

// Resume continues a Paused timer, preserving its original length: a timer
// of length L with paused interval P completes at absolute time no earlier
// than start + L + P.
func (t *Timer) Resume() {
	if t.state != TimerPaused {
		return
	}
	t.pausedTime += t.clock.Now().Sub(t.pausedAt)
	t.state = TimerRunning
}

// State returns the timer's current lifecycle state.
func (t *Timer) State() TimerState { return t.state }

// Remaining returns the time left before the timer completes. Zero or
// negative means it has run out (while Running or Paused); when Stopped it
// returns the configured length.
func (t *Timer) Remaining() time.Duration {
	switch t.state {
	case TimerStopped:
		return t.length
	case TimerPaused:
		elapsed := t.pausedAt.Sub(t.startedAt) - t.pausedTime
		return t.length - elapsed
	default: // TimerRunning
		elapsed := t.clock.Now().Sub(t.startedAt) - t.pausedTime
		return t.length - elapsed
	}
}

// Completed reports whether the timer has run out while Running or Paused
// (a Stopped timer is never completed).
func (t *Timer) Completed() bool {
	return t.state != TimerStopped && t.Remaining() <= 0
}

// Stop halts the timer; Remaining afterward reports the full length again.
func (t *Timer) Stop() {
	t.state = TimerStopped
}
