// Package timer implements a high frequency start/stop timer with
// microsecond resolution. A Timer counts down a fixed duration on its own
// goroutine and invokes a callback once when the duration elapses. A running
// timer can be stopped early, and a finished one reset and started again.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Callback is invoked when a timer runs out. It receives the arguments
// retained at construction time.
type Callback func(args ...interface{})

var (
	// ErrDuration means the requested duration is not a positive number of
	// microseconds.
	ErrDuration = errors.New("timer: duration must be a positive number of microseconds")
	// ErrCallback means no callback was supplied.
	ErrCallback = errors.New("timer: callback must be non-nil")
)

// Timer is a single-shot countdown with start, stop and reset semantics.
// Elapsed time is kept in microseconds. When the countdown expires on its
// own, elapsed is reported as the requested duration rather than the
// measured overshoot; reading the duration back is another way to tell that
// a timeout occurred.
type Timer struct {
	mu       sync.Mutex
	callback Callback
	args     []interface{}
	duration int64 // microseconds
	elapsed  int64 // microseconds
	expired  bool
	running  bool
	stop     chan struct{}
	done     chan struct{}
	clock    *Clock
}

// New builds a timer that fires callback with args once durationMicros
// microseconds have elapsed after Start.
func New(durationMicros int64, callback Callback, args ...interface{}) (*Timer, error) {
	if durationMicros <= 0 {
		return nil, ErrDuration
	}
	if callback == nil {
		return nil, ErrCallback
	}
	return &Timer{
		callback: callback,
		args:     args,
		duration: durationMicros,
		clock:    NewClock(),
	}, nil
}

// Start launches the countdown goroutine. Starting a timer that is already
// running is a no-op.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}
	t.elapsed = 0
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.running = true
	go t.run(t.stop, t.done)
	return nil
}

func (t *Timer) run(stop, done chan struct{}) {
	defer close(done)

	start := t.clock.Micros()
	expire := time.NewTimer(time.Duration(t.duration) * time.Microsecond)
	defer expire.Stop()

	select {
	case <-expire.C:
		t.mu.Lock()
		t.expired = true
		t.running = false
		// don't use the measured value here since it is likely to be larger
		// than the requested duration
		t.elapsed = t.duration
		cb, args := t.callback, t.args
		t.mu.Unlock()
		cb(args...)
	case <-stop:
		t.mu.Lock()
		t.elapsed = t.clock.Since(start)
		t.mu.Unlock()
	}
}

// Stop interrupts the countdown and returns the elapsed microseconds
// measured up to the interruption. The callback is not invoked. Stopping a
// timer that is not running just returns the last elapsed reading.
func (t *Timer) Stop() int64 {
	t.mu.Lock()
	if !t.running {
		elapsed := t.elapsed
		t.mu.Unlock()
		return elapsed
	}
	t.running = false
	close(t.stop)
	done := t.done
	t.mu.Unlock()

	<-done

	t.mu.Lock()
	elapsed := t.elapsed
	t.mu.Unlock()
	return elapsed
}

// Reset interrupts any countdown in flight and returns the timer to its
// pristine state: not running, not expired, zero elapsed.
func (t *Timer) Reset() {
	t.Stop()
	t.mu.Lock()
	t.expired = false
	t.elapsed = 0
	t.mu.Unlock()
}

// Elapsed reports the elapsed microseconds of the last run.
func (t *Timer) Elapsed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Expired reports whether the timer ran out on its own rather than being
// stopped.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expired
}

// Running reports whether a countdown is currently in flight.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Duration returns the configured duration in microseconds.
func (t *Timer) Duration() int64 {
	return t.duration
}

func (t *Timer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("<Timer duration=%d expired=%v running=%v>", t.duration, t.expired, t.running)
}
