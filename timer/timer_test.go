package timer

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	noop := func(args ...interface{}) {}
	tests := []struct {
		name     string
		duration int64
		callback Callback
		wantErr  error
	}{
		{"valid", 1000, noop, nil},
		{"zero duration", 0, noop, ErrDuration},
		{"negative duration", -5, noop, ErrDuration},
		{"nil callback", 1000, nil, ErrCallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.duration, tt.callback)
			if err != tt.wantErr {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimerExpires(t *testing.T) {
	fired := make(chan []interface{}, 1)
	tm, err := New(10_000, func(args ...interface{}) { fired <- args }, "uuid-1", 42)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case args := <-fired:
		if len(args) != 2 || args[0] != "uuid-1" || args[1] != 42 {
			t.Errorf("callback args = %v, want [uuid-1 42]", args)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	if !tm.Expired() {
		t.Error("timer should be expired")
	}
	if tm.Running() {
		t.Error("expired timer should not be running")
	}
	// elapsed is reported as the requested duration on expiry
	if got := tm.Elapsed(); got != 10_000 {
		t.Errorf("Elapsed() = %d, want 10000", got)
	}
}

func TestTimerStop(t *testing.T) {
	tm, err := New(5_000_000, func(args ...interface{}) {
		t.Error("callback must not fire on a stopped timer")
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	elapsed := tm.Stop()

	if elapsed <= 0 || elapsed >= 5_000_000 {
		t.Errorf("Stop() elapsed = %d, want between 0 and the duration", elapsed)
	}
	if tm.Expired() {
		t.Error("stopped timer should not be expired")
	}
	if tm.Running() {
		t.Error("stopped timer should not be running")
	}
	// stopping again returns the same reading
	if again := tm.Stop(); again != elapsed {
		t.Errorf("second Stop() = %d, want %d", again, elapsed)
	}
}

func TestTimerReset(t *testing.T) {
	fired := make(chan struct{}, 1)
	tm, err := New(10_000, func(args ...interface{}) { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-fired

	tm.Reset()
	if tm.Expired() || tm.Running() || tm.Elapsed() != 0 {
		t.Errorf("after Reset: expired=%v running=%v elapsed=%d, want all zero",
			tm.Expired(), tm.Running(), tm.Elapsed())
	}

	// a reset timer is reusable
	if err := tm.Start(); err != nil {
		t.Fatalf("Start after Reset: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired after reset")
	}
}

func TestStartWhileRunning(t *testing.T) {
	tm, err := New(5_000_000, func(args ...interface{}) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer tm.Stop()

	if err := tm.Start(); err != nil {
		t.Errorf("Start on a running timer = %v, want nil no-op", err)
	}
	if !tm.Running() {
		t.Error("timer should still be running")
	}
}

func TestTimerString(t *testing.T) {
	tm, err := New(1234, func(args ...interface{}) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := tm.String()
	if !strings.Contains(s, "duration=1234") || !strings.Contains(s, "running=false") {
		t.Errorf("String() = %q", s)
	}
}
