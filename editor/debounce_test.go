package editor

import (
	"testing"
	"time"
)

func TestDebouncerFiresOncePerQuietPeriod(t *testing.T) {
	clock := &manualClock{}
	var fired int
	d := NewDebouncer(time.Second, clock, func() { fired++ })

	d.Arm()
	clock.Advance(500 * time.Millisecond)
	d.Arm()
	clock.Advance(500 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired %d times before the quiet period elapsed", fired)
	}

	clock.Advance(500 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired %d times, want 1", fired)
	}
	if d.Pending() {
		t.Error("still pending after firing")
	}

	clock.Advance(10 * time.Second)
	if fired != 1 {
		t.Errorf("fired again without re-arming: %d", fired)
	}
}

func TestDebouncerCancel(t *testing.T) {
	clock := &manualClock{}
	var fired int
	d := NewDebouncer(time.Second, clock, func() { fired++ })

	if d.Cancel() {
		t.Error("Cancel on idle debouncer reported pending")
	}
	d.Arm()
	if !d.Cancel() {
		t.Error("Cancel did not report pending run")
	}
	clock.Advance(time.Minute)
	if fired != 0 {
		t.Errorf("canceled debouncer fired %d times", fired)
	}
}

func TestDebouncerFlush(t *testing.T) {
	clock := &manualClock{}
	var fired int
	d := NewDebouncer(time.Second, clock, func() { fired++ })

	if d.Flush() {
		t.Error("Flush on idle debouncer ran fn")
	}
	d.Arm()
	if !d.Flush() || fired != 1 {
		t.Fatalf("Flush ran fn %d times, want 1", fired)
	}
	clock.Advance(time.Minute)
	if fired != 1 {
		t.Errorf("timer fired after flush: %d", fired)
	}
}

func TestDebouncerStaleCallbackIgnored(t *testing.T) {
	var fired int
	d := NewDebouncer(time.Hour, &manualClock{}, func() { fired++ })

	d.Arm()
	stale := d.seq
	d.Arm()
	d.fire(stale)
	if fired != 0 {
		t.Fatalf("stale callback ran fn")
	}
	d.fire(d.seq)
	if fired != 1 {
		t.Errorf("current callback ran fn %d times, want 1", fired)
	}
}

func TestDebouncerWallClock(t *testing.T) {
	done := make(chan struct{})
	d := NewDebouncer(10*time.Millisecond, nil, func() { close(done) })
	d.Arm()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wall clock debouncer never fired")
	}
}
