package lumen

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-6

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestHost returns a host on a manual clock with an 800x600 stage.
func newTestHost() (*Host, *ManualClock) {
	clock := NewManualClock(testEpoch)
	return NewHost(HostOptions{Clock: clock, Width: 800, Height: 600}), clock
}

// tick advances the clock by dt seconds and runs one host update.
func tick(h *Host, clock *ManualClock, dt float64) {
	clock.Advance(time.Duration(dt * float64(time.Second)))
	h.Update(dt)
}

// ticks runs n frames of dt seconds.
func ticks(h *Host, clock *ManualClock, n int, dt float64) {
	for range n {
		tick(h, clock, dt)
	}
}
