package lumen

import (
	"testing"
	"time"
)

func TestScalerIdentity(t *testing.T) {
	s := NewScaler(DeviceProfile{PixelRatio: 1}, DefaultConfig())
	if s.Reduced() {
		t.Error("Reduced() = true, want false")
	}
	if got := s.Count(120); got != 120 {
		t.Errorf("Count(120) = %d, want 120", got)
	}
	assertNear(t, "Rate(18)", s.Rate(18), 18)
	if got := s.Duration(time.Second); got != time.Second {
		t.Errorf("Duration(1s) = %v, want 1s", got)
	}
}

func TestScalerReducedMotion(t *testing.T) {
	s := NewScaler(DeviceProfile{PixelRatio: 1, ReducedMotion: true}, DefaultConfig())
	if !s.Reduced() {
		t.Fatal("Reduced() = false, want true")
	}
	if got := s.Count(100); got != 35 {
		t.Errorf("Count(100) = %d, want 35", got)
	}
	if got := s.Count(1); got != 1 {
		t.Errorf("Count(1) = %d, want at least 1", got)
	}
	if got := s.Duration(time.Second); got != 600*time.Millisecond {
		t.Errorf("Duration(1s) = %v, want 600ms", got)
	}
}

func TestScalerIgnoresReducedMotionWhenNotRespected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReducedMotionRespect = false
	s := NewScaler(DeviceProfile{PixelRatio: 1, ReducedMotion: true}, cfg)
	if s.Reduced() {
		t.Error("Reduced() = true, want false")
	}
	if got := s.Count(100); got != 100 {
		t.Errorf("Count(100) = %d, want 100", got)
	}
}

func TestScalerPixelRatioCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDevicePixelRatio = 2
	s := NewScaler(DeviceProfile{PixelRatio: 3}, cfg)
	assertNear(t, "PixelRatio", s.PixelRatio(), 2)
	// 2/3 of the count on an over-dense display.
	if got := s.Count(300); got != 200 {
		t.Errorf("Count(300) = %d, want 200", got)
	}

	dense := NewScaler(DeviceProfile{PixelRatio: 8}, cfg)
	if got := dense.Count(100); got != 50 {
		t.Errorf("Count(100) at dpr 8 = %d, want floor of 50", got)
	}
}

func TestScalerZeroInputs(t *testing.T) {
	var s Scaler
	if s.Count(0) != 0 || s.Count(-3) != 0 {
		t.Error("non-positive counts should scale to 0")
	}
	if s.Rate(0) != 0 {
		t.Error("Rate(0) should be 0")
	}
	if s.Duration(0) != 0 {
		t.Error("Duration(0) should be 0")
	}
	if got := s.Count(10); got != 10 {
		t.Errorf("zero Scaler Count(10) = %d, want 10", got)
	}
	assertNear(t, "zero PixelRatio", s.PixelRatio(), 1)
}
