package lumen

import (
	"math"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	reducedCountFactor    = 0.35
	reducedDurationFactor = 0.6
	minPixelRatioFactor   = 0.5
)

// DeviceProfile describes the host device as far as scaling is concerned.
type DeviceProfile struct {
	// ReducedMotion is the platform's "reduce motion" preference.
	ReducedMotion bool
	// PixelRatio is the device pixel ratio. Zero means 1.
	PixelRatio float64
	// NoShaders marks a device without usable shader support. Shader
	// overlays then draw their fallback visuals.
	NoShaders bool
}

// ProbeDevice reads the primary monitor's scale factor. The reduced-motion
// preference comes from LUMEN_REDUCED_MOTION since desktop platforms expose
// no portable query for it; LUMEN_NO_SHADERS forces shader fallbacks.
func ProbeDevice() DeviceProfile {
	p := DeviceProfile{PixelRatio: 1}
	if m := ebiten.Monitor(); m != nil {
		p.PixelRatio = m.DeviceScaleFactor()
	}
	p.ReducedMotion = envFlag("LUMEN_REDUCED_MOTION")
	p.NoShaders = envFlag("LUMEN_NO_SHADERS")
	return p
}

func envFlag(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Scaler maps requested particle counts, rates and durations to
// device-appropriate values. It is a pure value; build a new one whenever the
// config changes.
type Scaler struct {
	reduced  bool
	dpr      float64
	maxDPR   float64
	countMul float64
	timeMul  float64
}

// NewScaler derives scaling from the device profile and the top-level
// reducedMotionRespect / maxDevicePixelRatio options. cfg may be nil.
func NewScaler(device DeviceProfile, cfg *Config) Scaler {
	s := Scaler{dpr: device.PixelRatio, countMul: 1, timeMul: 1}
	if s.dpr <= 0 {
		s.dpr = 1
	}
	respect := true
	if cfg != nil {
		respect = cfg.ReducedMotionRespect
		s.maxDPR = cfg.MaxDevicePixelRatio
	}
	if device.ReducedMotion && respect {
		s.reduced = true
		s.countMul *= reducedCountFactor
		s.timeMul *= reducedDurationFactor
	}
	if s.maxDPR > 0 && s.dpr > s.maxDPR {
		s.countMul *= math.Max(s.maxDPR/s.dpr, minPixelRatioFactor)
	}
	return s
}

// Reduced reports whether reduced-motion scaling is in effect.
func (s Scaler) Reduced() bool {
	return s.reduced
}

// Count scales a particle count. Positive inputs never scale below 1.
func (s Scaler) Count(n int) int {
	if n <= 0 {
		return 0
	}
	mul := s.countMul
	if mul == 0 {
		mul = 1
	}
	scaled := int(math.Round(float64(n) * mul))
	if scaled < 1 {
		scaled = 1
	}
	return scaled
}

// Rate scales an emission rate (particles per second).
func (s Scaler) Rate(r float64) float64 {
	if r <= 0 {
		return 0
	}
	mul := s.countMul
	if mul == 0 {
		mul = 1
	}
	return r * mul
}

// Duration scales an effect duration or timeout.
func (s Scaler) Duration(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	mul := s.timeMul
	if mul == 0 {
		mul = 1
	}
	return time.Duration(float64(d) * mul)
}

// PixelRatio returns the device pixel ratio capped at maxDevicePixelRatio.
func (s Scaler) PixelRatio() float64 {
	dpr := s.dpr
	if dpr <= 0 {
		dpr = 1
	}
	if s.maxDPR > 0 && dpr > s.maxDPR {
		return s.maxDPR
	}
	return dpr
}
