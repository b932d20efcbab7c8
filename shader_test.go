package lumen

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func newShaderlessEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(EngineOptions{
		Clock:  NewManualClock(testEpoch),
		Device: &DeviceProfile{PixelRatio: 1, NoShaders: true},
		Width:  800,
		Height: 600,
		Seed:   1,
	})
	t.Cleanup(e.Close)
	return e
}

func TestEngineDeviceWithoutShaders(t *testing.T) {
	e := newShaderlessEngine(t)
	if e.Host().ShadersEnabled() {
		t.Error("ShadersEnabled = true for a device without shaders")
	}
	e.SetShadersEnabled(true)
	if !e.Host().ShadersEnabled() {
		t.Error("SetShadersEnabled(true) did not reach the host")
	}

	f := newEngineFixture(t)
	if !f.engine.Host().ShadersEnabled() {
		t.Error("shaders should be on by default")
	}
}

func TestShaderEffectsDrawFallbackWithoutShaders(t *testing.T) {
	for _, name := range []string{"shockwave", "glitch"} {
		e := newShaderlessEngine(t)
		if !e.Play(name, nil) {
			t.Fatalf("Play(%s) = false", name)
		}
		node := e.Host().EffectsLayer().FindChild(name)
		if node == nil || node.Shader == nil {
			t.Fatalf("%s: shader node missing", name)
		}
		if node.Shader.Fallback == nil {
			t.Fatalf("%s: no fallback visual", name)
		}

		var drawn []float64
		node.Shader.Fallback = func(_ *ebiten.Image, n *Node, alpha float64) {
			drawn = append(drawn, alpha)
		}
		e.Draw(nil)

		if len(drawn) != 1 {
			t.Errorf("%s: fallback draws = %d, want 1", name, len(drawn))
		}
	}
}

func TestShaderOverlayFallbackWhenDisabled(t *testing.T) {
	calls := 0
	sh := NewShaderOverlay(ShaderGlitch, func(*ebiten.Image, *Node, float64) { calls++ })
	n := NewShaderNode("g", sh, Rect{0, 0, 100, 100})
	sh.draw(nil, n, 1, false)
	if calls != 1 {
		t.Errorf("fallback calls = %d, want 1", calls)
	}

	// A shader without a fallback draws nothing when disabled.
	NewShaderOverlay(ShaderGlitch, nil).draw(nil, n, 1, false)
}

func TestShaderOverlayUniforms(t *testing.T) {
	sh := NewShaderOverlay(ShaderShockwave, nil)
	sh.SetFloat("Progress", 0.5)
	sh.SetVec2("Center", 10, 20)
	sh.SetColor("Tint", Color{R: 1, G: 0.5, B: 0, A: 1})

	if got := sh.Uniforms["Progress"]; got != float32(0.5) {
		t.Errorf("Progress = %v, want 0.5", got)
	}
	if got := sh.Uniforms["Center"].([]float32); got[0] != 10 || got[1] != 20 {
		t.Errorf("Center = %v, want [10 20]", got)
	}
	if got := sh.Uniforms["Tint"].([]float32); len(got) != 4 || got[1] != 0.5 {
		t.Errorf("Tint = %v", got)
	}
}

func TestLoadShaderUnknownProgram(t *testing.T) {
	if _, err := loadShader("nope"); err == nil {
		t.Error("loadShader(nope) = nil error")
	}
}
