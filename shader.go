package lumen

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Kage shader sources ---
// All shaders use //kage:unit pixels and generate color procedurally, so
// they are drawn with DrawRectShader and no source images.

const glitchShaderSrc = `//kage:unit pixels
package main

var Time float
var Intensity float
var Size vec2
var Alpha float

func hash(p float) float {
	return fract(sin(p*127.1) * 43758.5453)
}

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	pos := dst.xy - imageDstOrigin()
	band := floor(pos.y/12.0) + floor(Time*18.0)
	if hash(band) < 1.0-Intensity*0.6 {
		return vec4(0)
	}
	shift := (hash(band+7.0) - 0.5) * Intensity
	r := step(0.5, fract(pos.x/Size.x+shift))
	c := vec3(r*0.9, hash(band+3.0)*0.6, 1.0-r*0.5)
	a := 0.35 * Intensity * Alpha
	return vec4(c*a, a)
}
`

const shockwaveShaderSrc = `//kage:unit pixels
package main

var Progress float
var Center vec2
var MaxRadius float
var Thickness float
var Tint vec4
var Alpha float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	pos := dst.xy - imageDstOrigin()
	d := distance(pos, Center)
	r := Progress * MaxRadius
	x := abs(d-r) / Thickness
	if x > 1.0 {
		return vec4(0)
	}
	a := (1.0 - x) * (1.0 - Progress) * Alpha * Tint.a
	return vec4(Tint.rgb*a, a)
}
`

const (
	ShaderGlitch    = "glitch"
	ShaderShockwave = "shockwave"
)

var shaderSources = map[string]string{
	ShaderGlitch:    glitchShaderSrc,
	ShaderShockwave: shockwaveShaderSrc,
}

// --- Lazy shader compilation (no sync.Once: single-threaded) ---

var (
	shaderCache  = map[string]*ebiten.Shader{}
	shaderFailed = map[string]error{}
)

// loadShader compiles a named program on first use. A failed compile is
// remembered so the fallback is chosen without retrying every frame.
func loadShader(name string) (*ebiten.Shader, error) {
	if s, ok := shaderCache[name]; ok {
		return s, nil
	}
	if err, ok := shaderFailed[name]; ok {
		return nil, err
	}
	src, ok := shaderSources[name]
	if !ok {
		err := fmt.Errorf("%w: no program %q", ErrShaderUnavailable, name)
		shaderFailed[name] = err
		return nil, err
	}
	s, err := ebiten.NewShader([]byte(src))
	if err != nil {
		err = fmt.Errorf("%w: compile %s: %v", ErrShaderUnavailable, name, err)
		shaderFailed[name] = err
		return nil, err
	}
	shaderCache[name] = s
	return s, nil
}

// ShaderOverlay runs a named shader program over its node's bounds. When
// shaders are disabled on the host or the program cannot be compiled,
// Fallback draws instead (or nothing, when Fallback is nil).
type ShaderOverlay struct {
	Program  string
	Uniforms map[string]any
	Fallback DrawFunc

	op ebiten.DrawRectShaderOptions
}

// NewShaderOverlay creates an overlay for program with an empty uniform set.
func NewShaderOverlay(program string, fallback DrawFunc) *ShaderOverlay {
	return &ShaderOverlay{
		Program:  program,
		Uniforms: make(map[string]any, 8),
		Fallback: fallback,
	}
}

// SetFloat sets a float uniform.
func (s *ShaderOverlay) SetFloat(name string, v float64) {
	s.Uniforms[name] = float32(v)
}

// SetVec2 sets a vec2 uniform.
func (s *ShaderOverlay) SetVec2(name string, x, y float64) {
	s.Uniforms[name] = []float32{float32(x), float32(y)}
}

// SetColor sets a vec4 uniform from a color (not premultiplied).
func (s *ShaderOverlay) SetColor(name string, c Color) {
	s.Uniforms[name] = []float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

func (s *ShaderOverlay) draw(dst *ebiten.Image, n *Node, alpha float64, enabled bool) {
	if enabled && n.Width >= 1 && n.Height >= 1 {
		if sh, err := loadShader(s.Program); err == nil {
			s.op = ebiten.DrawRectShaderOptions{}
			s.op.GeoM.Translate(n.X, n.Y)
			s.op.Blend = n.BlendMode.EbitenBlend()
			s.Uniforms["Alpha"] = float32(alpha)
			s.op.Uniforms = s.Uniforms
			dst.DrawRectShader(int(n.Width), int(n.Height), sh, &s.op)
			return
		}
	}
	if s.Fallback != nil {
		s.Fallback(dst, n, alpha)
	}
}
