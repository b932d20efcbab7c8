package lumen

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// debugStats is a snapshot of host resource counts.
type debugStats struct {
	particles      int
	themeParticles int
	tasks          int
	timers         int
	nodes          int
	tracked        int
	running        bool
}

// stats returns a snapshot of live resource counts.
func (h *Host) stats() debugStats {
	return debugStats{
		particles:      h.pool.Len(),
		themeParticles: h.pool.Count(ThemeTag),
		tasks:          h.tasks.TaskCount(),
		timers:         h.tasks.TimerCount(),
		nodes:          countNodes(h.root),
		tracked:        len(h.tracked),
		running:        h.running,
	}
}

// debugLog prints resource stats to stderr once per second of frames.
func (h *Host) debugLog() {
	if !h.debug || h.frameCount%60 != 0 {
		return
	}
	s := h.stats()
	_, _ = fmt.Fprintf(os.Stderr,
		"[lumen] frame %d | particles: %d (theme %d) | tasks: %d | timers: %d\n",
		h.frameCount, s.particles, s.themeParticles, s.tasks, s.timers)
	_, _ = fmt.Fprintf(os.Stderr,
		"[lumen] nodes: %d | tracked: %d | running: %t\n",
		s.nodes, s.tracked, s.running)
}

// debugMaxParticles is the pool size above which debug mode warns.
const debugMaxParticles = 4000

// debugCheckPool warns on stderr when the pool grows past the threshold.
func (h *Host) debugCheckPool() {
	if n := h.pool.Len(); n > debugMaxParticles {
		_, _ = fmt.Fprintf(os.Stderr, "[lumen] warning: %d live particles (threshold %d)\n",
			n, debugMaxParticles)
	}
}

// hudRefreshFrames is how often the debug HUD text is rebuilt.
const hudRefreshFrames = 30

var hudBackground = color.RGBA{0, 0, 0, 128}

// hudLines formats the HUD text for s.
func hudLines(s debugStats, fps, tps float64) string {
	return fmt.Sprintf("FPS: %.1f  TPS: %.1f\nparticles: %d (theme %d)\ntasks: %d  timers: %d  nodes: %d",
		fps, tps, s.particles, s.themeParticles, s.tasks, s.timers, s.nodes)
}

// drawDebugHUD prints frame and resource stats in the bottom-left corner of
// screen. The text refreshes every hudRefreshFrames frames.
func (h *Host) drawDebugHUD(screen *ebiten.Image) {
	if h.hudText == "" || h.frameCount%hudRefreshFrames == 0 {
		h.hudText = hudLines(h.stats(), ebiten.ActualFPS(), ebiten.ActualTPS())
	}
	y := screen.Bounds().Dy() - 52
	vector.DrawFilledRect(screen, 0, float32(y), 220, 52, hudBackground, false)
	ebitenutil.DebugPrintAt(screen, h.hudText, 4, y+2)
}
