package lumen

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// defaultScreenshotDir is where captures go when Host.ScreenshotDir is empty.
const defaultScreenshotDir = "screenshots"

// Screenshot queues a capture of the next drawn frame, overlay included.
// The file is named after the label and the host frame number, e.g.
// "after-confetti_f000120.png".
func (h *Host) Screenshot(label string) {
	h.screenshotQueue = append(h.screenshotQueue, label)
}

// PendingScreenshots returns the number of queued captures.
func (h *Host) PendingScreenshots() int {
	return len(h.screenshotQueue)
}

func (h *Host) screenshotDir() string {
	if h.ScreenshotDir == "" {
		return defaultScreenshotDir
	}
	return h.ScreenshotDir
}

// screenshotNames maps the queued labels to file names for frame. Labels
// that collide within one frame get a numeric suffix.
func screenshotNames(labels []string, frame uint64) []string {
	names := make([]string, len(labels))
	seen := make(map[string]int, len(labels))
	for i, label := range labels {
		slug := labelSlug(label)
		seen[slug]++
		if n := seen[slug]; n > 1 {
			slug = fmt.Sprintf("%s-%d", slug, n)
		}
		names[i] = fmt.Sprintf("%s_f%06d.png", slug, frame)
	}
	return names
}

// labelSlug lowercases label and collapses every run of characters other
// than letters, digits and dots into one dash.
func labelSlug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "frame"
	}
	return b.String()
}

// flushScreenshots writes every queued capture of screen. Called at the end
// of Host.Draw.
func (h *Host) flushScreenshots(screen *ebiten.Image) {
	if len(h.screenshotQueue) == 0 {
		return
	}
	names := screenshotNames(h.screenshotQueue, h.frameCount)
	h.screenshotQueue = h.screenshotQueue[:0]

	dir := h.screenshotDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[lumen] screenshot: %v\n", err)
		return
	}

	// ReadPixels yields premultiplied RGBA, which is image.RGBA's layout.
	img := image.NewRGBA(screen.Bounds())
	screen.ReadPixels(img.Pix)

	for _, name := range names {
		if err := encodePNG(filepath.Join(dir, name), img); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[lumen] screenshot: %v\n", err)
		}
	}
}

func encodePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
