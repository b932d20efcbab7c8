package lumen

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestLabelSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"after-confetti", "after-confetti"},
		{"After Confetti", "after-confetti"},
		{"frame.01", "frame.01"},
		{"path/to//thing", "path-to-thing"},
		{"  snow @ 60  ", "snow-60"},
		{"", "frame"},
		{"!!!", "frame"},
	}
	for _, tt := range tests {
		if got := labelSlug(tt.in); got != tt.want {
			t.Errorf("labelSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotNames(t *testing.T) {
	got := screenshotNames([]string{"snow", "Snow", "rain"}, 120)
	want := []string{"snow_f000120.png", "snow-2_f000120.png", "rain_f000120.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScreenshotQueue(t *testing.T) {
	h, _ := newTestHost()
	h.Screenshot("a")
	h.Screenshot("b")
	if h.PendingScreenshots() != 2 {
		t.Fatalf("PendingScreenshots = %d, want 2", h.PendingScreenshots())
	}
	if h.screenshotQueue[0] != "a" || h.screenshotQueue[1] != "b" {
		t.Errorf("queue = %v, want [a b]", h.screenshotQueue)
	}
}

func TestScreenshotDirDefault(t *testing.T) {
	h, _ := newTestHost()
	if got := h.screenshotDir(); got != "screenshots" {
		t.Errorf("screenshotDir = %q, want screenshots", got)
	}
	h.ScreenshotDir = "out"
	if got := h.screenshotDir(); got != "out" {
		t.Errorf("screenshotDir = %q, want out", got)
	}
}

func TestEncodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 64, A: 128})
	path := filepath.Join(t.TempDir(), "shot.png")

	if err := encodePNG(path, img); err != nil {
		t.Fatalf("encodePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 2 || b.Dy() != 1 {
		t.Errorf("bounds = %v, want 2x1", b)
	}
}

func TestEncodePNGBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "shot.png")
	if err := encodePNG(path, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("encodePNG into a missing dir = nil error")
	}
}
