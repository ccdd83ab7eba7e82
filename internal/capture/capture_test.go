package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// fakeScreen serves solid images for two side-by-side displays.
type fakeScreen struct {
	displays []image.Rectangle
	captured []image.Rectangle
	err      error
}

func (f *fakeScreen) DisplayBounds() []image.Rectangle { return f.displays }

func (f *fakeScreen) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	f.captured = append(f.captured, r)
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, color.RGBA{10, 20, 30, 0})
		}
	}
	return img, nil
}

func dualScreen() *fakeScreen {
	return &fakeScreen{displays: []image.Rectangle{
		image.Rect(0, 0, 1920, 1080),
		image.Rect(1920, -120, 1920+1280, -120+1024),
	}}
}

func TestMonitors(t *testing.T) {
	c := NewWithScreen(dualScreen(), nil)
	monitors := c.Monitors()

	if len(monitors) != 3 {
		t.Fatalf("expected 3 monitors (union + 2), got %d", len(monitors))
	}

	want := []Monitor{
		{Index: 0, Left: 0, Top: -120, Width: 3200, Height: 1200},
		{Index: 1, Left: 0, Top: 0, Width: 1920, Height: 1080},
		{Index: 2, Left: 1920, Top: -120, Width: 1280, Height: 1024},
	}
	for i, m := range monitors {
		if m != want[i] {
			t.Errorf("monitor %d: got %+v, want %+v", i, m, want[i])
		}
	}
}

func TestMonitors_NoDisplays(t *testing.T) {
	c := NewWithScreen(&fakeScreen{}, nil)
	if got := c.Monitors(); len(got) != 0 {
		t.Errorf("expected no monitors, got %v", got)
	}
	if _, err := c.Resolve(1); err == nil {
		t.Error("Resolve should fail without displays")
	}
}

func TestResolve(t *testing.T) {
	c := NewWithScreen(dualScreen(), nil)

	tests := []struct {
		name      string
		index     int
		wantIndex int
		wantErr   bool
	}{
		{"union", 0, 0, false},
		{"first", 1, 1, false},
		{"second", 2, 2, false},
		{"out of range falls back", 7, 1, false},
		{"negative", -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := c.Resolve(tt.index)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if m.Index != tt.wantIndex {
				t.Errorf("got monitor %d, want %d", m.Index, tt.wantIndex)
			}
		})
	}
}

func TestMonitor_CapturesOpaqueZeroOrigin(t *testing.T) {
	screen := dualScreen()
	c := NewWithScreen(screen, nil)

	img, m, err := c.Monitor(2)
	if err != nil {
		t.Fatalf("Monitor failed: %v", err)
	}
	if m.Index != 2 {
		t.Errorf("monitor index: got %d", m.Index)
	}
	if screen.captured[0] != image.Rect(1920, -120, 3200, 904) {
		t.Errorf("captured rect: got %v", screen.captured[0])
	}
	if img.Bounds() != image.Rect(0, 0, 1280, 1024) {
		t.Errorf("bounds: got %v, want zero-origin 1280x1024", img.Bounds())
	}
	if c := img.RGBAAt(5, 5); c.A != 255 || c.R != 10 || c.G != 20 || c.B != 30 {
		t.Errorf("pixel: got %+v, want opaque (10,20,30)", c)
	}
}

func TestRegion(t *testing.T) {
	screen := dualScreen()
	c := NewWithScreen(screen, nil)

	img, err := c.Region(100, 50, 40, 30)
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("size: got %v", img.Bounds())
	}
	if screen.captured[0] != image.Rect(100, 50, 140, 80) {
		t.Errorf("captured rect: got %v", screen.captured[0])
	}

	if _, err := c.Region(0, 0, 0, 10); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := c.Region(0, 0, 10, -1); err == nil {
		t.Error("expected error for negative height")
	}
}

func TestRegion_BackendError(t *testing.T) {
	screen := dualScreen()
	screen.err = errors.New("no X display")
	c := NewWithScreen(screen, nil)

	if _, err := c.Region(0, 0, 10, 10); err == nil {
		t.Error("expected backend error to propagate")
	}
}
