// Package capture grabs screen contents for interactive use.
//
// Monitors are numbered the way the mss library numbers them: index 0 is the
// bounding box of every active display, and 1..N are the displays
// themselves in the order the OS reports them.
package capture

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// Monitor describes one capturable area in virtual-screen coordinates.
type Monitor struct {
	Index  int `json:"index"`
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds returns the monitor as an image.Rectangle.
func (m Monitor) Bounds() image.Rectangle {
	return image.Rect(m.Left, m.Top, m.Left+m.Width, m.Top+m.Height)
}

// Screen abstracts the display backend.
type Screen interface {
	DisplayBounds() []image.Rectangle
	CaptureRect(r image.Rectangle) (*image.RGBA, error)
}

// systemScreen is the kbinani/screenshot backend.
type systemScreen struct{}

func (systemScreen) DisplayBounds() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, n)
	for i := 0; i < n; i++ {
		out[i] = screenshot.GetDisplayBounds(i)
	}
	return out
}

func (systemScreen) CaptureRect(r image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(r)
}

// Capturer captures monitors and regions from a Screen.
type Capturer struct {
	screen Screen
	logger *zap.Logger
}

// New returns a Capturer for the local displays.
func New(logger *zap.Logger) *Capturer {
	return NewWithScreen(systemScreen{}, logger)
}

// NewWithScreen returns a Capturer for an arbitrary backend.
func NewWithScreen(screen Screen, logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{screen: screen, logger: logger.Named("capture")}
}

// Monitors lists the union monitor followed by each display.
func (c *Capturer) Monitors() []Monitor {
	displays := c.screen.DisplayBounds()
	if len(displays) == 0 {
		return nil
	}

	union := displays[0]
	for _, d := range displays[1:] {
		union = union.Union(d)
	}

	out := make([]Monitor, 0, len(displays)+1)
	out = append(out, toMonitor(0, union))
	for i, d := range displays {
		out = append(out, toMonitor(i+1, d))
	}
	return out
}

func toMonitor(index int, r image.Rectangle) Monitor {
	return Monitor{Index: index, Left: r.Min.X, Top: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Resolve returns the monitor at index. An index past the end falls back to
// monitor 1 with a warning.
func (c *Capturer) Resolve(index int) (Monitor, error) {
	monitors := c.Monitors()
	if len(monitors) < 2 {
		return Monitor{}, fmt.Errorf("no active displays")
	}
	if index < 0 {
		return Monitor{}, fmt.Errorf("monitor index must not be negative, got %d", index)
	}
	if index >= len(monitors) {
		c.logger.Warn("monitor not available, using monitor 1",
			zap.Int("requested", index), zap.Int("available", len(monitors)-1))
		index = 1
	}
	return monitors[index], nil
}

// Monitor captures the monitor at index (see Resolve).
func (c *Capturer) Monitor(index int) (*image.RGBA, Monitor, error) {
	m, err := c.Resolve(index)
	if err != nil {
		return nil, Monitor{}, err
	}
	img, err := c.grab(m.Bounds())
	return img, m, err
}

// Region captures the rectangle with top-left (x, y) and the given size.
func (c *Capturer) Region(x, y, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("region size must be positive, got %dx%d", width, height)
	}
	return c.grab(image.Rect(x, y, x+width, y+height))
}

// grab captures r and returns an opaque, zero-origin copy.
func (c *Capturer) grab(r image.Rectangle) (*image.RGBA, error) {
	img, err := c.screen.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %w", r, err)
	}
	return opaque(img), nil
}

// opaque copies img to a zero-origin RGBA with every alpha forced to 255.
func opaque(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
