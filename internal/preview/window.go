// Package preview shows captured frames in a native window.
package preview

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/card-finder-mcp/internal/imaging"
)

// Key codes returned by WaitKey that the capture loop reacts to.
const (
	KeyNone = -1
	KeyQuit = 'q'
	KeySave = 's'
)

// Window is a resizable preview window.
type Window struct {
	win *gocv.Window
}

// New opens a window titled name.
func New(name string) *Window {
	return &Window{win: gocv.NewWindow(name)}
}

// Show displays img scaled by factor. The image passed in is not modified.
func (w *Window) Show(img image.Image, factor float64) error {
	scaled, err := imaging.Scale(img, factor)
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(scaled)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	return nil
}

// WaitKey pumps window events for up to delay milliseconds and returns the
// pressed key in the low byte, or KeyNone.
func (w *Window) WaitKey(delay int) int {
	k := w.win.WaitKey(delay)
	if k < 0 {
		return KeyNone
	}
	return k & 0xff
}

// IsOpen reports whether the user has not closed the window.
func (w *Window) IsOpen() bool {
	return w.win.IsOpen()
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
