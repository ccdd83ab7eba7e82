package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/card-finder-mcp/internal/capture"
	"github.com/ironsheep/card-finder-mcp/internal/imaging"
	"github.com/ironsheep/card-finder-mcp/internal/logging"
	"github.com/ironsheep/card-finder-mcp/internal/preview"
)

// region is a screen rectangle given as X,Y,WIDTH,HEIGHT.
type region struct {
	X, Y, Width, Height int
}

func parseRegion(s string) (*region, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("region must be X,Y,WIDTH,HEIGHT, got %q", s)
	}

	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("region value %q: %w", p, err)
		}
		vals[i] = n
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return nil, fmt.Errorf("region size must be positive, got %dx%d", vals[2], vals[3])
	}
	return &region{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// session captures one source repeatedly and shows it in a window.
type session struct {
	title    string
	prefix   string
	grab     func() (image.Image, error)
	resize   float64
	fps      int
	logger   *zap.Logger
	now      func() time.Time
	saveFile func(img image.Image, path string) error
}

func (s *session) run(ctx context.Context) error {
	win := preview.New(s.title)
	defer win.Close()

	fmt.Println("Press 'q' to quit, 's' to save screenshot")

	frameDelay := time.Second / time.Duration(s.fps)

	for {
		start := time.Now()

		frame, err := s.grab()
		if err != nil {
			return err
		}
		if err := win.Show(frame, s.resize); err != nil {
			return err
		}

		switch win.WaitKey(1) {
		case preview.KeyQuit:
			fmt.Println("Quitting...")
			return nil
		case preview.KeySave:
			name := saveName(s.prefix, s.now())
			if err := s.saveFile(frame, name); err != nil {
				s.logger.Error("failed to save screenshot", zap.String("file", name), zap.Error(err))
			} else {
				fmt.Printf("Screenshot saved as %s\n", name)
			}
		}

		if !win.IsOpen() {
			return nil
		}

		if remaining := frameDelay - time.Since(start); remaining > 0 {
			select {
			case <-ctx.Done():
				fmt.Println("\nInterrupted by user")
				return nil
			case <-time.After(remaining):
			}
		} else if ctx.Err() != nil {
			fmt.Println("\nInterrupted by user")
			return nil
		}
	}
}

func saveName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%d.png", prefix, t.Unix())
}

func listMonitors(c *capture.Capturer) {
	fmt.Println("Available monitors:")
	for _, m := range c.Monitors() {
		fmt.Printf("  Monitor %d: %dx%d at (%d, %d)\n", m.Index, m.Width, m.Height, m.Left, m.Top)
	}
}

func main() {
	var (
		list      bool
		monitor   int
		regionArg string
		resize    float64
		fps       int
		logLevel  string
	)

	flag.BoolVar(&list, "list-monitors", false, "list available monitors and exit")
	flag.IntVar(&monitor, "monitor", 1, "monitor index to capture (0 is all monitors)")
	flag.StringVar(&regionArg, "region", "", "capture X,Y,WIDTH,HEIGHT instead of a full monitor")
	flag.Float64Var(&resize, "resize", 0.5, "resize factor for display")
	flag.IntVar(&fps, "fps", 30, "target frames per second")
	flag.StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	flag.Parse()

	logger, err := logging.New(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	capturer := capture.New(logger)

	if list {
		listMonitors(capturer)
		return
	}

	reg, err := parseRegion(regionArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if resize <= 0 {
		fmt.Fprintln(os.Stderr, "resize must be positive")
		os.Exit(2)
	}
	if fps <= 0 {
		fmt.Fprintln(os.Stderr, "fps must be positive")
		os.Exit(2)
	}

	fmt.Println("Window Capture Tool")
	fmt.Println("===================")

	s := &session{
		resize:   resize,
		fps:      fps,
		logger:   logger,
		now:      time.Now,
		saveFile: imaging.Save,
	}

	if reg != nil {
		s.title = fmt.Sprintf("Region Capture (%d,%d,%dx%d)", reg.X, reg.Y, reg.Width, reg.Height)
		s.prefix = "region_screenshot"
		s.grab = func() (image.Image, error) {
			return capturer.Region(reg.X, reg.Y, reg.Width, reg.Height)
		}
		fmt.Printf("Capturing region: (%d, %d) %dx%d\n", reg.X, reg.Y, reg.Width, reg.Height)
	} else {
		m, err := capturer.Resolve(monitor)
		if err != nil {
			logger.Fatal("no monitor to capture", zap.Error(err))
		}
		s.title = fmt.Sprintf("Monitor %d Capture", monitor)
		s.prefix = "screenshot"
		s.grab = func() (image.Image, error) {
			img, _, err := capturer.Monitor(m.Index)
			return img, err
		}
		fmt.Printf("Capturing: monitor %d %dx%d at (%d, %d)\n", m.Index, m.Width, m.Height, m.Left, m.Top)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("capture failed", zap.Error(err))
	}
}
