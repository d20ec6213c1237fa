package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/engine"
	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/source"
	"github.com/ivlev/slideshow/internal/system"
	"github.com/ivlev/slideshow/internal/ui"
)

const (
	logFileName = "slideshow.log"
	// Longest image side kept after decoding; terminals never need more.
	maxDecodeSide = 4096
)

// Options configure the slideshow application.
type Options struct {
	SettingsPath string // empty uses settings.yaml next to the executable
	EffectsPath  string // optional custom effect table
	LogFile      string // empty uses slideshow.log next to the settings file
	LogLevel     string
	FPS          int
	Easing       string
}

// Run shows the slideshow until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	store, err := config.NewStore(opts.SettingsPath, nil)
	if err != nil {
		return err
	}

	logPath := opts.LogFile
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(store.Path()), logFileName)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger := NewLogger(logFile, opts.LogLevel)
	// Re-open the store with the file logger so repairs end up in the log.
	store, err = config.NewStore(store.Path(), logger)
	if err != nil {
		return err
	}
	system.InitResourceLimits(logger)

	table, err := effects.Load(opts.EffectsPath)
	if err != nil {
		return fmt.Errorf("load effect table: %w", err)
	}

	display := ui.NewFrameDisplay()
	ctrl, err := engine.New(engine.Options{
		Store:   store,
		Decoder: NewDecoder(logger),
		Display: display,
		Effects: table,
		Animator: &engine.TimedAnimator{
			Duration: effects.Duration,
			FPS:      opts.FPS,
			Easing:   renderer.EasingByName(opts.Easing),
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(gctx)
	})
	g.Go(func() error {
		// Leaving the window ends the slideshow.
		defer cancel()
		return ui.Run(gctx, ui.Options{
			Controller: ctrl,
			Display:    display,
			Compositor: renderer.NewCompositor(),
			Logger:     logger,
		})
	})
	return g.Wait()
}

// NewLogger returns a text logger writing to w at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else
// is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDecoder returns a file decoder whose size limit follows free memory.
func NewDecoder(logger *slog.Logger) *source.FileDecoder {
	side := maxDecodeSide
	if m, err := system.Memory(); err == nil {
		if budget := system.DecodeBudget(m); budget > 0 {
			side = min(side, int(math.Sqrt(float64(budget))))
		}
	} else {
		logger.Debug("memory stats unavailable, using default decode limit", "error", err)
	}
	side = max(side, 256)
	return &source.FileDecoder{MaxWidth: side, MaxHeight: side}
}
