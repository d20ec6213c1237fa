package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/source"
	"github.com/ivlev/slideshow/internal/system"
)

// ErrStopped is returned by calls made after Run has returned.
var ErrStopped = errors.New("engine: controller stopped")

// Store persists the user settings.
type Store interface {
	Load() config.Settings
	Save(s config.Settings) error
}

// Scanner builds the image catalog for a folder.
type Scanner func(folder string, shuffle bool) (*source.Catalog, error)

type Options struct {
	Store    Store
	Scan     Scanner
	Decoder  source.Decoder
	Display  Display
	Effects  *effects.Table
	Animator Animator
	Logger   *slog.Logger

	// FallbackPause replaces a transition that has no effect to play.
	FallbackPause time.Duration
	// Rand drives shuffling when Scan is not set.
	Rand *rand.Rand
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State      State
	Phase      Phase
	Generation uint64
	SessionID  string
	Settings   config.Settings
	Paths      []string
	Cursor     int
	Preloaded  string
	Inflight   string
	Primary    string
	Secondary  string
	Paused     bool
	Ticking    bool
	Decodes    int64
}

// Controller owns the rotation: settings, catalog, cursor, preload slot and
// the two display slots. All of it is mutated only by the goroutine inside
// Run; public methods post events to that goroutine.
type Controller struct {
	store         Store
	scan          Scanner
	decoder       source.Decoder
	effects       *effects.Table
	animator      Animator
	logger        *slog.Logger
	fallbackPause time.Duration
	presenter     *presenter

	events  chan any
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	decodes atomic.Int64
	viewW   atomic.Int64
	viewH   atomic.Int64

	// loop-owned
	root            context.Context
	state           State
	settings        config.Settings
	sess            *session
	gen             uint64
	catalog         *source.Catalog
	cursor          int
	preload         preloadSlot
	slots           [2]DisplaySlot
	primary         int
	phase           Phase
	shown           bool
	awaitingInitial bool
	paused          bool
	ticker          *time.Ticker
}

type restartEvent struct {
	override *config.Settings
	reply    chan struct{}
}

type pauseEvent struct{}

type resumeEvent struct{}

type tickEvent struct{}

type snapshotEvent struct {
	reply chan Snapshot
}

func New(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: settings store is required")
	}
	if opts.Decoder == nil {
		return nil, errors.New("engine: decoder is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Effects == nil {
		opts.Effects = effects.Builtin()
	}
	if opts.Animator == nil {
		opts.Animator = &TimedAnimator{}
	}
	if opts.FallbackPause <= 0 {
		opts.FallbackPause = defaultFallbackPause
	}
	if opts.Scan == nil {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		opts.Scan = func(folder string, shuffle bool) (*source.Catalog, error) {
			return source.Scan(folder, shuffle, rng)
		}
	}

	return &Controller{
		store:         opts.Store,
		scan:          opts.Scan,
		decoder:       opts.Decoder,
		effects:       opts.Effects,
		animator:      opts.Animator,
		logger:        opts.Logger,
		fallbackPause: opts.FallbackPause,
		presenter:     &presenter{display: opts.Display},
		events:        make(chan any, 16),
		done:          make(chan struct{}),
		catalog:       source.NewCatalog(nil),
		cursor:        -1,
	}, nil
}

// Run starts the first session and processes events until ctx is done. It
// cancels the session and waits for its background work before returning.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("engine: controller already running")
	}
	c.root = ctx
	c.restart(nil)

	defer func() {
		c.stopTicker()
		if c.sess != nil {
			c.sess.cancel()
		}
		c.state = Stopped
		close(c.done)
		c.wg.Wait()
		c.logger.Debug("controller stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.tickC():
			c.showNext(false)
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) handle(ev any) {
	switch ev := ev.(type) {
	case restartEvent:
		c.restart(ev.override)
		close(ev.reply)
	case pauseEvent:
		c.paused = true
		c.stopTicker()
	case resumeEvent:
		c.paused = false
		if c.shown && c.catalog.Len() > 0 {
			c.startTicker()
		}
	case tickEvent:
		if c.shown {
			c.showNext(false)
		}
	case snapshotEvent:
		ev.reply <- c.snapshot()
	case preloadResult:
		c.handlePreload(ev)
	case transitionDone:
		c.handleTransitionDone(ev)
	default:
		c.logger.Error("unknown controller event", "event", fmt.Sprintf("%T", ev))
	}
}

// Restart reloads settings and starts a new session. It returns once the
// new session has been set up; its first image is shown asynchronously.
func (c *Controller) Restart(ctx context.Context) error {
	return c.restartWith(ctx, nil)
}

// ApplySettings saves s and restarts with it. When saving fails the session
// still restarts with s and the save error is returned.
func (c *Controller) ApplySettings(ctx context.Context, s config.Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}

	saveErr := c.store.Save(s)
	var override *config.Settings
	if saveErr != nil {
		c.logger.Warn("failed to save settings, using them for this session only", "error", saveErr)
		override = &s
	}

	if err := c.restartWith(ctx, override); err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("save settings: %w", saveErr)
	}
	return nil
}

func (c *Controller) restartWith(ctx context.Context, override *config.Settings) error {
	reply := make(chan struct{})
	if err := c.post(ctx, restartEvent{override: override, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// Pause stops automatic advancing, typically while the settings editor is open.
func (c *Controller) Pause(ctx context.Context) error {
	return c.post(ctx, pauseEvent{})
}

// Resume undoes Pause without changing settings.
func (c *Controller) Resume(ctx context.Context) error {
	return c.post(ctx, resumeEvent{})
}

// Tick advances as if the display interval had elapsed.
func (c *Controller) Tick(ctx context.Context) error {
	return c.post(ctx, tickEvent{})
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := c.post(ctx, snapshotEvent{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrStopped
	}
}

// SetViewport records the display size used to resolve horizontal effects.
func (c *Controller) SetViewport(w, h int) {
	c.viewW.Store(int64(w))
	c.viewH.Store(int64(h))
}

func (c *Controller) Viewport() (int, int) {
	return int(c.viewW.Load()), int(c.viewH.Load())
}

func (c *Controller) post(ctx context.Context, ev any) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// spawn runs f in the background; Run waits for it before returning.
func (c *Controller) spawn(f func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f()
	}()
}

// deliver hands a background result to the loop unless its session has
// ended or the loop is gone.
func (c *Controller) deliver(sess *session, ev any) {
	select {
	case c.events <- ev:
	case <-sess.ctx.Done():
	case <-c.done:
	}
}

func (c *Controller) restart(override *config.Settings) {
	c.state = Restarting
	c.stopTicker()
	if c.sess != nil {
		c.sess.cancel()
	}
	c.gen++
	c.sess = newSession(c.root, c.gen)
	c.presenter.advance(c.gen)

	c.preload = preloadSlot{}
	c.slots = [2]DisplaySlot{}
	c.primary = 0
	c.phase = Idle
	c.shown = false
	c.paused = false
	c.awaitingInitial = false

	if override != nil {
		c.settings = *override
	} else {
		c.settings = c.store.Load()
	}
	c.logger.Info("restarting with new settings",
		"session", c.sess.id,
		"generation", c.gen,
		"folder", c.settings.ImageFolderPath,
		"interval", c.settings.Interval(),
		"shuffle", c.settings.Shuffle,
		"mode", c.settings.TransitionMode,
		"effect", c.settings.TransitionEffect,
	)
	c.logMemory()

	cat, err := c.scan(c.settings.ImageFolderPath, c.settings.Shuffle)
	if err != nil {
		c.logger.Warn("could not scan image folder", "folder", c.settings.ImageFolderPath, "error", err)
		cat = nil
	}
	if cat == nil {
		cat = source.NewCatalog(nil)
	}
	c.catalog = cat
	c.logger.Info("found images", "count", cat.Len(), "folder", c.settings.ImageFolderPath)

	if cat.Len() == 0 {
		c.enterNoImages()
		return
	}

	c.cursor = cat.Len() - 1
	c.state = Loading
	c.awaitingInitial = true
	c.requestDecode()
}

// enterNoImages idles the session: no timer, no decode, an empty frame.
func (c *Controller) enterNoImages() {
	c.logger.Warn("no images to show", "folder", c.settings.ImageFolderPath)
	c.stopTicker()
	c.preload = preloadSlot{}
	c.slots = [2]DisplaySlot{}
	c.primary = 0
	c.phase = Idle
	c.shown = false
	c.awaitingInitial = false
	c.cursor = -1
	c.state = Ready
	c.presenter.present(renderer.Frame{Generation: c.gen})
}

func (c *Controller) startTicker() {
	if c.paused {
		return
	}
	d := c.settings.Interval()
	if d <= 0 {
		c.logger.Warn("display time out of range, using default", "seconds", c.settings.ImageDisplayTimeSeconds)
		d = config.Defaults().Interval()
	}
	if c.ticker != nil {
		c.ticker.Reset(d)
		return
	}
	c.ticker = time.NewTicker(d)
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Controller) tickC() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C
}

func (c *Controller) logMemory() {
	if !c.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	m, err := system.Memory()
	if err != nil {
		c.logger.Debug("memory stats unavailable", "error", err)
		return
	}
	c.logger.Debug("memory", "total", m.Total, "available", m.Available, "used", m.Used)
}

func (c *Controller) snapshot() Snapshot {
	s := Snapshot{
		State:      c.state,
		Phase:      c.phase,
		Generation: c.gen,
		Settings:   c.settings,
		Paths:      c.catalog.Paths(),
		Cursor:     c.cursor,
		Preloaded:  c.preload.path,
		Inflight:   c.preload.inflight,
		Primary:    c.slots[c.primary].Path,
		Secondary:  c.slots[1-c.primary].Path,
		Paused:     c.paused,
		Ticking:    c.ticker != nil,
		Decodes:    c.decodes.Load(),
	}
	if c.sess != nil {
		s.SessionID = c.sess.id
	}
	return s
}
