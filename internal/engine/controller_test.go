package engine

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/renderer"
	"github.com/ivlev/slideshow/internal/source"
)

const waitFor = 2 * time.Second

type memStore struct {
	mu      sync.Mutex
	s       config.Settings
	saveErr error
	saves   int
}

func (m *memStore) Load() config.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

func (m *memStore) Save(s config.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.s = s
	return nil
}

type fakeDecoder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	gates map[string]chan struct{}
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
		gates: make(map[string]chan struct{}),
	}
}

// hold makes decodes of path block until the returned func is called.
func (d *fakeDecoder) hold(path string) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	gate := make(chan struct{})
	d.gates[path] = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (d *fakeDecoder) Decode(ctx context.Context, path string) (image.Image, error) {
	d.mu.Lock()
	d.calls[path]++
	fail := d.fail[path]
	gate := d.gates[path]
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &source.DecodeError{Path: path, Err: ctx.Err()}
		}
	}
	if fail {
		return nil, &source.DecodeError{Path: path, Err: errors.New("corrupt")}
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

func (d *fakeDecoder) count(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[path]
}

type recordingDisplay struct {
	mu     sync.Mutex
	frames []renderer.Frame
}

func (r *recordingDisplay) Present(f renderer.Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *recordingDisplay) all() []renderer.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

func (r *recordingDisplay) last() renderer.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return renderer.Frame{}
	}
	return r.frames[len(r.frames)-1]
}

// instantAnimator jumps straight to the end of both tracks.
type instantAnimator struct {
	mu    sync.Mutex
	pairs []effects.Pair
}

func (a *instantAnimator) Animate(ctx context.Context, pair effects.Pair, width float64, draw func(out, in renderer.SlotState)) error {
	a.mu.Lock()
	a.pairs = append(a.pairs, pair)
	a.mu.Unlock()
	draw(renderer.Evaluate(pair.Out, 1, width, nil), renderer.Evaluate(pair.In, 1, width, nil))
	return nil
}

// gatedAnimator blocks until released and ignores cancellation, so a
// transition can outlive the session that started it.
type gatedAnimator struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedAnimator() *gatedAnimator {
	return &gatedAnimator{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (a *gatedAnimator) Animate(ctx context.Context, pair effects.Pair, width float64, draw func(out, in renderer.SlotState)) error {
	draw(renderer.Evaluate(pair.Out, 0, width, nil), renderer.Evaluate(pair.In, 0, width, nil))
	a.started <- struct{}{}
	<-a.release
	draw(renderer.Evaluate(pair.Out, 1, width, nil), renderer.Evaluate(pair.In, 1, width, nil))
	return nil
}

func (a *gatedAnimator) Release() {
	a.once.Do(func() { close(a.release) })
}

type harness struct {
	ctrl    *Controller
	store   *memStore
	decoder *fakeDecoder
	display *recordingDisplay
	folders map[string][]string
}

func testSettings(folder string) config.Settings {
	s := config.Defaults()
	s.ImageFolderPath = folder
	s.ImageDisplayTimeSeconds = 3600
	return s
}

func newHarness(t *testing.T, folders map[string][]string, folder string, anim Animator) *harness {
	t.Helper()
	h := &harness{
		store:   &memStore{s: testSettings(folder)},
		decoder: newFakeDecoder(),
		display: &recordingDisplay{},
		folders: folders,
	}
	if anim == nil {
		anim = &instantAnimator{}
	}

	ctrl, err := New(Options{
		Store:   h.store,
		Decoder: h.decoder,
		Display: h.display,
		Scan: func(folder string, shuffle bool) (*source.Catalog, error) {
			return source.NewCatalog(slices.Clone(h.folders[folder])), nil
		},
		Animator:      anim,
		FallbackPause: 10 * time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("controller did not stop")
		}
	})
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	s, err := h.ctrl.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func (h *harness) waitUntil(t *testing.T, cond func(Snapshot) bool, msg string) Snapshot {
	t.Helper()
	var (
		mu   sync.Mutex
		last Snapshot
	)
	require.Eventually(t, func() bool {
		s, err := h.ctrl.Snapshot(context.Background())
		if err != nil {
			return false
		}
		mu.Lock()
		last = s
		mu.Unlock()
		return cond(s)
	}, waitFor, 5*time.Millisecond, msg)
	mu.Lock()
	defer mu.Unlock()
	return last
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Tick(context.Background()))
}

// advance waits for next to be preloaded, ticks, and waits for it to settle.
func (h *harness) advance(t *testing.T, next string) Snapshot {
	t.Helper()
	h.waitUntil(t, func(s Snapshot) bool { return s.Preloaded == next && s.Phase == Settled }, "preload of "+next)
	h.tick(t)
	return h.waitUntil(t, func(s Snapshot) bool { return s.Primary == next && s.Phase == Settled }, "display of "+next)
}

func TestController_InitialThenAlternate(t *testing.T) {
	anim := &instantAnimator{}
	h := newHarness(t, map[string][]string{"pics": {"A.jpg", "B.jpg"}}, "pics", anim)
	h.start(t)

	s := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "A.jpg" }, "initial display")
	assert.Equal(t, Ready, s.State)
	assert.Equal(t, Settled, s.Phase)
	assert.Equal(t, 0, s.Cursor)

	s = h.waitUntil(t, func(s Snapshot) bool { return s.Preloaded == "B.jpg" }, "preload of B")
	assert.True(t, s.Ticking)
	anim.mu.Lock()
	assert.Empty(t, anim.pairs, "initial display must not animate")
	anim.mu.Unlock()

	s = h.advance(t, "B.jpg")
	assert.Equal(t, 1, s.Cursor)
	assert.Empty(t, s.Secondary, "outgoing slot is cleared")

	h.waitUntil(t, func(s Snapshot) bool { return s.Preloaded == "A.jpg" }, "fresh preload of A")
	assert.Equal(t, 2, h.decoder.count("A.jpg"))

	anim.mu.Lock()
	require.Len(t, anim.pairs, 1)
	want, _ := effects.Builtin().Lookup(config.FullReplace, config.Fade)
	assert.Equal(t, want, anim.pairs[0])
	anim.mu.Unlock()

	last := h.display.last()
	require.Len(t, last.Layers, 1)
	assert.Equal(t, "B.jpg", last.Top())
	assert.Equal(t, renderer.Identity(), last.Layers[0].State)
}

func TestController_PreloadIsIdempotent(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a", "b", "c"}}, "pics", nil)
	release := h.decoder.hold("b")
	t.Cleanup(release)
	h.start(t)

	h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "a" && s.Inflight == "b" }, "preload in flight")

	// Ticks with an empty slot ask for a preload again; the in-flight one absorbs them.
	h.tick(t)
	h.tick(t)
	s := h.snapshot(t)
	assert.Equal(t, 1, h.decoder.count("b"))
	assert.Equal(t, "a", s.Primary)
	assert.Equal(t, int64(2), s.Decodes)

	release()
	s = h.waitUntil(t, func(s Snapshot) bool { return s.Preloaded == "b" }, "preload done")
	assert.Empty(t, s.Inflight)
	assert.Equal(t, 1, h.decoder.count("b"))
}

func TestController_CursorCycles(t *testing.T) {
	paths := []string{"a", "b", "c"}
	h := newHarness(t, map[string][]string{"pics": paths}, "pics", nil)
	h.start(t)

	start := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "a" }, "initial").Cursor
	for i := 1; i <= len(paths); i++ {
		next := paths[(start+i)%len(paths)]
		s := h.advance(t, next)
		assert.Equal(t, (start+i)%len(paths), s.Cursor)
	}
	assert.Equal(t, start, h.snapshot(t).Cursor)
}

func TestController_UnreadableImageIsRemoved(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a", "b", "c", "d"}}, "pics", nil)
	h.decoder.fail["b"] = true
	h.start(t)

	s := h.waitUntil(t, func(s Snapshot) bool { return len(s.Paths) == 3 }, "b removed")
	assert.Equal(t, []string{"a", "c", "d"}, s.Paths)
	assert.Equal(t, "a", s.Primary)
	assert.Equal(t, 0, s.Cursor)
	assert.Empty(t, s.Preloaded, "no retry inside the failed request")

	// The next tick finds the slot empty and requests the new next image.
	h.tick(t)
	s = h.advance(t, "c")
	assert.Equal(t, 1, s.Cursor)
	assert.Equal(t, 1, h.decoder.count("b"))
}

func TestController_InitialFailureRetries(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a", "b", "c"}}, "pics", nil)
	h.decoder.fail["a"] = true
	h.start(t)

	s := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "b" }, "first readable image")
	assert.Equal(t, []string{"b", "c"}, s.Paths)
	assert.Equal(t, 0, s.Cursor)
}

func TestController_ExhaustionIdles(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a", "b"}}, "pics", nil)
	h.decoder.fail["a"] = true
	h.decoder.fail["b"] = true
	h.start(t)

	s := h.waitUntil(t, func(s Snapshot) bool { return len(s.Paths) == 0 }, "catalog exhausted")
	assert.Equal(t, Idle, s.Phase)
	assert.Equal(t, Ready, s.State)
	assert.False(t, s.Ticking)
	assert.Equal(t, int64(2), s.Decodes)
	assert.True(t, h.display.last().Empty())
}

func TestController_MissingFolderIdles(t *testing.T) {
	h := newHarness(t, map[string][]string{}, "/does/not/exist", nil)
	h.start(t)

	s := h.waitUntil(t, func(s Snapshot) bool { return s.State == Ready }, "idle")
	assert.Equal(t, Idle, s.Phase)
	assert.False(t, s.Ticking)
	assert.Zero(t, s.Decodes)
	assert.Empty(t, s.Paths)

	h.tick(t)
	s = h.snapshot(t)
	assert.Zero(t, s.Decodes)
	assert.Equal(t, Idle, s.Phase)

	frames := h.display.all()
	require.NotEmpty(t, frames)
	for _, f := range frames {
		assert.True(t, f.Empty())
	}
}

func TestController_SingleImage(t *testing.T) {
	anim := &instantAnimator{}
	h := newHarness(t, map[string][]string{"pics": {"only"}}, "pics", anim)
	h.start(t)

	h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "only" }, "initial")
	before := len(h.display.all())

	for i := 0; i < 3; i++ {
		h.tick(t)
	}
	s := h.waitUntil(t, func(Snapshot) bool { return len(h.display.all()) >= before+3 }, "re-presented")
	assert.Equal(t, "only", s.Primary)
	assert.Equal(t, Settled, s.Phase)
	assert.Equal(t, 1, h.decoder.count("only"))
	assert.Empty(t, s.Preloaded)

	anim.mu.Lock()
	assert.Empty(t, anim.pairs)
	anim.mu.Unlock()
	for _, f := range h.display.all() {
		require.Len(t, f.Layers, 1)
		assert.Equal(t, "only", f.Top())
	}
}

func TestController_RestartDuringAnimationDiscardsIt(t *testing.T) {
	anim := newGatedAnimator()
	h := newHarness(t, map[string][]string{
		"old": {"a", "b"},
		"new": {"x", "y"},
	}, "old", anim)
	h.start(t)
	t.Cleanup(anim.Release)

	h.waitUntil(t, func(s Snapshot) bool { return s.Preloaded == "b" }, "preload b")
	h.tick(t)
	select {
	case <-anim.started:
	case <-time.After(waitFor):
		t.Fatal("animation did not start")
	}
	require.Equal(t, Animating, h.snapshot(t).Phase)

	h.store.mu.Lock()
	h.store.s = testSettings("new")
	h.store.mu.Unlock()
	require.NoError(t, h.ctrl.Restart(context.Background()))

	s := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "x" && s.Phase == Settled }, "new session")
	assert.Equal(t, uint64(2), s.Generation)
	anim.Release()

	// Let the old animation finish and try to publish.
	time.Sleep(50 * time.Millisecond)
	s = h.snapshot(t)
	assert.Equal(t, "x", s.Primary)
	assert.Empty(t, s.Secondary)
	assert.Equal(t, Settled, s.Phase)

	frames := h.display.all()
	firstNew := slices.IndexFunc(frames, func(f renderer.Frame) bool { return f.Generation == 2 })
	require.GreaterOrEqual(t, firstNew, 0)
	for _, f := range frames[firstNew:] {
		assert.Equal(t, uint64(2), f.Generation)
		for _, l := range f.Layers {
			assert.NotContains(t, []string{"a", "b"}, l.Path)
		}
	}
}

func TestController_RestartDropsStalePreload(t *testing.T) {
	h := newHarness(t, map[string][]string{
		"old": {"a", "b"},
		"new": {"x", "y"},
	}, "old", nil)
	release := h.decoder.hold("b")
	t.Cleanup(release)
	h.start(t)

	h.waitUntil(t, func(s Snapshot) bool { return s.Inflight == "b" }, "b in flight")

	h.store.mu.Lock()
	h.store.s = testSettings("new")
	h.store.mu.Unlock()
	require.NoError(t, h.ctrl.Restart(context.Background()))
	release()

	s := h.waitUntil(t, func(s Snapshot) bool { return s.Preloaded == "y" }, "new preload")
	assert.Equal(t, "x", s.Primary)
	assert.NotContains(t, s.Paths, "b")
}

func TestController_PauseResume(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a", "b"}}, "pics", nil)
	h.start(t)
	h.waitUntil(t, func(s Snapshot) bool { return s.Ticking }, "ticker running")

	require.NoError(t, h.ctrl.Pause(context.Background()))
	s := h.snapshot(t)
	assert.True(t, s.Paused)
	assert.False(t, s.Ticking)

	require.NoError(t, h.ctrl.Resume(context.Background()))
	s = h.snapshot(t)
	assert.False(t, s.Paused)
	assert.True(t, s.Ticking)
	assert.Equal(t, uint64(1), s.Generation, "resume keeps the session")
}

func TestController_ApplySettings(t *testing.T) {
	h := newHarness(t, map[string][]string{"old": {"a"}, "new": {"x", "y"}}, "old", nil)
	h.start(t)
	h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "a" }, "initial")

	next := testSettings("new")
	next.TransitionMode = config.Slide
	require.NoError(t, h.ctrl.ApplySettings(context.Background(), next))

	s := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "x" }, "new folder")
	assert.Equal(t, next, s.Settings)
	assert.Equal(t, next, h.store.Load())
}

func TestController_ApplySettingsSaveFailure(t *testing.T) {
	h := newHarness(t, map[string][]string{"old": {"a"}, "new": {"x"}}, "old", nil)
	diskFull := errors.New("disk full")
	h.store.saveErr = diskFull
	h.start(t)
	h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "a" }, "initial")

	next := testSettings("new")
	err := h.ctrl.ApplySettings(context.Background(), next)
	require.ErrorIs(t, err, diskFull)

	s := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "x" }, "restarted with unsaved settings")
	assert.Equal(t, next, s.Settings)
	assert.Equal(t, uint64(2), s.Generation)
}

func TestController_ApplySettingsRejectsInvalid(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a"}}, "pics", nil)
	h.start(t)

	bad := testSettings("pics")
	bad.ImageDisplayTimeSeconds = 0
	require.Error(t, h.ctrl.ApplySettings(context.Background(), bad))
	assert.Zero(t, h.store.saves)
}

func TestController_OutOfRangeDisplayTime(t *testing.T) {
	for _, secs := range []int{math.MaxInt, -1} {
		t.Run(strconv.Itoa(secs), func(t *testing.T) {
			h := newHarness(t, map[string][]string{"pics": {"a", "b"}}, "pics", nil)
			h.store.s.ImageDisplayTimeSeconds = secs
			h.start(t)

			s := h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "a" && s.Ticking }, "initial display with a running ticker")
			assert.Equal(t, Ready, s.State)

			bad := testSettings("pics")
			bad.ImageDisplayTimeSeconds = secs
			require.Error(t, h.ctrl.ApplySettings(context.Background(), bad))
		})
	}
}

func TestController_UnmappedEffectPauses(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a", "b"}}, "pics", nil)
	h.ctrl.effects = &effects.Table{}
	h.start(t)

	s := h.advance(t, "b")
	assert.Empty(t, s.Secondary)
	last := h.display.last()
	require.Len(t, last.Layers, 1)
	assert.Equal(t, "b", last.Top())
}

func TestController_StoppedCalls(t *testing.T) {
	h := newHarness(t, map[string][]string{"pics": {"a"}}, "pics", nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()
	h.waitUntil(t, func(s Snapshot) bool { return s.Primary == "a" }, "initial")

	cancel()
	require.NoError(t, <-done)
	assert.ErrorIs(t, h.ctrl.Tick(context.Background()), ErrStopped)
	_, err := h.ctrl.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
	assert.Error(t, h.ctrl.Run(context.Background()))
}

func TestEffectWidth(t *testing.T) {
	c := &Controller{}
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))

	assert.Equal(t, 200.0, c.effectWidth(img))

	c.SetViewport(100, 100)
	assert.Equal(t, 100.0, c.effectWidth(img))

	c.SetViewport(400, 100)
	assert.Equal(t, 200.0, c.effectWidth(img))

	c.SetViewport(300, 0)
	assert.Equal(t, 300.0, c.effectWidth(img))
}

func TestTimedAnimator(t *testing.T) {
	pair, ok := effects.Builtin().Lookup(config.FullReplace, config.SlideLeft)
	require.True(t, ok)

	a := &TimedAnimator{Duration: 40 * time.Millisecond, FPS: 200}
	var mu sync.Mutex
	var out, in renderer.SlotState
	frames := 0
	err := a.Animate(context.Background(), pair, 100, func(o, i renderer.SlotState) {
		mu.Lock()
		out, in = o, i
		frames++
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Greater(t, frames, 2)
	assert.InDelta(t, -100, out.OffsetX, 1e-9)
	assert.InDelta(t, 0, in.OffsetX, 1e-9)
}

func TestTimedAnimator_ExcessiveFPSIsCapped(t *testing.T) {
	pair, _ := effects.Builtin().Lookup(config.FullReplace, config.Fade)
	a := &TimedAnimator{Duration: 20 * time.Millisecond, FPS: math.MaxInt}
	var last renderer.SlotState
	err := a.Animate(context.Background(), pair, 100, func(o, i renderer.SlotState) { last = i })
	require.NoError(t, err)
	assert.InDelta(t, 1, last.Opacity, 1e-9)
}

func TestTimedAnimator_Cancelled(t *testing.T) {
	pair, _ := effects.Builtin().Lookup(config.FullReplace, config.Fade)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &TimedAnimator{Duration: time.Hour}
	err := a.Animate(ctx, pair, 100, func(o, i renderer.SlotState) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPresenterDropsOtherGenerations(t *testing.T) {
	d := &recordingDisplay{}
	p := &presenter{display: d}
	p.advance(3)

	assert.False(t, p.present(renderer.Frame{Generation: 2}))
	assert.True(t, p.present(renderer.Frame{Generation: 3}))
	assert.Len(t, d.all(), 1)
}
