package engine

import (
	"context"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/slideshow/internal/effects"
	"github.com/ivlev/slideshow/internal/renderer"
)

const (
	defaultFPS           = 30
	maxFPS               = 120
	defaultFallbackPause = 500 * time.Millisecond
)

// Animator plays an effect pair, calling draw with the outbound and inbound
// slot states as they change. It returns once both tracks have finished or
// ctx is done.
type Animator interface {
	Animate(ctx context.Context, pair effects.Pair, width float64, draw func(out, in renderer.SlotState)) error
}

// TimedAnimator runs both tracks of a pair concurrently against the wall
// clock.
type TimedAnimator struct {
	Duration time.Duration
	FPS      int
	Easing   renderer.Easing
}

func (a *TimedAnimator) Animate(ctx context.Context, pair effects.Pair, width float64, draw func(out, in renderer.SlotState)) error {
	d := a.Duration
	if d <= 0 {
		d = effects.Duration
	}
	fps := a.FPS
	if fps <= 0 {
		fps = defaultFPS
	}
	fps = min(fps, maxFPS)

	var mu sync.Mutex
	out := renderer.Evaluate(pair.Out, 0, width, a.Easing)
	in := renderer.Evaluate(pair.In, 0, width, a.Easing)
	draw(out, in)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	run := func(track effects.Track, set func(renderer.SlotState)) func() error {
		return func() error {
			ticker := time.NewTicker(time.Second / time.Duration(fps))
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
				}
				p := float64(time.Since(start)) / float64(d)
				st := renderer.Evaluate(track, p, width, a.Easing)

				mu.Lock()
				set(st)
				draw(out, in)
				mu.Unlock()

				if p >= 1 {
					return nil
				}
			}
		}
	}
	g.Go(run(pair.Out, func(s renderer.SlotState) { out = s }))
	g.Go(run(pair.In, func(s renderer.SlotState) { in = s }))
	return g.Wait()
}

type transitionDone struct {
	gen uint64
	err error
}

// showNext advances to the preloaded image. The first image of a session is
// shown without animation; later ones play the configured transition.
func (c *Controller) showNext(initial bool) {
	n := c.catalog.Len()
	if n == 0 || c.phase == Preparing || c.phase == Animating {
		return
	}

	if !initial && n < 2 && c.shown {
		// Nothing else to advance to; keep showing the one image.
		c.presentSettled()
		return
	}

	if !c.preload.ready() {
		if !initial {
			c.logger.Debug("next image not ready, skipping cycle")
			c.preloadNext()
		}
		return
	}

	path, img := c.preload.take()
	c.cursor = (c.cursor + 1) % n
	c.logger.Info("showing image", "path", path, "index", c.cursor, "session", c.sess.id)

	primary, secondary := c.primary, 1-c.primary
	c.slots[secondary] = DisplaySlot{Path: path, Image: img}

	if initial {
		c.slots[primary] = DisplaySlot{Path: path, Image: img, State: renderer.Identity()}
		c.slots[secondary] = DisplaySlot{}
		c.phase = Settled
		c.shown = true
		c.awaitingInitial = false
		c.state = Ready
		c.presentSettled()
		c.startTicker()
		c.preloadNext()
		return
	}

	c.phase = Preparing
	pair, ok := c.effects.Lookup(c.settings.TransitionMode, c.settings.TransitionEffect)
	width := c.effectWidth(img)
	if ok && pair.Horizontal() && width <= 0 {
		ok = false
	}
	if !ok {
		c.logger.Debug("no effect for transition, pausing instead",
			"mode", c.settings.TransitionMode, "effect", c.settings.TransitionEffect)
	}

	c.phase = Animating
	sess := c.sess
	outbound, inbound := c.slots[primary], c.slots[secondary]
	c.spawn(func() {
		var err error
		if ok {
			err = c.animator.Animate(sess.ctx, pair, width, func(o, i renderer.SlotState) {
				outbound.State, inbound.State = o, i
				c.presenter.present(renderer.Frame{
					Generation: sess.gen,
					Layers:     []renderer.Layer{outbound.layer(), inbound.layer()},
				})
			})
		} else {
			err = pause(sess.ctx, c.fallbackPause)
		}
		c.deliver(sess, transitionDone{gen: sess.gen, err: err})
	})
}

func (c *Controller) handleTransitionDone(r transitionDone) {
	if r.gen != c.gen {
		c.logger.Debug("discarding stale transition", "generation", r.gen)
		return
	}
	if r.err != nil {
		c.logger.Warn("transition ended early", "error", r.err)
	}

	old := c.primary
	c.slots[old] = DisplaySlot{}
	c.primary = 1 - old
	c.slots[c.primary].State = renderer.Identity()
	c.phase = Settled

	c.presentSettled()
	c.preloadNext()
}

// effectWidth is W: the on-screen width of img inside the viewport, the
// viewport width when the image has no size, or the image width when no
// viewport is known.
func (c *Controller) effectWidth(img image.Image) float64 {
	vw, vh := c.Viewport()
	b := img.Bounds()
	iw, ih := b.Dx(), b.Dy()
	switch {
	case vw > 0 && vh > 0 && iw > 0 && ih > 0:
		return float64(iw) * min(float64(vw)/float64(iw), float64(vh)/float64(ih))
	case vw > 0:
		return float64(vw)
	default:
		return float64(iw)
	}
}

func (c *Controller) presentSettled() {
	var layers []renderer.Layer
	if s := c.slots[c.primary]; !s.empty() {
		layers = append(layers, s.layer())
	}
	c.presenter.present(renderer.Frame{Generation: c.gen, Layers: layers})
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
