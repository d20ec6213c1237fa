package engine

import (
	"context"
	"errors"
	"image"
)

// preloadSlot is the single-entry mailbox between the background decoder
// and the orchestrator. It is either empty, waiting on one decode, or
// holding one decoded image.
type preloadSlot struct {
	inflight string
	path     string
	image    image.Image
}

func (s *preloadSlot) busy() bool {
	return s.inflight != "" || s.image != nil
}

func (s *preloadSlot) ready() bool {
	return s.image != nil
}

func (s *preloadSlot) take() (string, image.Image) {
	path, img := s.path, s.image
	*s = preloadSlot{}
	return path, img
}

type preloadResult struct {
	gen   uint64
	path  string
	image image.Image
	err   error
}

// preloadNext decodes the image after the cursor ahead of time. It does
// nothing when fewer than two images exist or the slot is already busy.
func (c *Controller) preloadNext() {
	if c.catalog.Len() < 2 {
		return
	}
	c.requestDecode()
}

// requestDecode starts the decode of index cursor+1 without the size guard;
// the initial display of a one-image catalog goes through here.
func (c *Controller) requestDecode() {
	n := c.catalog.Len()
	if n == 0 || c.preload.busy() {
		return
	}

	path := c.catalog.At(c.cursor + 1)
	c.preload.inflight = path
	c.decodes.Add(1)

	sess := c.sess
	c.spawn(func() {
		img, err := c.decoder.Decode(sess.ctx, path)
		c.deliver(sess, preloadResult{gen: sess.gen, path: path, image: img, err: err})
	})
}

func (c *Controller) handlePreload(r preloadResult) {
	if r.gen != c.gen {
		c.logger.Debug("discarding stale preload", "path", r.path, "generation", r.gen)
		return
	}
	c.preload.inflight = ""

	if r.err != nil {
		if errors.Is(r.err, context.Canceled) {
			return
		}
		c.dropUnreadable(r.path, r.err)
		if c.catalog.Len() == 0 {
			c.enterNoImages()
			return
		}
		if c.awaitingInitial {
			c.requestDecode()
		}
		return
	}

	c.preload.path = r.path
	c.preload.image = r.image
	if c.awaitingInitial {
		c.showNext(true)
	}
}

// dropUnreadable removes path from the catalog, keeping the cursor on the
// image it pointed at.
func (c *Controller) dropUnreadable(path string, err error) {
	c.logger.Warn("failed to load image, removing from list", "path", path, "error", err)

	i, ok := c.catalog.Remove(path)
	if !ok {
		return
	}
	if i <= c.cursor {
		c.cursor--
	}
	if n := c.catalog.Len(); n > 0 {
		c.cursor = ((c.cursor % n) + n) % n
	} else {
		c.cursor = -1
	}
}
