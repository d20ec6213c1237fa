package renderer

import (
	"image"
	"sync"
)

// FramePool recycles canvases of the current window size. A request for a
// new size drops the buffers of the old one, so a resized window does not
// keep stale canvases alive.
type FramePool struct {
	mu   sync.Mutex
	rect image.Rectangle
	pool *sync.Pool
}

func NewFramePool() *FramePool {
	return &FramePool{}
}

// Get returns a cleared buffer covering rect.
func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.poolFor(rect).Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

// Put hands img back. Buffers of a size no longer in use are left to the GC.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.Lock()
	pool := p.pool
	if img.Rect != p.rect {
		pool = nil
	}
	p.mu.Unlock()

	if pool != nil {
		pool.Put(img)
	}
}

func (p *FramePool) poolFor(rect image.Rectangle) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pool == nil || p.rect != rect {
		p.rect = rect
		p.pool = &sync.Pool{New: func() any { return image.NewRGBA(rect) }}
	}
	return p.pool
}
