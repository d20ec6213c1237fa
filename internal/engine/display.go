package engine

import (
	"sync"

	"github.com/ivlev/slideshow/internal/renderer"
)

// Display receives every frame the engine wants shown. Present is called
// from the controller loop and from animation goroutines and must not
// block for long.
type Display interface {
	Present(frame renderer.Frame)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(frame renderer.Frame)

func (f DisplayFunc) Present(frame renderer.Frame) {
	f(frame)
}

// presenter forwards frames of the current generation only, so an animation
// from a superseded session can never draw over its successor.
type presenter struct {
	mu      sync.Mutex
	gen     uint64
	display Display
}

func (p *presenter) advance(gen uint64) {
	p.mu.Lock()
	p.gen = gen
	p.mu.Unlock()
}

func (p *presenter) present(frame renderer.Frame) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if frame.Generation != p.gen || p.display == nil {
		return false
	}
	p.display.Present(frame)
	return true
}
