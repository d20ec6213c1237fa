package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/slideshow/internal/renderer"
)

// FrameDisplay keeps only the newest frame handed over by the engine. A
// frame that arrives before the previous one was drawn simply replaces it.
type FrameDisplay struct {
	mu     sync.Mutex
	frame  renderer.Frame
	fresh  bool
	notify chan struct{}
}

func NewFrameDisplay() *FrameDisplay {
	return &FrameDisplay{notify: make(chan struct{}, 1)}
}

// Present implements engine.Display.
func (d *FrameDisplay) Present(f renderer.Frame) {
	d.mu.Lock()
	d.frame = f
	d.fresh = true
	d.mu.Unlock()

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Latest returns the newest frame and whether it has not been taken yet.
func (d *FrameDisplay) Latest() (renderer.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fresh := d.fresh
	d.fresh = false
	return d.frame, fresh
}

type frameMsg struct {
	frame renderer.Frame
}

// waitFrame blocks until a new frame is presented.
func waitFrame(d *FrameDisplay) tea.Cmd {
	return func() tea.Msg {
		for {
			<-d.notify
			if f, ok := d.Latest(); ok {
				return frameMsg{frame: f}
			}
		}
	}
}
