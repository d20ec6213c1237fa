package engine

import (
	"context"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/ivlev/slideshow/internal/renderer"
)

// State is the controller lifecycle.
type State int

const (
	Loading State = iota
	Ready
	Restarting
	Stopped
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Restarting:
		return "restarting"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Phase is the display cycle of the transition orchestrator.
type Phase int

const (
	Idle Phase = iota
	Preparing
	Animating
	Settled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Animating:
		return "animating"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// session is one run under a fixed settings snapshot. Every asynchronous
// operation captures the session it was started for and compares gen with
// the controller's current generation before committing anything.
type session struct {
	gen    uint64
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

func newSession(parent context.Context, gen uint64) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{gen: gen, id: uuid.NewString(), ctx: ctx, cancel: cancel}
}

// DisplaySlot is one of the two alternating image holders.
type DisplaySlot struct {
	Path  string
	Image image.Image
	State renderer.SlotState
}

func (s DisplaySlot) empty() bool {
	return s.Image == nil
}

func (s DisplaySlot) layer() renderer.Layer {
	return renderer.Layer{Path: s.Path, Image: s.Image, State: s.State}
}
