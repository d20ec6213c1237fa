package renderer

import (
	"strings"

	"github.com/ivlev/slideshow/internal/effects"
)

// SlotState is the transform and opacity of one display slot at a moment.
type SlotState struct {
	Opacity float64 // 0..1
	OffsetX float64 // pixels
	Scale   float64 // 1.0 = fit to viewport
	Angle   float64 // degrees, clockwise
}

// Identity is a fully visible, untransformed slot.
func Identity() SlotState {
	return SlotState{Opacity: 1, Scale: 1}
}

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(t float64) float64

// Linear is the default easing.
func Linear(t float64) float64 {
	return t
}

// EaseInOutCubic accelerates through the first half and decelerates through
// the second.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// EasingByName returns the easing called name, falling back to Linear.
func EasingByName(name string) Easing {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "smooth", "cubic", "ease-in-out":
		return EaseInOutCubic
	default:
		return Linear
	}
}

// Evaluate computes the slot state of track at progress t in [0,1]. width is
// W, the distance a TranslateX of 1 moves the slot.
func Evaluate(track effects.Track, t, width float64, ease Easing) SlotState {
	if ease == nil {
		ease = Linear
	}
	t = clamp(t, 0, 1)
	e := ease(t)

	s := Identity()
	for _, c := range track {
		v := lerp(c.From, c.To, e)
		switch c.Property {
		case effects.Opacity:
			s.Opacity = clamp(v, 0, 1)
		case effects.TranslateX:
			s.OffsetX = v * width
		case effects.Scale:
			s.Scale = v
		case effects.Angle:
			s.Angle = v
		}
	}
	return s
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
