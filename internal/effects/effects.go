package effects

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivlev/slideshow/internal/config"
)

// Duration is the length of every transition.
const Duration = 1500 * time.Millisecond

// Property is an animatable attribute of a display slot.
type Property int

const (
	Opacity Property = iota
	// TranslateX is expressed in multiples of the on-screen width W.
	TranslateX
	Scale
	// Angle is in degrees, clockwise.
	Angle
)

var propertyNames = []string{"opacity", "translateX", "scale", "angle"}

func (p Property) String() string {
	if p < 0 || int(p) >= len(propertyNames) {
		return fmt.Sprintf("Property(%d)", int(p))
	}
	return propertyNames[p]
}

func (p Property) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(propertyNames) {
		return nil, fmt.Errorf("invalid property %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Property) UnmarshalText(text []byte) error {
	for i, n := range propertyNames {
		if strings.EqualFold(n, strings.TrimSpace(string(text))) {
			*p = Property(i)
			return nil
		}
	}
	return fmt.Errorf("unknown property %q", string(text))
}

// Curve animates one property from From to To over the transition.
type Curve struct {
	Property Property `yaml:"property"`
	From     float64  `yaml:"from"`
	To       float64  `yaml:"to"`
}

// Track is the set of curves applied to one slot. Properties without a
// curve keep their identity value.
type Track []Curve

// Pair holds the outbound track for the primary slot and the inbound track
// for the secondary slot.
type Pair struct {
	Out Track `yaml:"out"`
	In  Track `yaml:"in"`
}

// Horizontal reports whether the pair moves a slot sideways and therefore
// needs a non-zero width.
func (p Pair) Horizontal() bool {
	for _, t := range []Track{p.Out, p.In} {
		for _, c := range t {
			if c.Property == TranslateX && (c.From != 0 || c.To != 0) {
				return true
			}
		}
	}
	return false
}

func fade(from, to float64) Curve  { return Curve{Property: Opacity, From: from, To: to} }
func slide(from, to float64) Curve { return Curve{Property: TranslateX, From: from, To: to} }
func zoom(from, to float64) Curve  { return Curve{Property: Scale, From: from, To: to} }
func turn(from, to float64) Curve  { return Curve{Property: Angle, From: from, To: to} }

func pair(out, in Track) Pair { return Pair{Out: out, In: in} }

func track(curves ...Curve) Track { return Track(curves) }

var (
	fadePair    = pair(track(fade(1, 0)), track(fade(0, 1)))
	slideLeft   = pair(track(slide(0, -1)), track(slide(1, 0)))
	slideRight  = pair(track(slide(0, 1)), track(slide(-1, 0)))
	zoomInPair  = pair(track(zoom(1, 0.5), fade(1, 0)), track(zoom(0.5, 1), fade(0, 1)))
	zoomOutPair = pair(track(zoom(1, 1.5), fade(1, 0)), track(zoom(1.5, 1), fade(0, 1)))
	rotatePair  = pair(track(turn(0, 90), fade(1, 0)), track(turn(-90, 0), fade(0, 1)))
	overlayPair = pair(track(fade(1, 0.5), turn(0, 10)), track(fade(0, 1), turn(-10, 0)))
)

// Builtin returns the stock mode/effect table.
func Builtin() *Table {
	t := newTable()
	t.exact[Key{config.FullReplace, config.Fade}] = fadePair
	t.exact[Key{config.FullReplace, config.SlideLeft}] = slideLeft
	t.exact[Key{config.FullReplace, config.SlideRight}] = slideRight
	t.exact[Key{config.FullReplace, config.ZoomIn}] = zoomInPair
	t.exact[Key{config.FullReplace, config.ZoomOut}] = zoomOutPair
	t.exact[Key{config.FullReplace, config.RotateEffect}] = rotatePair

	t.mode[config.PartialOverlay] = overlayPair
	t.mode[config.Slide] = slideLeft
	t.mode[config.Scale] = zoomInPair
	t.mode[config.Rotate] = rotatePair
	return t
}
