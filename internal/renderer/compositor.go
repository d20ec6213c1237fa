package renderer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Layer is one display slot as it should appear in a frame.
type Layer struct {
	Path  string
	Image image.Image
	State SlotState
}

// Frame is everything visible at one instant, layers drawn bottom to top.
// A frame without layers is the idle "no images" screen.
type Frame struct {
	Generation uint64
	Layers     []Layer
}

// Empty reports whether nothing is shown.
func (f Frame) Empty() bool {
	return len(f.Layers) == 0
}

// Top returns the path of the last drawn layer, or "".
func (f Frame) Top() string {
	if len(f.Layers) == 0 {
		return ""
	}
	return f.Layers[len(f.Layers)-1].Path
}

// Compositor rasterises frames into RGBA canvases. Each layer is fitted
// inside the canvas preserving its aspect ratio, then scaled, rotated
// about its centre, shifted horizontally and blended with its opacity.
type Compositor struct {
	Pool       *FramePool
	Background color.Color
	Kernel     draw.Interpolator
}

// NewCompositor returns a compositor with a black background.
func NewCompositor() *Compositor {
	return &Compositor{
		Pool:       NewFramePool(),
		Background: color.Black,
		Kernel:     draw.ApproxBiLinear,
	}
}

// Render draws f onto a w×h canvas taken from the pool. Return it with
// Release once it has been consumed.
func (c *Compositor) Render(f Frame, w, h int) *image.RGBA {
	bounds := image.Rect(0, 0, max(w, 1), max(h, 1))
	dst := c.Pool.Get(bounds)
	draw.Draw(dst, bounds, image.NewUniform(c.Background), image.Point{}, draw.Src)

	layer := c.Pool.Get(bounds)
	defer c.Pool.Put(layer)

	for _, l := range f.Layers {
		if l.Image == nil || l.State.Opacity <= 0 || l.State.Scale <= 0 {
			continue
		}
		clear(layer.Pix)
		c.Kernel.Transform(layer, Affine(l.Image.Bounds(), bounds, l.State), l.Image, l.Image.Bounds(), draw.Src, nil)

		mask := image.NewUniform(color.Alpha16{A: uint16(clamp(l.State.Opacity, 0, 1) * 0xffff)})
		draw.DrawMask(dst, bounds, layer, image.Point{}, mask, image.Point{}, draw.Over)
	}
	return dst
}

// Release returns a canvas produced by Render.
func (c *Compositor) Release(img *image.RGBA) {
	c.Pool.Put(img)
}

// Affine maps source pixels of an image with bounds src onto a canvas with
// bounds dst for the given slot state.
func Affine(src, dst image.Rectangle, s SlotState) f64.Aff3 {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	if sw == 0 || sh == 0 {
		return f64.Aff3{1, 0, 0, 0, 1, 0}
	}

	fit := math.Min(dw/sw, dh/sh)
	k := fit * s.Scale
	rad := s.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	a, b := k*cos, -k*sin
	d, e := k*sin, k*cos

	ox := float64(src.Min.X) + sw/2
	oy := float64(src.Min.Y) + sh/2
	tx := float64(dst.Min.X) + dw/2 + s.OffsetX
	ty := float64(dst.Min.Y) + dh/2

	return f64.Aff3{
		a, b, tx - (a*ox + b*oy),
		d, e, ty - (d*ox + e*oy),
	}
}
