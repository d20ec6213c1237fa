package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Decoder turns a path into a decoded image. Implementations must return
// promptly once ctx is done.
type Decoder interface {
	Decode(ctx context.Context, path string) (image.Image, error)
}

// DecodeError reports an image that could not be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// FileDecoder decodes JPEG, PNG and BMP files from disk. When MaxWidth and
// MaxHeight are set, larger images are scaled down to fit inside them.
type FileDecoder struct {
	MaxWidth  int
	MaxHeight int
}

func (d *FileDecoder) Decode(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &DecodeError{Path: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	return d.fit(img), nil
}

func (d *FileDecoder) fit(img image.Image) image.Image {
	if d.MaxWidth <= 0 || d.MaxHeight <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= d.MaxWidth && h <= d.MaxHeight {
		return img
	}

	scale := min(float64(d.MaxWidth)/float64(w), float64(d.MaxHeight)/float64(h))
	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ctxReader fails the read that follows cancellation of ctx.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
