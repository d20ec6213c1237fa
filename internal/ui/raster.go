package ui

import (
	"image"
	"strconv"
	"strings"
)

const upperHalf = "▀"

// rasterize turns img into terminal text using one upper half block per
// cell: the foreground colour is the upper pixel, the background the lower
// one. img is expected to be cols wide and 2*rows high.
func rasterize(img *image.RGBA, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(cols * rows * 40)
	for row := 0; row < rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < cols; col++ {
			top := img.RGBAAt(col, row*2)
			bottom := img.RGBAAt(col, row*2+1)
			writeColor(&b, "38", top.R, top.G, top.B)
			writeColor(&b, "48", bottom.R, bottom.G, bottom.B)
			b.WriteString(upperHalf)
		}
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

func writeColor(b *strings.Builder, layer string, r, g, bl uint8) {
	b.WriteString("\x1b[")
	b.WriteString(layer)
	b.WriteString(";2;")
	b.WriteString(strconv.Itoa(int(r)))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(g)))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(bl)))
	b.WriteByte('m')
}
