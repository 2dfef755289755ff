// Package preview renders the side-by-side "Original / Sketch" view.
//
// Panels always show a fixed square footprint (480×480 by default) resampled
// with a Lanczos filter, regardless of the source aspect ratio. Each panel
// owns its resized copy, so nothing here aliases the session's buffers.
//
// Two outputs are supported: a composed PNG-ready [image.NRGBA] via
// [SideBySide] and a terminal thumbnail via [ANSI].
package preview

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultSize is the side of each preview panel in pixels.
const DefaultSize = 480

// Accepted panel sides. The composed image is roughly 2·size × size.
const (
	MinSize = 16
	MaxSize = 4096
)

// Layout constants for the composed preview.
const (
	Padding     = 10
	labelHeight = 20
)

var (
	// Background fills the composed preview.
	Background = color.NRGBA{0x2e, 0x2e, 0x2e, 0xff}

	// PanelBackground fills an empty panel.
	PanelBackground = color.NRGBA{0x1e, 0x1e, 0x1e, 0xff}

	labelColor = color.NRGBA{0xff, 0xff, 0xff, 0xff}
)

// Panel titles.
const (
	TitleOriginal = "Original Image"
	TitleSketch   = "Sketch Image"
)

// Fit resamples img to size×size with the Lanczos filter. A non-positive
// size means DefaultSize. A nil or empty image yields nil.
func Fit(img image.Image, size int) *image.NRGBA {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// SideBySide composes the original and the sketch into one image: two
// size×size panels with a title above each, separated and surrounded by
// Padding pixels of Background. Either image may be nil, in which case
// its panel is left empty.
func SideBySide(original, sketch image.Image, size int) *image.NRGBA {
	if size <= 0 {
		size = DefaultSize
	}
	w := 3*Padding + 2*size
	h := 2*Padding + labelHeight + size
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	panels := []struct {
		title string
		img   image.Image
	}{
		{TitleOriginal, original},
		{TitleSketch, sketch},
	}
	for i, p := range panels {
		x := Padding + i*(size+Padding)
		y := Padding + labelHeight
		r := image.Rect(x, y, x+size, y+size)

		drawLabel(dst, p.title, x+size/2, Padding+labelHeight-6)
		draw.Draw(dst, r, image.NewUniform(PanelBackground), image.Point{}, draw.Src)
		if fitted := fitted(p.img, size); fitted != nil {
			draw.Draw(dst, r, fitted, image.Point{}, draw.Src)
		}
	}
	return dst
}

// fitted returns img unchanged when it already has the panel footprint.
func fitted(img image.Image, size int) image.Image {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	if b := img.Bounds(); b.Min == (image.Point{}) && b.Dx() == size && b.Dy() == size {
		return img
	}
	return Fit(img, size)
}

// drawLabel centres text horizontally on cx with its baseline at y.
func drawLabel(dst draw.Image, text string, cx, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.P(cx-width/2, y)
	d.DrawString(text)
}
