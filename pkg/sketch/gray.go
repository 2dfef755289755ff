package sketch

import (
	"image"
	"image/color"
)

// Fixed-point BGR→GRAY weights (14 fractional bits).
const (
	grayShift = 14
	grayB     = 1868
	grayG     = 9617
	grayR     = 4899
	grayRound = 1 << (grayShift - 1)
)

// luma converts one 8-bit colour triple to luminance.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(b)*grayB + uint32(g)*grayG + uint32(r)*grayR + grayRound) >> grayShift)
}

// Grayscale converts src to an 8-bit luminance image with origin (0,0).
// Alpha is ignored: colour channels are read un-premultiplied.
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	switch s := src.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := s.Pix[y*s.Stride:]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				p := row[x*4 : x*4+3 : x*4+3]
				out[x] = luma(p[0], p[1], p[2])
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], s.Pix[y*s.Stride:])
		}
	default:
		for y := 0; y < h; y++ {
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				out[x] = luma(c.R, c.G, c.B)
			}
		}
	}
	return dst
}

// Invert returns 255 − v for every pixel of src.
func Invert(src *image.Gray) *image.Gray {
	src = compact(src)
	dst := image.NewGray(src.Rect)
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// compact returns g itself when it already has origin (0,0) and a stride
// equal to its width, otherwise a tightly packed copy.
func compact(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if b.Min == (image.Point{}) && g.Stride == w {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(out.Pix[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
	return out
}
