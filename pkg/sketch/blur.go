package sketch

import (
	"image"
	"math"
)

// GaussianBlur blurs src with a square Gaussian kernel of side k
// (forced odd), using the integer taps of [FixedKernel].
//
// The filter is separable. The horizontal pass is exact in 8.8 fixed
// point; the vertical pass accumulates 16.16 and rounds half up to 8 bits.
// Out-of-range taps use reflect-101 border extension.
func GaussianBlur(src *image.Gray, k int) *image.Gray {
	src = compact(src)
	kernel := FixedKernel(k)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	if w == 0 || h == 0 {
		return dst
	}
	if len(kernel) == 1 {
		copy(dst.Pix, src.Pix)
		return dst
	}

	half := len(kernel) / 2
	temp := make([]uint16, w*h)

	// Horizontal pass: each row is padded once, then convolved.
	padded := make([]uint16, w+2*half)
	for y := 0; y < h; y++ {
		row := src.Pix[y*w : (y+1)*w]
		for i := range padded {
			padded[i] = uint16(row[reflect101(i-half, w)])
		}
		out := temp[y*w : (y+1)*w]
		for x := range out {
			var acc uint16
			for j, kv := range kernel {
				acc += kv * padded[x+j]
			}
			out[x] = acc
		}
	}

	// Vertical pass: accumulate whole source rows into a line buffer.
	const round = 1 << (2*KernelShift - 1)
	acc := make([]uint32, w)
	for y := 0; y < h; y++ {
		for x := range acc {
			acc[x] = 0
		}
		for j, kv := range kernel {
			sy := reflect101(y+j-half, h)
			line := temp[sy*w : (sy+1)*w]
			for x, v := range line {
				acc[x] += uint32(kv) * uint32(v)
			}
		}
		out := dst.Pix[y*w : (y+1)*w]
		for x, v := range acc {
			v = (v + round) >> (2 * KernelShift)
			if v > 255 {
				v = 255
			}
			out[x] = uint8(v)
		}
	}
	return dst
}

// reflect101 maps an out-of-range index into [0, n) by mirroring around
// the edge pixels without repeating them.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}

// saturate rounds v half-to-even and clamps it to 0..255.
func saturate(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.RoundToEven(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}
