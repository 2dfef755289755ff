package sketch

import "image"

// DodgeScale is the colour-dodge scale factor applied by Transform.
const DodgeScale = 256.0

// Divide computes saturate(num·scale / max(den, 1)) per pixel.
// A zero divisor is treated as 1 so the operation never faults; with
// scale 256 any non-zero numerator over a zero divisor saturates to 255.
// num and den must have the same dimensions.
func Divide(num, den *image.Gray, scale float64) *image.Gray {
	num, den = compact(num), compact(den)
	dst := image.NewGray(num.Rect)
	for i, n := range num.Pix {
		d := den.Pix[i]
		if d == 0 {
			d = 1
		}
		dst.Pix[i] = saturate(float64(n) * scale / float64(d))
	}
	return dst
}
