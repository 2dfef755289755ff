package sketch

import "math"

// KernelShift is the number of fractional bits of a [FixedKernel] tap:
// taps are integers that sum to 1<<KernelShift.
const KernelShift = 8

// smallKernels are the fixed binomial kernels used for sides 1 through 9
// when no sigma is given.
var smallKernels = [][]float64{
	{1},
	{0.25, 0.5, 0.25},
	{0.0625, 0.25, 0.375, 0.25, 0.0625},
	{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
	{4.0 / 256, 13.0 / 256, 30.0 / 256, 51.0 / 256, 60.0 / 256, 51.0 / 256, 30.0 / 256, 13.0 / 256, 4.0 / 256},
}

// SigmaForKernel returns the standard deviation derived from a kernel side
// when none is given explicitly: 0.3·((k−1)·0.5 − 1) + 0.8, evaluated as
// the fused k·0.15 + 0.35.
func SigmaForKernel(k int) float64 {
	return math.FMA(float64(k), 0.15, 0.35)
}

// oddSide forces k odd and at least 1.
func oddSide(k int) int {
	if k < 1 {
		return 1
	}
	return k | 1
}

// GaussianKernel returns a normalized 1D Gaussian kernel of side k.
// Even sides are forced odd and sides below 1 become 1 (identity).
func GaussianKernel(k int) []float64 {
	k = oddSide(k)
	if k/2 < len(smallKernels) {
		out := make([]float64, k)
		copy(out, smallKernels[k/2])
		return out
	}

	sigma := SigmaForKernel(k)
	scale := -0.125 / (sigma * sigma)
	half := k / 2

	// x runs over even offsets 2·(i−half), hence the quartered scale.
	values := make([]float64, half)
	sum := 0.0
	for i, x := 0, 1-k; i < half; i, x = i+1, x+2 {
		values[i] = math.Exp(float64(x*x) * scale)
		sum += values[i]
	}
	sum = sum*2 + 1

	mul := 1 / sum
	kernel := make([]float64, k)
	for i, v := range values {
		kernel[i] = v * mul
		kernel[k-1-i] = kernel[i]
	}
	kernel[half] = mul
	return kernel
}

// FixedKernel returns GaussianKernel(k) quantized to KernelShift
// fractional bits. Side taps are rounded with error diffusion from the
// outside in and the centre tap takes the remainder, so the taps always
// sum to exactly 1<<KernelShift.
func FixedKernel(k int) []uint16 {
	kernel := GaussianKernel(k)
	n := len(kernel)
	half := n / 2
	one := 1 << KernelShift

	out := make([]uint16, n)
	var carry float64
	sum := 0
	for i := 0; i < half; i++ {
		adj := kernel[i]*float64(one) + carry
		v := math.RoundToEven(adj)
		carry = adj - v
		out[i] = uint16(v)
		out[n-1-i] = uint16(v)
		sum += int(v)
	}
	out[half] = uint16(one - 2*sum)
	return out
}
