// Package sketch implements the pencil-sketch transform.
//
// # Overview
//
// [Transform] maps a colour image and an [Intensity] to a single-channel
// sketch of the same size:
//
//  1. Luminance: BGR→GRAY with the fixed-point weights used by OpenCV
//     (1868·B + 9617·G + 4899·R, 14 fractional bits, rounded)
//  2. Invert: 255 − gray
//  3. Gaussian blur of the inverted image, square kernel of side
//     intensity|1, sigma derived from the kernel size
//  4. Invert the blurred image again
//  5. Colour-dodge divide: gray·256 / inverted_blurred, saturated to 0..255
//
// The result is deterministic: the same input always produces bit-identical
// output.
//
// # Kernel
//
// [GaussianKernel] follows the OpenCV convention for an unspecified sigma:
// kernels of side 1 through 9 come from fixed binomial tables and larger
// kernels use sigma = 0.3·((k−1)·0.5 − 1) + 0.8 (see [SigmaForKernel]).
// The blur itself runs on 8-bit integer taps ([FixedKernel]) with 8.8 and
// 16.16 fixed-point accumulators, the way OpenCV blurs 8-bit images, so the
// output is pixel-exact rather than within one level of it. Borders are
// handled by reflect-101 extension (gfedcb|abcdefgh|gfedcba).
//
// # Usage
//
//	img, _ := imageio.Decode("portrait.jpg")
//	out := sketch.Transform(img, sketch.DefaultIntensity)
//
// Each stage is exported so callers can inspect intermediate buffers:
//
//	gray := sketch.Grayscale(img)
//	blurred := sketch.GaussianBlur(sketch.Invert(gray), 21)
//	out := sketch.Divide(gray, sketch.Invert(blurred), sketch.DodgeScale)
package sketch
