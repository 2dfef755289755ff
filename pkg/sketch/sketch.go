package sketch

import (
	"context"
	"image"
	"time"

	"github.com/matzehuels/graphite/pkg/observability"
)

// Transform converts src into a pencil sketch at the given intensity.
// The intensity is clamped to [MinIntensity, MaxIntensity]; the blur
// kernel side is intensity|1. The output has the same width and height
// as src, origin (0,0), and a single 8-bit channel.
func Transform(src image.Image, intensity Intensity) *image.Gray {
	gray := Grayscale(src)
	blurred := GaussianBlur(Invert(gray), intensity.KernelSize())
	return Divide(gray, Invert(blurred), DodgeScale)
}

// TransformContext is Transform with the sketch observability hooks fired
// around it. The context is only passed through to the hooks.
func TransformContext(ctx context.Context, src image.Image, intensity Intensity) *image.Gray {
	b := src.Bounds()
	k := intensity.KernelSize()
	hooks := observability.Sketch()

	hooks.OnTransformStart(ctx, b.Dx(), b.Dy(), k)
	start := time.Now()
	out := Transform(src, intensity)
	hooks.OnTransformComplete(ctx, b.Dx(), b.Dy(), k, time.Since(start))
	return out
}
