package sketch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/graphite/pkg/observability"
)

// nrgba builds a w×h opaque image from row-major RGB triples.
func nrgba(w, h int, px [][3]uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, p := range px {
		img.SetNRGBA(i%w, i/w, color.NRGBA{R: p[0], G: p[1], B: p[2], A: 255})
	}
	return img
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestKernelSize(t *testing.T) {
	tests := []struct {
		in   Intensity
		want int
	}{
		{20, 21},
		{21, 21},
		{1, 1},
		{2, 3},
		{50, 51},
		{51, 51},
		{0, 1},   // clamped up
		{-7, 1},  // clamped up
		{99, 51}, // clamped down
	}

	for _, tt := range tests {
		if got := tt.in.KernelSize(); got != tt.want {
			t.Errorf("Intensity(%d).KernelSize() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestKernelSizeAlwaysOdd(t *testing.T) {
	for v := MinIntensity; v <= MaxIntensity; v++ {
		k := v.KernelSize()
		if k%2 != 1 {
			t.Errorf("Intensity(%d).KernelSize() = %d, want odd", v, k)
		}
		if k != int(v)|1 {
			t.Errorf("Intensity(%d).KernelSize() = %d, want %d", v, k, int(v)|1)
		}
	}
}

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		in      string
		want    Intensity
		wantErr bool
	}{
		{"21", 21, false},
		{" 7 ", 7, false},
		{"1", 1, false},
		{"51", 51, false},
		{"0", 0, true},
		{"52", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseIntensity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIntensity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIntensity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGoldenTwoByTwo(t *testing.T) {
	src := nrgba(2, 2, [][3]uint8{
		{0, 0, 0}, {255, 255, 255},
		{128, 128, 128}, {64, 64, 64},
	})

	got := Transform(src, 1)
	want := []uint8{0, 255, 255, 255}

	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Transform golden = %v, want %v", got.Pix, want)
	}
}

func TestGoldenColorGrid(t *testing.T) {
	src := nrgba(3, 3, [][3]uint8{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255},
		{200, 200, 200}, {10, 20, 30}, {90, 180, 45},
		{255, 255, 255}, {0, 0, 0}, {128, 64, 32},
	})

	tests := []struct {
		intensity Intensity
		want      []uint8
	}{
		{3, []uint8{175, 255, 88, 255, 50, 255, 255, 0, 255}},
		{4, []uint8{187, 255, 86, 255, 50, 255, 255, 0, 255}}, // kernel 5
		{9, []uint8{205, 255, 81, 255, 50, 255, 255, 0, 222}}, // 9-tap binomial table
	}

	for _, tt := range tests {
		got := Transform(src, tt.intensity)
		if !bytes.Equal(got.Pix, tt.want) {
			t.Errorf("Transform(intensity=%d) = %v, want %v", tt.intensity, got.Pix, tt.want)
		}
	}
}

func TestGrayscaleWeights(t *testing.T) {
	src := nrgba(9, 1, [][3]uint8{
		{255, 0, 0}, {0, 255, 0}, {0, 0, 255},
		{200, 200, 200}, {10, 20, 30}, {90, 180, 45},
		{255, 255, 255}, {0, 0, 0}, {128, 64, 32},
	})
	want := []uint8{76, 150, 29, 200, 18, 138, 255, 0, 79}

	got := Grayscale(src)
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Grayscale = %v, want %v", got.Pix, want)
	}
}

func TestGrayscaleIgnoresAlpha(t *testing.T) {
	opaque := solid(2, 2, color.NRGBA{R: 90, G: 180, B: 45, A: 255})
	clear := solid(2, 2, color.NRGBA{R: 90, G: 180, B: 45, A: 10})

	if !bytes.Equal(Grayscale(opaque).Pix, Grayscale(clear).Pix) {
		t.Error("Grayscale should ignore the alpha channel")
	}
}

func TestGrayscaleGenericPath(t *testing.T) {
	// *image.RGBA goes through the color-model path.
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	rgba.SetRGBA(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	got := Grayscale(rgba)
	want := []uint8{76, 18}
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Grayscale(RGBA) = %v, want %v", got.Pix, want)
	}
}

func TestGrayscaleSubImageOrigin(t *testing.T) {
	src := solid(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	sub := src.SubImage(image.Rect(1, 1, 3, 4))

	got := Grayscale(sub)
	if got.Rect != image.Rect(0, 0, 2, 3) {
		t.Errorf("Grayscale sub-image bounds = %v, want (0,0)-(2,3)", got.Rect)
	}
}

func TestOutputDimensions(t *testing.T) {
	sizes := []image.Point{{1, 1}, {7, 3}, {3, 7}, {32, 17}}

	for _, sz := range sizes {
		src := solid(sz.X, sz.Y, color.NRGBA{R: 120, G: 30, B: 200, A: 255})
		for _, in := range []Intensity{1, 7, 21, 51} {
			got := Transform(src, in)
			if got.Rect.Dx() != sz.X || got.Rect.Dy() != sz.Y {
				t.Errorf("Transform(%v, %d) size = %v, want %v", sz, in, got.Rect.Size(), sz)
			}
			if len(got.Pix) != sz.X*sz.Y {
				t.Errorf("Transform(%v, %d) has %d bytes, want single channel (%d)", sz, in, len(got.Pix), sz.X*sz.Y)
			}
		}
	}
}

func TestTransformDeterministic(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for i := range src.Pix {
		src.Pix[i] = uint8((i * 37) % 251)
	}

	a := Transform(src, 21)
	b := Transform(src, 21)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("Transform should be bit-identical across calls")
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	before := append([]uint8(nil), src.Pix...)

	Transform(src, 11)
	if !bytes.Equal(before, src.Pix) {
		t.Error("Transform mutated its input")
	}
}

func TestSolidBlack(t *testing.T) {
	src := solid(16, 16, color.NRGBA{A: 255})

	got := Transform(src, DefaultIntensity)
	for i, v := range got.Pix {
		if v != 0 {
			t.Fatalf("pixel %d = %d, want 0 for solid black", i, v)
		}
	}
}

func TestSolidWhite(t *testing.T) {
	src := solid(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	got := Transform(src, DefaultIntensity)
	for i, v := range got.Pix {
		if v != 255 {
			t.Fatalf("pixel %d = %d, want 255 for solid white", i, v)
		}
	}
}

func TestWhiteAdjacentToBlack(t *testing.T) {
	// Left half black, right half white. Black must stay black and the
	// white side must saturate without NaN or wraparound near the edge.
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			v := uint8(0)
			if x >= 10 {
				v = 255
			}
			src.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	for _, in := range []Intensity{1, 5, 21, 51} {
		got := Transform(src, in)
		for y := 0; y < 10; y++ {
			for x := 0; x < 20; x++ {
				v := got.GrayAt(x, y).Y
				if x < 10 && v != 0 {
					t.Errorf("intensity %d: black pixel (%d,%d) = %d, want 0", in, x, y, v)
				}
				if x >= 10 && v != 255 {
					t.Errorf("intensity %d: white pixel (%d,%d) = %d, want 255", in, x, y, v)
				}
			}
		}
	}
}

func TestEmptyImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	got := Transform(src, DefaultIntensity)
	if got.Rect.Dx() != 0 || got.Rect.Dy() != 0 {
		t.Errorf("Transform(empty) = %v, want empty", got.Rect)
	}
}

func TestDivideZeroDivisor(t *testing.T) {
	num := &image.Gray{Pix: []uint8{0, 1, 200, 128}, Stride: 4, Rect: image.Rect(0, 0, 4, 1)}
	den := &image.Gray{Pix: []uint8{0, 0, 0, 255}, Stride: 4, Rect: image.Rect(0, 0, 4, 1)}

	got := Divide(num, den, DodgeScale)
	want := []uint8{0, 255, 255, 129} // 128·256/255 = 128.5019
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Divide = %v, want %v", got.Pix, want)
	}
}

func TestDivideRoundsHalfToEven(t *testing.T) {
	// Scale 1 lands exactly on .5 boundaries.
	num := &image.Gray{Pix: []uint8{1, 3, 5}, Stride: 3, Rect: image.Rect(0, 0, 3, 1)}
	den := &image.Gray{Pix: []uint8{2, 2, 2}, Stride: 3, Rect: image.Rect(0, 0, 3, 1)}

	got := Divide(num, den, 1)
	want := []uint8{0, 2, 2} // 0.5→0, 1.5→2, 2.5→2
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Divide = %v, want %v", got.Pix, want)
	}
}

func TestInvert(t *testing.T) {
	src := &image.Gray{Pix: []uint8{0, 1, 128, 255}, Stride: 2, Rect: image.Rect(0, 0, 2, 2)}
	got := Invert(src)
	want := []uint8{255, 254, 127, 0}
	if !bytes.Equal(got.Pix, want) {
		t.Errorf("Invert = %v, want %v", got.Pix, want)
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0},
		{0.5, 0},
		{1.5, 2},
		{254.5, 254},
		{255.4, 255},
		{1e9, 255},
		{math.Inf(1), 255},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := saturate(tt.in); got != tt.want {
			t.Errorf("saturate(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

type recordingSketchHooks struct {
	observability.NoopSketchHooks
	starts, completes int
	kernel            int
}

func (h *recordingSketchHooks) OnTransformStart(_ context.Context, _, _, kernel int) {
	h.starts++
	h.kernel = kernel
}

func (h *recordingSketchHooks) OnTransformComplete(context.Context, int, int, int, time.Duration) {
	h.completes++
}

func TestTransformContextFiresHooks(t *testing.T) {
	h := &recordingSketchHooks{}
	observability.SetSketchHooks(h)
	t.Cleanup(observability.Reset)

	src := image.NewGray(image.Rect(0, 0, 4, 4))
	got := TransformContext(context.Background(), src, 20)
	if got.Rect.Size() != (image.Point{4, 4}) {
		t.Errorf("size = %v", got.Rect.Size())
	}
	if h.starts != 1 || h.completes != 1 {
		t.Errorf("hooks fired start=%d complete=%d, want 1/1", h.starts, h.completes)
	}
	if h.kernel != 21 {
		t.Errorf("kernel = %d, want 21", h.kernel)
	}
}
