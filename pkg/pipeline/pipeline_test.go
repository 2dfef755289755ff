package pipeline

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/graphite/pkg/cache"
	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/imageio"
	"github.com/matzehuels/graphite/pkg/observability"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/sketch"
)

func TestSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.Intensity != sketch.DefaultIntensity {
		t.Errorf("Intensity = %d", o.Intensity)
	}
	if o.Format != FormatPNG || o.Suffix != DefaultSuffix {
		t.Errorf("Format/Suffix = %q/%q", o.Format, o.Suffix)
	}
	if o.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", o.Workers, runtime.NumCPU())
	}
	if o.TTL != cache.TTLSketch {
		t.Errorf("TTL = %v", o.TTL)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	j := Options{Format: "JPEG"}
	j.SetDefaults()
	if j.Format != FormatJPG {
		t.Errorf("JPEG normalised to %q, want jpg", j.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errors.Code
	}{
		{"defaults", Options{}, ""},
		{"jpg", Options{Format: "jpg", JPEGQuality: 80}, ""},
		{"intensity too high", Options{Intensity: 52}, errors.ErrCodeInvalidIntensity},
		{"negative intensity", Options{Intensity: -1}, errors.ErrCodeInvalidIntensity},
		{"format", Options{Format: "gif"}, errors.ErrCodeInvalidFormat},
		{"quality", Options{JPEGQuality: 101}, errors.ErrCodeInvalidInput},
		{"suffix", Options{Suffix: "../x"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			o.SetDefaults()
			err := o.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		opts  Options
		want  string
	}{
		{"photos/cat.jpg", Options{}, filepath.Join("photos", "cat_sketch.png")},
		{"photos/cat.jpg", Options{OutputDir: "out"}, filepath.Join("out", "cat_sketch.png")},
		{"dog.png", Options{Format: "jpeg", Suffix: "-pencil"}, "dog-pencil.jpg"},
		{"archive.tar.bmp", Options{}, "archive.tar_sketch.png"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			o := tt.opts
			o.SetDefaults()
			if got := o.OutputPath(tt.input); got != tt.want {
				t.Errorf("OutputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSketchKeyOptsIgnoresQualityForPNG(t *testing.T) {
	a := Options{JPEGQuality: 10}
	b := Options{JPEGQuality: 90}
	a.SetDefaults()
	b.SetDefaults()
	if a.SketchKeyOpts() != b.SketchKeyOpts() {
		t.Error("JPEG quality should not affect PNG cache keys")
	}

	a.Format, b.Format = FormatJPG, FormatJPG
	if a.SketchKeyOpts() == b.SketchKeyOpts() {
		t.Error("JPEG quality should affect JPG cache keys")
	}
}

// writeInput writes a small gradient PNG and returns its path.
func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 20), uint8(y * 30), 90, 255})
		}
	}
	path := filepath.Join(dir, name)
	if err := imageio.Encode(img, path, imageio.EncodeOptions{}); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestConvertAndCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	in := writeInput(t, dir, "in.png")
	r := newTestRunner(t)
	opts := Options{OutputDir: filepath.Join(dir, "out"), Intensity: 5}

	res, err := r.Convert(ctx, in, opts)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.CacheHit {
		t.Error("first conversion should miss the cache")
	}
	if res.Width != 12 || res.Height != 8 || res.Kernel != 5 {
		t.Errorf("result = %+v", res)
	}
	wantOut := filepath.Join(dir, "out", "in_sketch.png")
	if res.Output != wantOut {
		t.Errorf("Output = %q, want %q", res.Output, wantOut)
	}
	first, err := os.ReadFile(wantOut)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if res.Bytes != len(first) {
		t.Errorf("Bytes = %d, file has %d", res.Bytes, len(first))
	}

	// The written sketch matches an in-process transform.
	src, _ := imageio.Decode(in)
	want := sketch.Transform(src, 5)
	got, err := imageio.Decode(wantOut)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range want.Pix {
		if got.Pix[i*4] != v {
			t.Fatalf("pixel %d = %d, want %d", i, got.Pix[i*4], v)
		}
	}

	if err := os.Remove(wantOut); err != nil {
		t.Fatal(err)
	}
	res, err = r.Convert(ctx, in, opts)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if !res.CacheHit {
		t.Error("second conversion should hit the cache")
	}
	if res.Width != 12 || res.Height != 8 {
		t.Errorf("cached dims = %dx%d", res.Width, res.Height)
	}
	second, err := os.ReadFile(wantOut)
	if err != nil {
		t.Fatalf("cached output not written: %v", err)
	}
	if string(first) != string(second) {
		t.Error("cached output differs from the computed one")
	}

	opts.Refresh = true
	if res, err = r.Convert(ctx, in, opts); err != nil || res.CacheHit {
		t.Errorf("refresh: hit=%v err=%v", res != nil && res.CacheHit, err)
	}

	opts.Refresh = false
	opts.Intensity = 6
	if res, err = r.Convert(ctx, in, opts); err != nil || res.CacheHit {
		t.Errorf("new intensity should miss: hit=%v err=%v", res != nil && res.CacheHit, err)
	}
}

func TestConvertErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := NewRunner(nil, nil, nil)

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Convert(ctx, bad, Options{}); !errors.IsLoadError(err) {
		t.Errorf("corrupt input: %v, want LOAD_FAILED", err)
	}
	if _, err := r.Convert(ctx, filepath.Join(dir, "missing.png"), Options{}); !errors.IsLoadError(err) {
		t.Errorf("missing input: %v, want LOAD_FAILED", err)
	}
	if _, err := r.Convert(ctx, filepath.Join(dir, "notes.txt"), Options{}); !errors.IsLoadError(err) {
		t.Errorf("unsupported input: %v, want LOAD_FAILED", err)
	}

	// A readable image with an extension outside the input list is refused.
	png, err := os.ReadFile(writeInput(t, dir, "real.png"))
	if err != nil {
		t.Fatal(err)
	}
	gif := filepath.Join(dir, "real.gif")
	if err := os.WriteFile(gif, png, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Convert(ctx, gif, Options{}); !errors.IsLoadError(err) {
		t.Errorf("gif input: %v, want LOAD_FAILED", err)
	}
	if _, _, err := r.Preview(ctx, gif, PreviewOptions{Size: 32}); !errors.IsLoadError(err) {
		t.Errorf("gif preview: %v, want LOAD_FAILED", err)
	}

	in := writeInput(t, dir, "ok.png")
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Convert(ctx, in, Options{OutputDir: blocker}); !errors.IsWriteError(err) {
		t.Errorf("unwritable output dir: %v, want WRITE_FAILED", err)
	}
}

func TestConvertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := writeInput(t, t.TempDir(), "in.png")
	if _, err := NewRunner(nil, nil, nil).Convert(ctx, in, Options{}); err != context.Canceled {
		t.Errorf("Convert on cancelled ctx = %v, want context.Canceled", err)
	}
}

type countingPipelineHooks struct {
	observability.NoopPipelineHooks
	mu        sync.Mutex
	completed int
	batches   int
	files     int
}

func (h *countingPipelineHooks) OnConvertComplete(context.Context, string, bool, time.Duration, error) {
	h.mu.Lock()
	h.completed++
	h.mu.Unlock()
}

func (h *countingPipelineHooks) OnBatchComplete(_ context.Context, files int, _ time.Duration, _ error) {
	h.mu.Lock()
	h.batches++
	h.files = files
	h.mu.Unlock()
}

func TestBatch(t *testing.T) {
	hooks := &countingPipelineHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		inputs = append(inputs, writeInput(t, dir, name))
	}
	out := filepath.Join(dir, "out")

	results, err := newTestRunner(t).Batch(ctx, inputs, Options{OutputDir: out, Workers: 2})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(results) != len(inputs) {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res == nil || res.Input != inputs[i] {
			t.Fatalf("result %d = %+v, want input %s", i, res, inputs[i])
		}
		if _, err := os.Stat(res.Output); err != nil {
			t.Errorf("missing output %s", res.Output)
		}
	}
	if hooks.completed != 4 || hooks.batches != 1 || hooks.files != 4 {
		t.Errorf("hooks: completed=%d batches=%d files=%d", hooks.completed, hooks.batches, hooks.files)
	}
}

func TestBatchStopsOnError(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.png")
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRunner(nil, nil, nil).Batch(context.Background(), []string{good, bad}, Options{Workers: 1})
	if !errors.IsLoadError(err) {
		t.Errorf("Batch error = %v, want LOAD_FAILED", err)
	}
}

func TestBatchDuplicateOutputs(t *testing.T) {
	_, err := NewRunner(nil, nil, nil).Batch(context.Background(), []string{"x/a.png", "x/a.jpg"}, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Batch error = %v, want INVALID_INPUT", err)
	}
}

func TestBatchOutputOverwritesInput(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	a := writeInput(t, dir, "a.png")
	prev := writeInput(t, dir, "a_sketch.png")
	elsewhere := writeInput(t, outDir, "b_sketch.png")

	tests := []struct {
		name   string
		inputs []string
		opts   Options
	}{
		{"previous run", []string{a, prev}, Options{Workers: 1}},
		{"output dir", []string{writeInput(t, dir, "b.png"), elsewhere}, Options{OutputDir: outDir}},
		{"relative spelling", []string{a, filepath.Join(dir, ".", "a_sketch.png")}, Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := os.ReadFile(tt.inputs[1])
			if err != nil {
				t.Fatal(err)
			}
			_, err = NewRunner(nil, nil, nil).Batch(context.Background(), tt.inputs, tt.opts)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Batch error = %v, want INVALID_INPUT", err)
			}
			after, err := os.ReadFile(tt.inputs[1])
			if err != nil {
				t.Fatal(err)
			}
			if string(before) != string(after) {
				t.Errorf("input %s was overwritten", tt.inputs[1])
			}
		})
	}
}

func TestPreviewOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    PreviewOptions
		wantErr errors.Code
	}{
		{"defaults", PreviewOptions{}, ""},
		{"smallest", PreviewOptions{Size: preview.MinSize}, ""},
		{"largest", PreviewOptions{Size: preview.MaxSize}, ""},
		{"too small", PreviewOptions{Size: preview.MinSize - 1}, errors.ErrCodeInvalidInput},
		{"too large", PreviewOptions{Size: 100000}, errors.ErrCodeInvalidInput},
		{"intensity", PreviewOptions{Intensity: 60}, errors.ErrCodeInvalidIntensity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			o.SetDefaults()
			err := o.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestPreviewRejectsHugeSize(t *testing.T) {
	in := writeInput(t, t.TempDir(), "in.png")
	_, _, err := NewRunner(nil, nil, nil).Preview(context.Background(), in, PreviewOptions{Size: 100000})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Preview error = %v, want INVALID_INPUT", err)
	}
}

func TestPreview(t *testing.T) {
	ctx := context.Background()
	in := writeInput(t, t.TempDir(), "in.png")
	r := newTestRunner(t)

	data, hit, err := r.Preview(ctx, in, PreviewOptions{Size: 32})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if hit {
		t.Error("first preview should miss")
	}
	img, err := imageio.DecodeBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() <= 64 {
		t.Errorf("preview width %d too small for two 32px panels", img.Bounds().Dx())
	}

	again, hit, err := r.Preview(ctx, in, PreviewOptions{Size: 32})
	if err != nil || !hit {
		t.Errorf("second preview: hit=%v err=%v", hit, err)
	}
	if string(again) != string(data) {
		t.Error("cached preview differs")
	}
}
