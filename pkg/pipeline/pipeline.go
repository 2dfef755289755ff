// Package pipeline converts image files into sketch files.
//
// This package implements the decode → sketch → encode pipeline used by the
// batch command and the preview command. A [Runner] adds content-addressed
// caching on top: the cache key covers the input bytes and every option
// that changes the output, so re-running a batch over unchanged files only
// copies cached bytes.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	results, err := runner.Batch(ctx, []string{"a.jpg", "b.png"}, pipeline.Options{
//	    Intensity: 21,
//	    Format:    "png",
//	    OutputDir: "out",
//	})
//
// Single files:
//
//	res, err := runner.Convert(ctx, "photo.jpg", opts)
//	fmt.Println(res.Output, res.CacheHit)
package pipeline

import (
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphite/pkg/cache"
	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/imageio"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFormat is the default output format.
	DefaultFormat = FormatPNG

	// DefaultSuffix is appended to the input base name.
	DefaultSuffix = "_sketch"
)

// Format constants for output formats.
const (
	FormatPNG = "png"
	FormatJPG = "jpg"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a conversion.
type Options struct {
	Intensity   sketch.Intensity
	Format      string
	JPEGQuality int

	// OutputDir receives the sketches. Empty means next to each input.
	OutputDir string
	Suffix    string

	// Workers bounds batch concurrency. Zero means one per CPU.
	Workers int

	// Refresh ignores cached results (new results are still stored).
	Refresh bool

	// TTL is how long new cache entries live. Zero means cache.TTLSketch.
	TTL time.Duration

	Logger *log.Logger
}

// SetDefaults fills zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Intensity == 0 {
		o.Intensity = sketch.DefaultIntensity
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)
	if o.Format == "jpeg" {
		o.Format = FormatJPG
	}
	if o.JPEGQuality == 0 {
		o.JPEGQuality = imageio.DefaultJPEGQuality
	}
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.TTL == 0 {
		o.TTL = cache.TTLSketch
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option ranges. Call SetDefaults first.
func (o *Options) Validate() error {
	if err := o.Intensity.Validate(); err != nil {
		return err
	}
	if _, err := imageio.Extension(o.Format); err != nil {
		return err
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "jpeg quality %d out of range (1-100)", o.JPEGQuality)
	}
	if strings.ContainsAny(o.Suffix, `/\`) {
		return errors.New(errors.ErrCodeInvalidInput, "suffix %q must not contain path separators", o.Suffix)
	}
	return nil
}

// OutputPath returns where the sketch of input is written:
// <dir>/<base><suffix>.<format>.
func (o *Options) OutputPath(input string) string {
	dir := o.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext, _ := imageio.Extension(o.Format)
	return filepath.Join(dir, base+o.Suffix+ext)
}

// SketchKeyOpts returns cache key options for the encoded sketch.
func (o *Options) SketchKeyOpts() cache.SketchKeyOpts {
	opts := cache.SketchKeyOpts{Intensity: int(o.Intensity), Format: o.Format}
	if o.Format == FormatJPG {
		opts.JPEGQuality = o.JPEGQuality
	}
	return opts
}

func (o *Options) encodeOptions() imageio.EncodeOptions {
	return imageio.EncodeOptions{JPEGQuality: o.JPEGQuality}
}

// PreviewOptions configures a side-by-side preview.
type PreviewOptions struct {
	Intensity sketch.Intensity
	Size      int
	Refresh   bool
}

// SetDefaults fills zero-valued fields.
func (o *PreviewOptions) SetDefaults() {
	if o.Intensity == 0 {
		o.Intensity = sketch.DefaultIntensity
	}
	if o.Size <= 0 {
		o.Size = preview.DefaultSize
	}
}

// Validate checks the intensity and the panel size.
func (o *PreviewOptions) Validate() error {
	if err := o.Intensity.Validate(); err != nil {
		return err
	}
	if o.Size < preview.MinSize || o.Size > preview.MaxSize {
		return errors.New(errors.ErrCodeInvalidInput, "preview size %d out of range (%d-%d)",
			o.Size, preview.MinSize, preview.MaxSize)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result describes one converted file.
type Result struct {
	Input    string
	Output   string
	Width    int
	Height   int
	Kernel   int
	Bytes    int
	CacheHit bool
	Duration time.Duration
}
