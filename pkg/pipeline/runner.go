package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/graphite/pkg/cache"
	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/imageio"
	"github.com/matzehuels/graphite/pkg/observability"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Convert sketches a single file and writes it to opts.OutputPath(input).
func (r *Runner) Convert(ctx context.Context, input string, opts Options) (res *Result, err error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.logger(opts)

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnConvertStart(ctx, input)
	defer func() {
		hit := res != nil && res.CacheHit
		hooks.OnConvertComplete(ctx, input, hit, time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !imageio.SupportedInput(input) {
		return nil, errors.New(errors.ErrCodeLoad, "failed to load image %s: unsupported file type", filepath.Base(input))
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(input))
	}

	res = &Result{
		Input:  input,
		Output: opts.OutputPath(input),
		Kernel: opts.Intensity.KernelSize(),
	}
	key := r.Keyer.SketchKey(cache.Hash(data), opts.SketchKeyOpts())

	encoded, hit := r.lookup(ctx, key, opts.Refresh)
	if hit {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(encoded))
		if err != nil {
			// Undecodable cache entry: drop it and recompute.
			_ = r.Cache.Delete(ctx, key)
			hit = false
		} else {
			res.Width, res.Height = cfg.Width, cfg.Height
		}
	}
	if !hit {
		src, err := imageio.DecodeBytes(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(input))
		}
		out := sketch.TransformContext(ctx, src, opts.Intensity)
		encoded, err = imageio.EncodeBytes(out, opts.Format, opts.encodeOptions())
		if err != nil {
			return nil, err
		}
		res.Width, res.Height = out.Rect.Dx(), out.Rect.Dy()
		r.store(ctx, key, encoded, opts.TTL)
	}

	if err := writeFile(res.Output, encoded); err != nil {
		return nil, err
	}
	res.Bytes = len(encoded)
	res.CacheHit = hit
	res.Duration = time.Since(start)

	logger.Debug("converted",
		"input", input,
		"output", res.Output,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"cached", hit,
		"duration", res.Duration)
	return res, nil
}

// Batch converts inputs concurrently with at most opts.Workers in flight.
// The first failure cancels the remaining conversions and is returned;
// results for files that finished are still reported, the rest are nil.
func (r *Runner) Batch(ctx context.Context, inputs []string, opts Options) ([]*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkOutputs(inputs, &opts); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]*Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, input := range inputs {
		g.Go(func() error {
			res, err := r.Convert(gctx, input, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	observability.Pipeline().OnBatchComplete(ctx, len(inputs), time.Since(start), err)
	return results, err
}

// Preview renders the side-by-side original/sketch PNG for input.
// The second return value reports a cache hit.
func (r *Runner) Preview(ctx context.Context, input string, opts PreviewOptions) ([]byte, bool, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, false, err
	}
	if !imageio.SupportedInput(input) {
		return nil, false, errors.New(errors.ErrCodeLoad, "failed to load image %s: unsupported file type", filepath.Base(input))
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(input))
	}
	key := r.Keyer.PreviewKey(cache.Hash(data), cache.PreviewKeyOpts{
		Intensity: int(opts.Intensity),
		Size:      opts.Size,
	})
	if encoded, hit := r.lookup(ctx, key, opts.Refresh); hit {
		return encoded, true, nil
	}

	src, err := imageio.DecodeBytes(data)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(input))
	}
	out := sketch.TransformContext(ctx, src, opts.Intensity)
	encoded, err := imageio.EncodeBytes(preview.SideBySide(src, out, opts.Size), FormatPNG, imageio.EncodeOptions{})
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, key, encoded, cache.TTLPreview)
	return encoded, false, nil
}

func (r *Runner) lookup(ctx context.Context, key string, refresh bool) ([]byte, bool) {
	if refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, key)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, key)
	return nil, false
}

func (r *Runner) store(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "failed to write %s", filepath.Base(path))
	}
	return nil
}

// checkOutputs rejects batches where two inputs would overwrite the same
// output file (a.png and a.jpg in one directory, for example) or where an
// output would overwrite one of the inputs (a_sketch.png from a previous
// run picked up again by a glob).
func checkOutputs(inputs []string, opts *Options) error {
	sources := make(map[string]string, len(inputs))
	for _, in := range inputs {
		sources[samePath(in)] = in
	}

	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		out := opts.OutputPath(in)
		key := samePath(out)
		if src, ok := sources[key]; ok {
			return errors.New(errors.ErrCodeInvalidInput, "sketch of %s would overwrite input %s", in, src)
		}
		if prev, ok := seen[key]; ok {
			return errors.New(errors.ErrCodeInvalidInput, "%s and %s would both be written to %s", prev, in, out)
		}
		seen[key] = in
	}
	return nil
}

// samePath normalizes p so that two spellings of one file compare equal.
func samePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
