package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/observability"
	"github.com/matzehuels/graphite/pkg/pipeline"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// sketchFlags holds the raw flag values for the sketch command.
type sketchFlags struct {
	intensity int
	output    string
	format    string
	quality   int
	suffix    string
	workers   int
	noCache   bool
	refresh   bool
}

// sketchCommand creates the batch conversion command.
func (c *CLI) sketchCommand() *cobra.Command {
	var f sketchFlags

	cmd := &cobra.Command{
		Use:   "sketch [images...]",
		Short: "Convert images into pencil sketches",
		Long: `Convert one or more images into pencil sketches.

Each input is converted to grayscale, its inverse is blurred with a Gaussian
kernel whose side is the intensity (rounded up to odd), and the grayscale is
divided by the inverted blur. Higher intensities give softer, lighter strokes.

Outputs are written as <name><suffix>.<format> next to each input, or into
--output when given. Results are cached by content, so re-running over
unchanged files is instant.`,
		Example: `  graphite sketch photo.jpg
  graphite sketch -i 35 -f jpg --quality 90 -o sketches/ *.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.sketchOptions(cmd, f)
			if err != nil {
				return err
			}
			return c.runSketch(cmd.Context(), args, opts, f.noCache)
		},
	}

	cmd.Flags().IntVarP(&f.intensity, "intensity", "i", int(sketch.DefaultIntensity), "sketch intensity (1-51)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (default: next to each input)")
	cmd.Flags().StringVarP(&f.format, "format", "f", pipeline.DefaultFormat, "output format: png, jpg")
	cmd.Flags().IntVar(&f.quality, "quality", 95, "JPEG quality (1-100)")
	cmd.Flags().StringVar(&f.suffix, "suffix", pipeline.DefaultSuffix, "suffix added to output names")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel conversions (default: one per CPU)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")

	return cmd
}

// sketchOptions merges flags over the loaded configuration.
func (c *CLI) sketchOptions(cmd *cobra.Command, f sketchFlags) (pipeline.Options, error) {
	cfg, err := c.Config()
	if err != nil {
		return pipeline.Options{}, err
	}

	intensity := sketch.Intensity(intFlag(cmd, "intensity", f.intensity, cfg.Sketch.Intensity))
	if err := intensity.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Intensity:   intensity,
		Format:      stringFlag(cmd, "format", f.format, cfg.Output.Format),
		JPEGQuality: intFlag(cmd, "quality", f.quality, cfg.Output.JPEGQuality),
		OutputDir:   f.output,
		Suffix:      stringFlag(cmd, "suffix", f.suffix, cfg.Output.Suffix),
		Workers:     intFlag(cmd, "workers", f.workers, cfg.Batch.Workers),
		Refresh:     f.refresh,
		TTL:         cfg.Cache.TTL.Duration,
		Logger:      loggerFromContext(cmd.Context()),
	}
	opts.SetDefaults()
	return opts, opts.Validate()
}

// runSketch converts all inputs and prints a summary.
func (c *CLI) runSketch(ctx context.Context, inputs []string, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Sketching 0/%d", len(inputs)))
	observability.SetPipelineHooks(&spinnerHooks{spinner: spinner, total: len(inputs)})
	defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})
	spinner.Start()

	results, err := runner.Batch(ctx, inputs, opts)
	if err != nil {
		if ctx.Err() != nil {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}
	spinner.Stop()

	hits := 0
	for _, res := range results {
		printSuccess("%s", resultLine(res))
		if res.CacheHit {
			hits++
		}
	}
	if len(results) > 1 {
		printDetail("%d sketched, %d from cache", len(results)-hits, hits)
	}
	prog.done(fmt.Sprintf("Sketched %d image(s)", len(results)))
	if len(results) == 1 {
		printNextStep("Tune it interactively", fmt.Sprintf("%s open %s", appName, inputs[0]))
	}
	return nil
}

// spinnerHooks advances the spinner message as conversions finish.
type spinnerHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
	total   int
	done    atomic.Int64
}

func (h *spinnerHooks) OnConvertComplete(_ context.Context, input string, _ bool, _ time.Duration, err error) {
	if err != nil {
		return
	}
	n := h.done.Add(1)
	h.spinner.SetMessage("Sketching %d/%d", n, h.total)
}
