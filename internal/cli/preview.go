package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/imageio"
	"github.com/matzehuels/graphite/pkg/pipeline"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		intensity int
		output    string
		size      int
		noCache   bool
		refresh   bool
		terminal  bool
	)

	cmd := &cobra.Command{
		Use:   "preview [image]",
		Short: "Write a side-by-side original/sketch image",
		Long: `Write a side-by-side preview of an image and its sketch.

Both panels are resampled to a square of --size pixels on a dark background,
matching the interactive session. Use --terminal to also print a thumbnail
of the result in the terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			opts := pipeline.PreviewOptions{
				Intensity: sketch.Intensity(intFlag(cmd, "intensity", intensity, cfg.Sketch.Intensity)),
				Size:      intFlag(cmd, "size", size, cfg.Preview.Size),
				Refresh:   refresh,
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			if output == "" {
				output = previewPath(args[0])
			}
			return c.runPreview(cmd.Context(), args[0], output, opts, noCache, terminal)
		},
	}

	cmd.Flags().IntVarP(&intensity, "intensity", "i", int(sketch.DefaultIntensity), "sketch intensity (1-51)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>_preview.png)")
	cmd.Flags().IntVar(&size, "size", preview.DefaultSize, "panel size in pixels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVarP(&terminal, "terminal", "t", false, "print a thumbnail to the terminal")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input, output string, opts pipeline.PreviewOptions, noCache, terminal bool) error {
	if _, err := imageio.FormatFromPath(output); err != nil || !strings.EqualFold(filepath.Ext(output), ".png") {
		return errors.New(errors.ErrCodeInvalidFormat, "preview output must be a .png file")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering preview...")
	spinner.Start()
	data, hit, err := runner.Preview(ctx, input, opts)
	if err != nil {
		spinner.StopWithError("Failed to load image.")
		return err
	}
	spinner.Stop()

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "failed to write %s", output)
	}

	status := iconFresh
	if hit {
		status = iconCached
	}
	printSuccess("Preview written (%s)", status)
	printFile(output)

	if terminal {
		img, err := imageio.DecodeBytes(data)
		if err != nil {
			return err
		}
		cols := 80
		rows := cols * img.Bounds().Dy() / img.Bounds().Dx() / 2
		fmt.Println(preview.ANSI(img, cols, rows))
	}
	return nil
}

// previewPath returns <dir>/<name>_preview.png for input.
func previewPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"_preview.png")
}
