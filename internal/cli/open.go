package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphite/pkg/imageio"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/session"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// openCommand creates the interactive session command.
func (c *CLI) openCommand() *cobra.Command {
	var (
		intensity int
		logFile   string
	)

	cmd := &cobra.Command{
		Use:   "open [image]",
		Short: "Tune a sketch interactively",
		Long: `Open an interactive sketch session in the terminal.

The original and the sketch are shown side by side and the sketch is
recomputed whenever the intensity changes. Paste or drop a file path into
the terminal to load it.

Keys:
  ←/→     intensity -1/+1
  [ / ]   intensity -5/+5
  o       open an image
  s       save the sketch (PNG or JPEG)
  p       write a side-by-side preview PNG
  q       quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			start := sketch.Intensity(intFlag(cmd, "intensity", intensity, cfg.Sketch.Intensity))
			if err := start.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := c.sessionLogger(logFile)
			if err != nil {
				return err
			}
			defer closeLog()

			display := preview.NewDisplay(cfg.Preview.Size)
			s := session.New(session.Options{
				Codec:     imageio.NewCodec(cfg.Output.JPEGQuality),
				Display:   display,
				Logger:    logger,
				Intensity: start,
			})
			defer s.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runSession(cmd.Context(), s, display, path)
		},
	}

	cmd.Flags().IntVarP(&intensity, "intensity", "i", int(sketch.DefaultIntensity), "starting intensity (1-51)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write session logs to this file")

	return cmd
}

// sessionLogger returns a logger that does not write into the alternate
// screen: logs go to logFile when given and are discarded otherwise.
func (c *CLI) sessionLogger(logFile string) (*log.Logger, func(), error) {
	if logFile == "" {
		return newLogger(io.Discard, c.Logger.GetLevel()), func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, c.Logger.GetLevel()), func() { f.Close() }, nil
}

// runSession runs the bubbletea program until the user quits.
func runSession(ctx context.Context, s *session.Session, d *preview.Display, path string) error {
	m := NewSessionModel(ctx, s, d)
	if path != "" {
		m.load(sanitizePath(path))
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("session: %w", err)
	}

	if fm, ok := final.(SessionModel); ok && fm.session.LastSaved() != "" {
		printSuccess("%s", msgSaved)
		printFile(fm.session.LastSaved())
	}
	return nil
}
