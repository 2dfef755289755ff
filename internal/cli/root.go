package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphite/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Graphite turns photos into pencil sketches",
		Long: `Graphite turns photos into pencil sketches.

It converts images in batch, writes side-by-side previews, and offers an
interactive session where the sketch intensity can be tuned live.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: <user config dir>/graphite/config.toml)")

	root.AddCommand(c.sketchCommand())
	root.AddCommand(c.openCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
