// Package cli implements the graphite command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphite/pkg/cache"
	"github.com/matzehuels/graphite/pkg/config"
	"github.com/matzehuels/graphite/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	cfg    config.Config
	loaded bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration, loading it on first use.
func (c *CLI) Config() (config.Config, error) {
	if c.loaded {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, err
	}
	c.cfg, c.loaded = cfg, true
	c.Logger.Debug("config loaded", "path", c.configPathForDisplay())
	return cfg, nil
}

func (c *CLI) configPathForDisplay() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	p, err := config.DefaultPath()
	if err != nil {
		return "(none)"
	}
	return p
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheScope prefixes every cache key. Bump it whenever the sketch output
// for a given input changes, so stale entries are never served.
const cacheScope = "v1:"

// newRunner creates a pipeline runner for CLI use, logging through the
// command's context logger.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	ch, err := newCache(cfg, noCache, logger)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cacheScope)
	return pipeline.NewRunner(ch, keyer, logger), nil
}

func newCache(cfg config.Config, noCache bool, logger *log.Logger) (cache.Cache, error) {
	if noCache || !cfg.Cache.Enabled {
		logger.Debug("cache disabled")
		return cache.NewNullCache(), nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		printWarning("Caching disabled: no cache directory (%v)", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Flag Helpers
// =============================================================================

// intFlag returns the flag value when the user set it, otherwise fallback.
func intFlag(cmd *cobra.Command, name string, value, fallback int) int {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

// stringFlag returns the flag value when the user set it, otherwise fallback.
func stringFlag(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
