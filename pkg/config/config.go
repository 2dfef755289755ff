// Package config loads graphite's TOML configuration file.
//
// The file lives at <UserConfigDir>/graphite/config.toml unless a path is
// given explicitly. A missing file is not an error: every field has a
// default, and keys absent from the file keep their defaults.
//
//	[sketch]
//	intensity = 21
//
//	[preview]
//	size = 480
//
//	[output]
//	format = "png"
//	jpeg_quality = 95
//	suffix = "_sketch"
//
//	[cache]
//	enabled = true
//	dir = ""        # defaults to <UserCacheDir>/graphite
//	ttl = "168h"
//
//	[batch]
//	workers = 0     # 0 means one per CPU
package config

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// AppName names the config and cache directories.
const AppName = "graphite"

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config is the full configuration.
type Config struct {
	Sketch  SketchConfig  `toml:"sketch"`
	Preview PreviewConfig `toml:"preview"`
	Output  OutputConfig  `toml:"output"`
	Cache   CacheConfig   `toml:"cache"`
	Batch   BatchConfig   `toml:"batch"`
}

type SketchConfig struct {
	Intensity int `toml:"intensity"`
}

type PreviewConfig struct {
	Size int `toml:"size"`
}

type OutputConfig struct {
	Format      string `toml:"format"`
	JPEGQuality int    `toml:"jpeg_quality"`
	Suffix      string `toml:"suffix"`
}

type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	Dir     string   `toml:"dir"`
	TTL     Duration `toml:"ttl"`
}

type BatchConfig struct {
	Workers int `toml:"workers"`
}

// Duration is a time.Duration written as a Go duration string ("168h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sketch:  SketchConfig{Intensity: int(sketch.DefaultIntensity)},
		Preview: PreviewConfig{Size: 480},
		Output:  OutputConfig{Format: "png", JPEGQuality: 95, Suffix: "_sketch"},
		Cache:   CacheConfig{Enabled: true, TTL: Duration{7 * 24 * time.Hour}},
		Batch:   BatchConfig{Workers: 0},
	}
}

// DefaultPath returns <UserConfigDir>/graphite/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// Load reads the file at path over the defaults. An empty path means
// DefaultPath. A missing file yields Default(). Unknown keys and invalid
// values are INVALID_CONFIG errors.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to read %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), errors.Wrap(errors.ErrCodeInvalidConfig, err, "failed to parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Default(), errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := sketch.Intensity(c.Sketch.Intensity).Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "sketch.intensity")
	}
	if c.Preview.Size < preview.MinSize || c.Preview.Size > preview.MaxSize {
		return errors.New(errors.ErrCodeInvalidConfig, "preview.size %d out of range (%d-%d)",
			c.Preview.Size, preview.MinSize, preview.MaxSize)
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "output.format %q must be png or jpg", c.Output.Format)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "output.jpeg_quality %d out of range (1-100)", c.Output.JPEGQuality)
	}
	if strings.ContainsAny(c.Output.Suffix, `/\`) {
		return errors.New(errors.ErrCodeInvalidConfig, "output.suffix %q must not contain path separators", c.Output.Suffix)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Batch.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "batch.workers must not be negative")
	}
	return nil
}

// CacheDir returns the configured cache directory, falling back to
// <UserCacheDir>/graphite.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
