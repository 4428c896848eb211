// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read into Settings.
	EnvPrefix = "DECOUPAGE"

	// KeyConfig is the configuration document path.
	KeyConfig = "config"
	// KeyVerbose enables debug logging.
	KeyVerbose = "verbose"
	// KeyStrict turns per-layer failures into a non-zero exit.
	KeyStrict = "strict"
	// KeyMapshaper is the geometry tool binary.
	KeyMapshaper = "mapshaper"
	// KeyArchiver is the archive extraction binary.
	KeyArchiver = "archiver"
	// KeyHTTPTimeout bounds one download attempt.
	KeyHTTPTimeout = "http-timeout"
	// KeyToolTimeout bounds one subprocess invocation.
	KeyToolTimeout = "tool-timeout"

	// DefaultMapshaper is looked up on PATH.
	DefaultMapshaper = "mapshaper"
	// DefaultArchiver is looked up on PATH.
	DefaultArchiver = "7z"
	// DefaultTimeout applies to downloads and subprocesses. Zero disables it.
	DefaultTimeout = 30 * time.Minute
)

// Settings are the runtime knobs of a run.
type Settings struct {
	ConfigPath  string
	Verbose     bool
	Strict      bool
	Mapshaper   string
	Archiver    string
	HTTPTimeout time.Duration
	ToolTimeout time.Duration
}

// DefaultSettings returns the settings used when nothing is overridden.
func DefaultSettings() Settings {
	return Settings{
		ConfigPath:  DefaultConfigFile,
		Mapshaper:   DefaultMapshaper,
		Archiver:    DefaultArchiver,
		HTTPTimeout: DefaultTimeout,
		ToolTimeout: DefaultTimeout,
	}
}

// NewViper returns a Viper instance with defaults and environment binding.
// Keys map to DECOUPAGE_<KEY> with dashes turned into underscores, e.g.
// DECOUPAGE_TOOL_TIMEOUT. Callers bind command-line flags on top.
func NewViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault(KeyConfig, defaults.ConfigPath)
	v.SetDefault(KeyVerbose, defaults.Verbose)
	v.SetDefault(KeyStrict, defaults.Strict)
	v.SetDefault(KeyMapshaper, defaults.Mapshaper)
	v.SetDefault(KeyArchiver, defaults.Archiver)
	v.SetDefault(KeyHTTPTimeout, defaults.HTTPTimeout)
	v.SetDefault(KeyToolTimeout, defaults.ToolTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// SettingsFrom reads Settings out of v.
func SettingsFrom(v *viper.Viper) (Settings, error) {
	s := Settings{
		ConfigPath:  v.GetString(KeyConfig),
		Verbose:     v.GetBool(KeyVerbose),
		Strict:      v.GetBool(KeyStrict),
		Mapshaper:   v.GetString(KeyMapshaper),
		Archiver:    v.GetString(KeyArchiver),
		HTTPTimeout: v.GetDuration(KeyHTTPTimeout),
		ToolTimeout: v.GetDuration(KeyToolTimeout),
	}

	if s.HTTPTimeout < 0 {
		return Settings{}, fmt.Errorf("%s must not be negative, got %s", KeyHTTPTimeout, s.HTTPTimeout)
	}
	if s.ToolTimeout < 0 {
		return Settings{}, fmt.Errorf("%s must not be negative, got %s", KeyToolTimeout, s.ToolTimeout)
	}
	if strings.TrimSpace(s.Mapshaper) == "" {
		s.Mapshaper = DefaultMapshaper
	}
	if strings.TrimSpace(s.Archiver) == "" {
		s.Archiver = DefaultArchiver
	}
	return s, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
