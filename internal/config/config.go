package config


/*
domhits — aggregate domain hit counts from access logs
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-stp/domhits/internal/core"
	"github.com/x-stp/domhits/internal/hitlib"
)

// EnvPrefix prefixes every environment override, e.g. DOMHITS_MIN_HITS.
const EnvPrefix = "DOMHITS"

// Config holds the settings of a report run. Flags win over environment
// variables, which win over the config file, which wins over defaults.
type Config struct {
	MinHits     int64  `mapstructure:"min_hits"`
	Format      string `mapstructure:"format"`
	InputFormat string `mapstructure:"input_format"`
	Normalizer  string `mapstructure:"normalizer"`
	Output      string `mapstructure:"output"`
	MetricsFile string `mapstructure:"metrics_file"`
	Debug       bool   `mapstructure:"debug"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		MinHits:     core.DefaultMinHits,
		Format:      hitlib.FormatText,
		InputFormat: hitlib.InputPlain,
		Normalizer:  hitlib.NormalizerLabels,
	}
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"min-hits":     "min_hits",
	"format":       "format",
	"input-format": "input_format",
	"normalizer":   "normalizer",
	"output":       "output",
	"metrics-file": "metrics_file",
	"debug":        "debug",
}

// New returns a viper instance primed with defaults and environment lookup.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("min_hits", d.MinHits)
	v.SetDefault("format", d.Format)
	v.SetDefault("input_format", d.InputFormat)
	v.SetDefault("normalizer", d.Normalizer)
	v.SetDefault("output", d.Output)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("debug", d.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every known flag present in fs to its config key.
// Flags absent from fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file and decodes the merged settings.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks value ranges and enum names.
func (c *Config) Validate() error {
	if c.MinHits < 0 {
		return fmt.Errorf("%w: min_hits must not be negative, got %d", ErrInvalidConfig, c.MinHits)
	}
	switch c.Format {
	case hitlib.FormatText, hitlib.FormatTable, hitlib.FormatJSON:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	if _, err := hitlib.ParserByName(c.InputFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := hitlib.NormalizerByName(c.Normalizer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
