// Package config merges settings from a yaml file, VOCABDECK_ environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "VOCABDECK_"

// Config holds the runtime settings.
//
// Timezone fixes the observer calendar used for "today" and streaks. It is
// an explicit setting, never ambient process state, so day boundaries are
// reproducible. Defaults to UTC.
type Config struct {
	Addr     string `koanf:"addr" validate:"required"`
	DBPath   string `koanf:"db" validate:"required"`
	Timezone string `koanf:"timezone" validate:"required,timezone"`
}

// Flags returns the flag set the server understands, with defaults applied.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("vocabdeck", pflag.ExitOnError)
	flags.String("config", "", "path to a yaml config file")
	flags.String("addr", ":8080", "listen address for the HTTP API")
	flags.String("db", "vocabdeck.db", "path to the sqlite database file")
	flags.String("timezone", "UTC", "IANA time zone for calendar-day accounting")
	flags.Bool("sync", false, "sync word-list sources and exit")
	return flags
}

// Load builds the configuration from the parsed flag set.
func Load(flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
