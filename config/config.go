// Package config loads the benchmark configuration from flags,
// environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/weiihann/qrngbench/backend"
)

// EnvPrefix is prepended to every environment variable, e.g.
// QRNGBENCH_BITS.
const EnvPrefix = "QRNGBENCH"

// Formats lists the supported report formats.
var Formats = []string{"text", "table", "json"}

// Config is the benchmark configuration. It is not modified after Load.
type Config struct {
	Bits        int           `mapstructure:"bits"`
	Backends    []string      `mapstructure:"backends"`
	Seed        int64         `mapstructure:"seed"`
	Format      string        `mapstructure:"format"`
	Parallel    bool          `mapstructure:"parallel"`
	Isolate     bool          `mapstructure:"isolate"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Pushgateway string        `mapstructure:"pushgateway"`
	LogLevel    string        `mapstructure:"log_level"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bits", 20)
	v.SetDefault("backends", backend.Known())
	v.SetDefault("seed", 0)
	v.SetDefault("format", "text")
	v.SetDefault("parallel", false)
	v.SetDefault("isolate", false)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("pushgateway", "")
	v.SetDefault("log_level", "info")
}

// Load reads configuration into a Config. Precedence, highest first:
// flags, QRNGBENCH_* environment, config file, defaults. An empty
// cfgFile looks for qrngbench.yaml in the working directory and is not
// an error when absent.
func Load(v *viper.Viper, flags *pflag.FlagSet, cfgFile string) (Config, error) {
	SetDefaults(v)

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return Config{}, bindErr
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("qrngbench")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// Environment values arrive as one comma separated string.
	cfg.Backends = splitList(cfg.Backends)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if c.Bits < 1 {
		return fmt.Errorf("bits must be at least 1, got %d", c.Bits)
	}

	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one backend must be specified")
	}

	for _, name := range c.Backends {
		if !slices.Contains(backend.Known(), name) {
			return fmt.Errorf("unknown backend %q (known: %s)",
				name, strings.Join(backend.Known(), ", "))
		}
	}

	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (known: %s)",
			c.Format, strings.Join(Formats, ", "))
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLevel maps a log level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", name)
	}

	return level, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
