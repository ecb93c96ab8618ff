package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix  = "MOTORGEN_"
	envConfig  = "MOTORGEN_CONFIG"
	envNesting = "__"
)

// flagKeys maps command-line flag names to config keys when the two differ.
var flagKeys = map[string]string{ //nolint:gochecknoglobals // static lookup table
	"bins-dir":         "bins_dir",
	"races":            "races_path",
	"out-dir":          "out_dir",
	"state":            "state_path",
	"start-date":       "start_date",
	"end-date":         "end_date",
	"metrics-file":     "metrics_file",
	"log-level":        "log_level",
	"log-format":       "log_format",
	"workers":          "worker_count",
	"gap-days":         "resolve.gap_days",
	"mode":             "resolve.mode",
	"max-missing-rate": "join.max_missing_rate",
	"drop-void-races":  "join.drop_void_races",
	"windows":          "features.windows",
	"sum-columns":      "features.sum_columns",
	"mean-columns":     "features.mean_columns",
	"parquet":          "export.parquet",
	"addr":             "addr",
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path  string
	flags *pflag.FlagSet
}

// WithFile loads the given YAML file instead of MOTORGEN_CONFIG.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithFlags overlays flags the user changed on this set.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) { o.flags = fs }
}

// Load builds a Config by layering, low to high:
//  1. defaults (New())
//  2. YAML file from WithFile or MOTORGEN_CONFIG
//  3. env (prefix MOTORGEN_, "__" separates nested keys)
//  4. changed flags from WithFlags
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{path: os.Getenv(envConfig)}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if o.path != "" {
		if err := k.Load(file.Provider(o.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, o.path, err)
		}
	}

	// MOTORGEN_RESOLVE__GAP_DAYS -> resolve.gap_days
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfig {
			return ""
		}
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, envNesting, ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if o.flags != nil {
		fp := posflag.ProviderWithFlag(o.flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(o.flags, f)
		})
		if err := k.Load(fp, nil); err != nil {
			return nil, fmt.Errorf("%w: flags: %w", ErrLoadConfig, err)
		}
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(parts, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.StartDate != "" && c.EndDate != "" && c.StartDate > c.EndDate {
		return fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidConfig, c.StartDate, c.EndDate)
	}
	if _, err := c.WindowSizes(); err != nil {
		return err
	}
	if len(c.SumColumns())+len(c.MeanColumns()) == 0 {
		return fmt.Errorf("%w: no feature columns configured", ErrInvalidConfig)
	}
	return nil
}
