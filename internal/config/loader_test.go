package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/motorgen/internal/config"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Resolve.GapDays, convey.ShouldEqual, 180)
				convey.So(cfg.Features.Windows, convey.ShouldEqual, "3,5")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MOTORGEN_ADDR", ":8080")
			_ = os.Setenv("MOTORGEN_WORKER_COUNT", "3")
			_ = os.Setenv("MOTORGEN_RESOLVE__GAP_DAYS", "90")
			_ = os.Setenv("MOTORGEN_RESOLVE__MODE", "any-zero")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then flat and nested keys override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.Resolve.GapDays, convey.ShouldEqual, 90)
				convey.So(cfg.Resolve.Mode, convey.ShouldEqual, config.ModeAnyZero)
				convey.So(cfg.Join.DropVoidRaces, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeConfigFile(t, `
out_dir: /tmp/motorgen
resolve:
  gap_days: 120
join:
  max_missing_rate: 0.2
columns:
  venue: place
features:
  windows: "2,4"
`)
			_ = os.Setenv("MOTORGEN_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values merge with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutDir, convey.ShouldEqual, "/tmp/motorgen")
				convey.So(cfg.Resolve.GapDays, convey.ShouldEqual, 120)
				convey.So(cfg.Resolve.Mode, convey.ShouldEqual, config.ModeTransition)
				convey.So(cfg.Join.MaxMissingRate, convey.ShouldEqual, 0.2)
				convey.So(cfg.Columns.Venue, convey.ShouldEqual, "place")
				convey.So(cfg.Columns.MotorNumber, convey.ShouldEqual, "motor_number")
				convey.So(cfg.Features.Windows, convey.ShouldEqual, "2,4")
			})
		})

		convey.Convey("When file, env and flags all set the same key", func() {
			path := writeConfigFile(t, "resolve:\n  gap_days: 120\n")
			_ = os.Setenv("MOTORGEN_RESOLVE__GAP_DAYS", "60")
			defer clearConfigEnvVars()

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.Int("gap-days", 180, "")
			fs.String("out-dir", "out", "")
			convey.So(fs.Parse([]string{"--gap-days", "30"}), convey.ShouldBeNil)

			cfg, err := config.Load(ctx, config.WithFile(path), config.WithFlags(fs))

			convey.Convey("Then changed flags win and unchanged flags are ignored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Resolve.GapDays, convey.ShouldEqual, 30)
				convey.So(cfg.OutDir, convey.ShouldEqual, "out")
			})
		})

		convey.Convey("When env overrides the file", func() {
			path := writeConfigFile(t, "resolve:\n  gap_days: 120\n")
			_ = os.Setenv("MOTORGEN_RESOLVE__GAP_DAYS", "60")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithFile(path))

			convey.Convey("Then the env value is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Resolve.GapDays, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := writeConfigFile(t, `invalid: yaml: content: [`)

			cfg, err := config.Load(ctx, config.WithFile(path))

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.Load(ctx, config.WithFile("/non/existent/file.yaml"))

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a loaded value fails validation", func() {
			_ = os.Setenv("MOTORGEN_RESOLVE__MODE", "eager")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motorgen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"MOTORGEN_CONFIG",
		"MOTORGEN_ADDR",
		"MOTORGEN_WORKER_COUNT",
		"MOTORGEN_RESOLVE__GAP_DAYS",
		"MOTORGEN_RESOLVE__MODE",
	} {
		_ = os.Unsetenv(key)
	}
}
