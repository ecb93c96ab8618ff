package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/motorgen/internal/adapters/storage/sqlite"
	service "github.com/okian/motorgen/internal/app"
	"github.com/okian/motorgen/internal/config"
	"github.com/okian/motorgen/internal/domain/join"
	"github.com/okian/motorgen/pkg/logger"
)

func addExtractFlags(fs *pflag.FlagSet, d *config.Config) {
	fs.String("bins-dir", d.BinsDir, "Directory of archived ranking documents")
	fs.String("start-date", "", "First document date to read (YYYYMMDD)")
	fs.String("end-date", "", "Last document date to read (YYYYMMDD)")
}

func addResolveFlags(fs *pflag.FlagSet, d *config.Config) {
	fs.Int("gap-days", d.Resolve.GapDays, "Largest observation gap that may hold a replacement")
	fs.String("mode", d.Resolve.Mode, "Replacement rule (transition|any-zero)")
}

func addJoinFlags(fs *pflag.FlagSet, d *config.Config) {
	fs.String("races", d.RacesPath, "Race table CSV")
	fs.Float64("max-missing-rate", d.Join.MaxMissingRate, "Fail the join above this unresolved share")
	fs.Bool("drop-void-races", d.Join.DropVoidRaces, "Drop every row of a void race")
}

func addFeatureFlags(fs *pflag.FlagSet, d *config.Config) {
	fs.String("windows", d.Features.Windows, "Trailing window sizes, comma separated")
	fs.String("sum-columns", d.Features.SumColumns, "Metrics summed over windows")
	fs.String("mean-columns", d.Features.MeanColumns, "Metrics averaged over windows")
}

// withService opens the state database when one is configured, builds
// the service and hands it to fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) (err error) {
	ctx := cmd.Context()
	cfg := ConfigFrom(ctx)
	log := logger.Get()

	opts := []service.Option{service.WithLogger(log)}
	if cfg.StatePath != "" {
		st, oerr := sqlite.Open(ctx, cfg.StatePath, sqlite.WithLogger(log.Named("state")))
		if oerr != nil {
			return oerr
		}
		defer func() { err = errors.Join(err, st.Close()) }()
		opts = append(opts, service.WithState(st))
	}

	svc, err := service.New(cfg, opts...)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract motor snapshots from ranking documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				sum, err := svc.Extract(ctx)
				if err != nil {
					return err
				}
				renderExtract(cmd.OutOrStdout(), sum)
				_, err = svc.Finish(ctx)
				return err
			})
		},
	}
	addExtractFlags(cmd.Flags(), config.New())
	return cmd
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Infer motor identity intervals from snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				sum, err := svc.Resolve(ctx)
				if err != nil {
					return err
				}
				renderResolve(cmd.OutOrStdout(), sum)
				_, err = svc.Finish(ctx)
				return err
			})
		},
	}
	addResolveFlags(cmd.Flags(), config.New())
	return cmd
}

func newJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Attach motor identities and snapshots to race rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				rep, err := svc.Join(ctx)
				if err != nil && !errors.Is(err, join.ErrMissingRateExceeded) {
					return err
				}
				renderJoin(cmd.OutOrStdout(), rep)
				if err != nil {
					return err
				}
				_, err = svc.Finish(ctx)
				return err
			})
		},
	}
	addJoinFlags(cmd.Flags(), config.New())
	return cmd
}

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "Aggregate joined rows into per-section motor metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				st, err := svc.BuildSections(ctx)
				if err != nil {
					return err
				}
				renderSections(cmd.OutOrStdout(), st)
				_, err = svc.Finish(ctx)
				return err
			})
		},
	}
}

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Derive trailing section features per motor identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				sum, err := svc.BuildFeatures(ctx)
				if err != nil {
					return err
				}
				renderFeatures(cmd.OutOrStdout(), sum)
				_, err = svc.Finish(ctx)
				return err
			})
		},
	}
	addFeatureFlags(cmd.Flags(), config.New())
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every stage in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc *service.Service) error {
				sum, err := svc.RunAll(ctx)
				if err != nil {
					return err
				}
				renderSummary(cmd.OutOrStdout(), sum)
				return nil
			})
		},
	}
	d := config.New()
	fs := cmd.Flags()
	addExtractFlags(fs, d)
	addResolveFlags(fs, d)
	addJoinFlags(fs, d)
	addFeatureFlags(fs, d)
	fs.Bool("parquet", d.Export.Parquet, "Also write a Parquet copy of every output")
	return cmd
}
