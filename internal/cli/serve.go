package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/motorgen/internal/adapters/http/api"
	"github.com/okian/motorgen/internal/adapters/repository"
	"github.com/okian/motorgen/internal/adapters/storage/sqlite"
	"github.com/okian/motorgen/internal/config"
	"github.com/okian/motorgen/pkg/logger"
)

// HTTP server timeouts.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ErrStateRequired is returned when serve runs without a state database.
var ErrStateRequired = errors.New("serve needs a state database (--state)")

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve identity and feature lookups over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, ConfigFrom(cmd.Context()))
		},
	}
	cmd.Flags().String("addr", config.New().Addr, "Listen address")
	return cmd
}

// Handler opens the state database at cfg.StatePath, loads its intervals
// into a lookup index and returns the API router. The returned func
// closes the database.
func Handler(ctx context.Context, cfg *config.Config) (http.Handler, func() error, error) {
	if cfg.StatePath == "" {
		return nil, nil, ErrStateRequired
	}
	log := logger.Get()
	st, err := sqlite.Open(ctx, cfg.StatePath, sqlite.WithLogger(log.Named("state")))
	if err != nil {
		return nil, nil, err
	}
	ivs, err := st.Intervals(ctx)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	repo := repository.NewIntervalStore(repository.WithLogger(log.Named("repository")))
	if err := repo.Replace(ctx, ivs); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("load intervals: %w", err)
	}
	srv := api.NewServer(repo,
		api.WithFeatures(st),
		api.WithRuns(st),
		api.WithVersion(func() uint64 { return repo.Snapshot().Version }),
		api.WithLogger(log.Named("api")),
	)
	log.Info(ctx, "lookup index loaded",
		logger.String("state", st.Path()),
		logger.Int("intervals", len(ivs)))
	return srv.Router(), st.Close, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	h, closeState, err := Handler(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeState(); err != nil {
			log.Warn(ctx, "failed to close state", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
