package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/varsilias/researchpaper/internal/buildinfo"
	"github.com/varsilias/researchpaper/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogJSON)
			logger.Info("build", "version", buildinfo.Version, "commit", buildinfo.Commit, "built_at", buildinfo.BuiltAt)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			server := &http.Server{
				Addr:              cfg.ListenAddr(),
				Handler:           a.handler,
				ReadTimeout:       15 * time.Second,
				ReadHeaderTimeout: 15 * time.Second,
				// completions from free models can take minutes
				WriteTimeout: 5 * time.Minute,
				IdleTimeout:  120 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("server is listening", "addr", server.Addr, "store", cfg.Store.Driver)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("graceful shutdown failed", "err", err)
					return err
				}
				logger.Info("server stopped")
				return nil
			})
			return g.Wait()
		},
	}
}
