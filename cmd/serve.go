package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/api"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scrape HTTP API",
		Long: `Serves POST /api/scrape-event alongside health and metrics endpoints.
Scrapes are throttled per target host before they start.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := c.build(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer p.Close()

	var apiKey string
	if c.cfg.Auth.Enabled {
		apiKey = c.cfg.Auth.APIKey
	}
	apiServer := api.NewServer(p.scraper, p.limiter, api.Options{
		APIKey:         apiKey,
		RequestTimeout: c.cfg.RequestTimeout(),
	}, c.logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return serve(ctx, srv, c.logger)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
