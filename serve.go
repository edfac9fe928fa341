package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vodforge/job"
	"vodforge/logger"
	"vodforge/routes"
	writerbackends "vodforge/writerBackends"

	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logger.Info("Starting vodforge server initialization")

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	serveDir := ""
	if ds, ok := svc.gateway.(*writerbackends.DirectServe); ok {
		serveDir = ds.BaseDir()
	}
	router := routes.NewRouter(&routes.Handlers{
		Jobs:   svc.orch,
		Status: svc.status,
		Source: func() job.Source {
			return &job.RemoteSource{
				Gateway: svc.gateway,
				Bucket:  a.cfg.Storage.Bucket,
				Prefix:  a.cfg.SourcePrefix,
				Timeout: a.cfg.DownloadTimeoutDuration(),
			}
		},
		ServeDir: serveDir,
	})

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("vodforge server listening on %s (backend %s, bucket %s)", a.cfg.ListenAddr, a.cfg.Storage.Backend, a.cfg.Storage.Bucket)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down, waiting for running jobs")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}
