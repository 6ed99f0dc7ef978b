package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/chatmaps/internal/transport/chi"
	"github.com/kailas-cloud/chatmaps/internal/version"
)

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.logger

	server := chiTransport.NewServer(app.retrieval, app.health, logger)
	routerCfg := chiTransport.RouterConfig{AllowedOrigins: app.cfg.HTTP.AllowedOrigins}
	addr := fmt.Sprintf(":%d", app.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, routerCfg, logger),
		ReadTimeout:  time.Duration(app.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(app.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
		)
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
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(app.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func fetchCommand(c *cli.Context) error {
	locations := c.Args().Slice()
	if len(locations) == 0 {
		return errors.New("fetch: at least one location is required")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.cfg.Places.APIKey == "" {
		return errors.New("fetch: places.api_key is not configured")
	}

	reports, err := app.ingest.WithForce(c.Bool("force")).IngestMany(ctx, locations)
	for _, r := range reports {
		printReport(c.App.Writer, r)
	}
	return err
}

func queryCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return errors.New("query: text is required")
	}

	app, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer app.Close()

	hits, err := app.retrieval.Query(c.Context, text, c.Int("num-results"))
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	printRecommendations(c.App.Writer, text, hits)
	return nil
}
