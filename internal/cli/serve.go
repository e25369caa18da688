package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recordwise/aigate/internal/config"
	"github.com/recordwise/aigate/internal/server"
	"github.com/recordwise/aigate/pkg/cache"
	"github.com/recordwise/aigate/pkg/selector"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the governance status API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen, _ := cmd.Flags().GetString("listen")
	if listen != "" {
		cfg.Server.Listen = listen
	}

	logger := newLogger(cfg)

	g, store, err := initGuard(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := initCatalog(cfg)
	if err != nil {
		return err
	}

	table, err := initPricing(cfg)
	if err != nil {
		return err
	}

	cacheSvc := cache.NewService(store, logger)
	sel := selector.New(catalog, table)
	apiServer := server.NewServer(g, cacheSvc, sel, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 10*time.Second),
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("aigate started", "listen", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("aigate stopped")
	return nil
}
