package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mroshb/engage_app/internal/handlers"
	"github.com/mroshb/engage_app/internal/middleware"
	"github.com/mroshb/engage_app/pkg/logger"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Duration("shutdown-timeout", 15*time.Second, "Time allowed for in-flight requests on shutdown")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	limiter := middleware.NewRateLimiter(a.cfg.RateLimitPerUser, a.cfg.RateLimitPerIP, a.cfg.GetRateLimitWindow())
	defer limiter.Stop()

	h := handlers.NewHandler(handlers.Services{
		Profiles:  a.profiles,
		Credits:   a.credits,
		Goals:     a.goals,
		Streaks:   a.streaks,
		Tasks:     a.tasks,
		Checkouts: a.checkouts,
	})

	server := &http.Server{
		Addr:              ":" + a.cfg.AppPort,
		Handler:           handlers.NewRouter(h, handlers.RouterOptions{JWTSecret: a.cfg.JWTSecret, Limiter: limiter}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
