// AskFin server entrypoint.
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

	"github.com/humanda/askfin/internal/app"
	"github.com/humanda/askfin/internal/server"
)

func main() {
	configPaths := []string{"config/askfin.toml", "askfin.toml"}
	if path := os.Getenv("ASKFIN_CONFIG"); path != "" {
		configPaths = append(configPaths, path)
	}

	a, err := app.New(configPaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	warmCtx, cancelWarm := context.WithTimeout(context.Background(), 2*time.Minute)
	err = a.Warm(warmCtx)
	cancelWarm()
	if err != nil {
		a.Logger.Error().Err(err).Msg("Reference data warm-up failed")
		a.Close()
		os.Exit(1)
	}

	srv := server.NewServer(a)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
		cancel()
	}

	if err := a.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to close application")
	}
}
