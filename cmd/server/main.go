package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johnrirwin/newsfeed/internal/app"
	"github.com/johnrirwin/newsfeed/internal/config"
	"github.com/johnrirwin/newsfeed/internal/logging"
)

func main() {
	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Server.RefreshOnceMode {
		application.Logger.Info("Running single refresh")
		err := application.Sync(ctx)
		_ = application.Shutdown(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		application.Logger.Error("Server error", logging.WithField("error", runErr.Error()))
	} else {
		application.Logger.Info("Shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = application.Shutdown(shutdownCtx)

	if runErr != nil {
		os.Exit(1)
	}
}
