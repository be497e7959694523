// Command feedsync runs one batch pass over the feed catalog and writes the
// merged per-category snapshots, then exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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

	syncErr := application.Sync(ctx)
	if syncErr != nil {
		application.Logger.Error("Sync finished with errors", logging.WithField("error", syncErr.Error()))
	} else {
		application.Logger.Info("Sync complete", logging.WithField("dir", cfg.Snapshot.Dir))
	}

	_ = application.Shutdown(context.Background())
	if syncErr != nil {
		os.Exit(1)
	}
}
