package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"watchlist-trader/src/app"
	"watchlist-trader/src/config"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/network"
	"watchlist-trader/src/server"

	"golang.org/x/sync/errgroup"
)

// -----------------------------------------------------------------------------

func main() {

	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	// 4. Setup Components
	journal := setupJournal(conf.MConfig, appLogger)
	if journal != nil {
		defer journal.Close()
	}

	client := network.NewBackendClient(conf.Backend, logger.NewLogger(conf.MConfig, "Backend"))
	controller := app.NewController(conf, client, app.NewSourceFactory(conf, client), journal)
	ui := server.NewUIServer(conf.MConfig, controller, logger.NewLogger(conf.MConfig, "UIServer"))
	controller.OnView(ui.Publish)

	// 5. Lifecycle Management
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return controller.Run(ctx) })
	g.Go(func() error { return ui.Start(ctx) })
	g.Go(func() error { return serveControl(ctx, conf, controller, appLogger) })

	appLogger.Info("%s ready: backend %s, sync %s", conf.Name, conf.Backend.BaseURL, conf.Sync.Mode)

	// Run (Blocking)
	if err := g.Wait(); err != nil {
		appLogger.Error("Stopped with error: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Shutdown complete.")
}
