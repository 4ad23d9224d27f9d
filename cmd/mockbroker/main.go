package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"watchlist-trader/src/config"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/mockbroker"
)

// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(conf.MConfig, "MockBroker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker := mockbroker.NewBroker(conf.MockBroker, log)
	if err := broker.Run(ctx); err != nil {
		log.Critical("Mock broker failed: %v", err)
	}
	log.Info("Mock broker stopped")
}
