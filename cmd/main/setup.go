package main

import (
	"context"
	"fmt"
	"net"

	"watchlist-trader/src/config"
	pb "watchlist-trader/src/grpc_control"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"
	"watchlist-trader/src/storage"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// setupJournal opens the order journal. A journal that cannot start is
// logged and skipped: trading does not depend on it.
func setupJournal(cfg *models.MConfig, appLogger *logger.Logger) interfaces.IJournal {
	journal, err := storage.NewJournal(cfg, logger.NewLogger(cfg, "Journal"))
	if err != nil {
		appLogger.Error("Failed to init journal: %v", err)
		return nil
	}
	if journal == nil {
		return nil
	}
	if err := journal.Initialize(); err != nil {
		appLogger.Error("Failed to migrate journal: %v", err)
		return nil
	}
	return journal
}

// -----------------------------------------------------------------------------

// serveControl runs the gRPC control server until ctx is done.
func serveControl(ctx context.Context, conf *config.Config, controller interfaces.IController, appLogger *logger.Logger) error {
	port := conf.GrpcPort
	if port == 0 {
		port = 50051
	}
	host := conf.GrpcHost
	if host == "" {
		host = conf.Host
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	grpcServer := grpc.NewServer()
	pb.RegisterControlServer(grpcServer, pb.NewControlService(controller, logger.NewLogger(conf.MConfig, "ControlService")))

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	appLogger.Info("Starting gRPC Control Server on %s:%d", host, port)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}
