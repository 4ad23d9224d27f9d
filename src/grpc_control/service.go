package grpc_control

import (
	"context"
	"errors"

	"watchlist-trader/src/helpers"
	"watchlist-trader/src/interfaces"
	"watchlist-trader/src/logger"
	"watchlist-trader/src/models"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlService lets scripts drive the watchlist without the browser.
type ControlService struct {
	Controller interfaces.IController
	Logger     *logger.Logger
}

func NewControlService(controller interfaces.IController, log *logger.Logger) *ControlService {
	if log == nil {
		log = logger.NewLogger(nil, "ControlService")
	}
	return &ControlService{Controller: controller, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *ControlService) Subscribe(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.Controller.Subscribe(ctx, req.GetValue(), nil); err != nil {
		s.Logger.Warning("gRPC: Subscribe %q failed: %v", req.GetValue(), err)
		return nil, toStatus(err)
	}
	s.Logger.Info("gRPC: Subscribe %q", req.GetValue())
	return statusStruct(s.Controller.View())
}

// -----------------------------------------------------------------------------

func (s *ControlService) Unsubscribe(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	s.Controller.Unsubscribe()
	s.Logger.Info("gRPC: Unsubscribe")
	return statusStruct(s.Controller.View())
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return statusStruct(s.Controller.View())
}

// -----------------------------------------------------------------------------

func statusStruct(view models.MView) (*structpb.Struct, error) {
	symbols := make([]interface{}, 0, len(view.Subscription.Symbols))
	for _, sym := range view.Subscription.Symbols {
		symbols = append(symbols, sym)
	}
	var snapshotSeq uint64
	if view.Snapshot != nil {
		snapshotSeq = view.Snapshot.Seq
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"state":       view.Subscription.State.String(),
		"seq":         view.Subscription.Seq,
		"symbols":     symbols,
		"testMode":    view.Subscription.TestMode,
		"lastError":   view.Subscription.LastError,
		"syncMode":    view.Sync.Mode,
		"syncActive":  view.Sync.Active,
		"syncError":   view.Sync.LastError,
		"snapshotSeq": snapshotSeq,
		"openOrders":  len(view.Orders),
		"positions":   len(view.Positions),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case helpers.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, helpers.ErrSuperseded):
		return status.Error(codes.Aborted, err.Error())
	}
	if _, ok := helpers.TransportStatus(err); ok {
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
