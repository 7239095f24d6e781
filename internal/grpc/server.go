package grpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/lottery-draft/internal/logger"
	"github.com/Billy-Davies-2/lottery-draft/internal/lottery"
	"github.com/Billy-Davies-2/lottery-draft/internal/models"
	"github.com/Billy-Davies-2/lottery-draft/internal/pubsub"
)

// Server implements the gRPC LotteryDraft service
type Server struct {
	engine *lottery.Engine
	pubsub pubsub.Broker
}

// NewServer creates a new gRPC server
func NewServer(engine *lottery.Engine, ps pubsub.Broker) *Server {
	return &Server{
		engine: engine,
		pubsub: ps,
	}
}

// NewGRPCServer builds a grpc.Server with the draft service and the standard
// health service registered, both reporting SERVING.
func NewGRPCServer(engine *lottery.Engine, ps pubsub.Broker, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(opts...)
	RegisterLotteryDraftServer(s, NewServer(engine, ps))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s, hs
}

// toStruct converts any JSON-encodable value into a protobuf Struct
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus maps engine errors to gRPC status codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, lottery.ErrDraftComplete), errors.Is(err, lottery.ErrNoTeams):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, lottery.ErrTeamNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, lottery.ErrInvalidName):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// GetState returns the current draft state
func (s *Server) GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	logger.Debug("gRPC: Getting draft state")
	return toStruct(s.engine.State())
}

// GeneratePick draws the next team
func (s *Server) GeneratePick(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	result, err := s.engine.DrawPick()
	if err != nil {
		logger.Info("gRPC: Pick rejected", "reason", err)
		return nil, toStatus(err)
	}

	s.pubsub.Publish(pubsub.PickEvent(result))
	return toStruct(result)
}

// UpdateTeamName expects {original_name, new_name} string fields
func (s *Server) UpdateTeamName(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	original, okOriginal := fields["original_name"].GetKind().(*structpb.Value_StringValue)
	newName, okNew := fields["new_name"].GetKind().(*structpb.Value_StringValue)
	if !okOriginal || !okNew {
		return nil, status.Error(codes.InvalidArgument, "original_name and new_name must be strings")
	}

	key := models.TeamKey(original.StringValue)
	if err := s.engine.Rename(key, newName.StringValue); err != nil {
		logger.Info("gRPC: Rename failed", "original_name", key, "error", err)
		return nil, toStatus(err)
	}

	s.pubsub.Publish(pubsub.RenameEvent(key, newName.StringValue))
	return toStruct(map[string]any{
		"success": true,
		"state":   s.engine.State(),
	})
}

// ResetDraft reloads the team list and clears the draft order
func (s *Server) ResetDraft(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	logger.Info("gRPC: Resetting draft")
	state := s.engine.Reset(ctx)

	s.pubsub.Publish(pubsub.ResetEvent(state))
	return toStruct(state)
}

// StreamEvents relays draft events until the client goes away
func (s *Server) StreamEvents(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ch := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(ch)

	logger.Debug("gRPC: Event stream opened")
	hello, err := toStruct(pubsub.Event{Type: "connected"})
	if err != nil {
		return err
	}
	if err := stream.Send(hello); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("gRPC: Event stream closed")
			return nil
		case event, ok := <-ch:
			if !ok {
				return status.Error(codes.Unavailable, "event bus closed")
			}
			msg, err := toStruct(event)
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}
