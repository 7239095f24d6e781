package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "lottery.v1.LotteryDraft"

const (
	methodGetState       = "/" + ServiceName + "/GetState"
	methodGeneratePick   = "/" + ServiceName + "/GeneratePick"
	methodUpdateTeamName = "/" + ServiceName + "/UpdateTeamName"
	methodResetDraft     = "/" + ServiceName + "/ResetDraft"
	methodStreamEvents   = "/" + ServiceName + "/StreamEvents"
)

// LotteryDraftServer is the server API for the lottery draft service.
// Messages are well-known types; structs carry the same JSON shapes as the
// HTTP API.
type LotteryDraftServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GeneratePick(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateTeamName(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetDraft(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterLotteryDraftServer registers srv on s
func RegisterLotteryDraftServer(s grpc.ServiceRegistrar, srv LotteryDraftServer) {
	s.RegisterService(&LotteryDraftServiceDesc, srv)
}

func unaryHandler[Req any](method string, call func(LotteryDraftServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LotteryDraftServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LotteryDraftServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LotteryDraftServer).StreamEvents(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// LotteryDraftServiceDesc describes the lottery draft service
var LotteryDraftServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LotteryDraftServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetState",
			Handler: unaryHandler(methodGetState, func(s LotteryDraftServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.GetState(ctx, in)
			}),
		},
		{
			MethodName: "GeneratePick",
			Handler: unaryHandler(methodGeneratePick, func(s LotteryDraftServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.GeneratePick(ctx, in)
			}),
		},
		{
			MethodName: "UpdateTeamName",
			Handler: unaryHandler(methodUpdateTeamName, func(s LotteryDraftServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.UpdateTeamName(ctx, in)
			}),
		},
		{
			MethodName: "ResetDraft",
			Handler: unaryHandler(methodResetDraft, func(s LotteryDraftServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.ResetDraft(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			Handler:       streamEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "lottery/v1/lottery.proto",
}

// Client calls the lottery draft service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetState(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetState, &emptypb.Empty{}, opts...)
}

func (c *Client) GeneratePick(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGeneratePick, &emptypb.Empty{}, opts...)
}

func (c *Client) UpdateTeamName(ctx context.Context, originalName, newName string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{
		"original_name": originalName,
		"new_name":      newName,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, methodUpdateTeamName, in, opts...)
}

func (c *Client) ResetDraft(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodResetDraft, &emptypb.Empty{}, opts...)
}

// StreamEvents opens the draft event stream
func (c *Client) StreamEvents(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &LotteryDraftServiceDesc.Streams[0], methodStreamEvents, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
