package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is described by hand on top of the protobuf well-known types,
// so no generated package is needed on either side of the wire.

const OrreryServiceName = "orrery.v1.OrreryService"

const (
	OrreryService_GetSnapshot_FullMethodName    = "/orrery.v1.OrreryService/GetSnapshot"
	OrreryService_ListBodies_FullMethodName     = "/orrery.v1.OrreryService/ListBodies"
	OrreryService_GetBody_FullMethodName        = "/orrery.v1.OrreryService/GetBody"
	OrreryService_GetCamera_FullMethodName      = "/orrery.v1.OrreryService/GetCamera"
	OrreryService_OrbitCamera_FullMethodName    = "/orrery.v1.OrreryService/OrbitCamera"
	OrreryService_RotateCamera_FullMethodName   = "/orrery.v1.OrreryService/RotateCamera"
	OrreryService_DollyCamera_FullMethodName    = "/orrery.v1.OrreryService/DollyCamera"
	OrreryService_FocusBody_FullMethodName      = "/orrery.v1.OrreryService/FocusBody"
	OrreryService_RecenterCamera_FullMethodName = "/orrery.v1.OrreryService/RecenterCamera"
	OrreryService_ResizeViewport_FullMethodName = "/orrery.v1.OrreryService/ResizeViewport"
	OrreryService_SetTimeScale_FullMethodName   = "/orrery.v1.OrreryService/SetTimeScale"
	OrreryService_WatchSnapshots_FullMethodName = "/orrery.v1.OrreryService/WatchSnapshots"
)

// OrreryServiceServer is the server API for orrery.v1.OrreryService.
type OrreryServiceServer interface {
	GetSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListBodies(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetBody(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetCamera(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	OrbitCamera(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	RotateCamera(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DollyCamera(context.Context, *wrapperspb.DoubleValue) (*emptypb.Empty, error)
	FocusBody(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	RecenterCamera(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	ResizeViewport(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SetTimeScale(context.Context, *wrapperspb.DoubleValue) (*wrapperspb.DoubleValue, error)
	WatchSnapshots(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// UnimplementedOrreryServiceServer answers every RPC with Unimplemented.
// Embed it by value for forward compatibility.
type UnimplementedOrreryServiceServer struct{}

func (UnimplementedOrreryServiceServer) GetSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSnapshot not implemented")
}
func (UnimplementedOrreryServiceServer) ListBodies(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListBodies not implemented")
}
func (UnimplementedOrreryServiceServer) GetBody(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBody not implemented")
}
func (UnimplementedOrreryServiceServer) GetCamera(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCamera not implemented")
}
func (UnimplementedOrreryServiceServer) OrbitCamera(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method OrbitCamera not implemented")
}
func (UnimplementedOrreryServiceServer) RotateCamera(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RotateCamera not implemented")
}
func (UnimplementedOrreryServiceServer) DollyCamera(context.Context, *wrapperspb.DoubleValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DollyCamera not implemented")
}
func (UnimplementedOrreryServiceServer) FocusBody(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method FocusBody not implemented")
}
func (UnimplementedOrreryServiceServer) RecenterCamera(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RecenterCamera not implemented")
}
func (UnimplementedOrreryServiceServer) ResizeViewport(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method ResizeViewport not implemented")
}
func (UnimplementedOrreryServiceServer) SetTimeScale(context.Context, *wrapperspb.DoubleValue) (*wrapperspb.DoubleValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SetTimeScale not implemented")
}
func (UnimplementedOrreryServiceServer) WatchSnapshots(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Error(codes.Unimplemented, "method WatchSnapshots not implemented")
}

// RegisterOrreryServiceServer registers srv on s.
func RegisterOrreryServiceServer(s grpc.ServiceRegistrar, srv OrreryServiceServer) {
	s.RegisterService(&OrreryService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.Handler.
func unaryHandler[Req any, Res any](
	fullMethod string,
	call func(OrreryServiceServer, context.Context, *Req) (*Res, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrreryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrreryServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchSnapshotsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(OrreryServiceServer).WatchSnapshots(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// OrreryService_ServiceDesc is the grpc.ServiceDesc for orrery.v1.OrreryService.
var OrreryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: OrreryServiceName,
	HandlerType: (*OrreryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSnapshot", Handler: unaryHandler(OrreryService_GetSnapshot_FullMethodName, OrreryServiceServer.GetSnapshot)},
		{MethodName: "ListBodies", Handler: unaryHandler(OrreryService_ListBodies_FullMethodName, OrreryServiceServer.ListBodies)},
		{MethodName: "GetBody", Handler: unaryHandler(OrreryService_GetBody_FullMethodName, OrreryServiceServer.GetBody)},
		{MethodName: "GetCamera", Handler: unaryHandler(OrreryService_GetCamera_FullMethodName, OrreryServiceServer.GetCamera)},
		{MethodName: "OrbitCamera", Handler: unaryHandler(OrreryService_OrbitCamera_FullMethodName, OrreryServiceServer.OrbitCamera)},
		{MethodName: "RotateCamera", Handler: unaryHandler(OrreryService_RotateCamera_FullMethodName, OrreryServiceServer.RotateCamera)},
		{MethodName: "DollyCamera", Handler: unaryHandler(OrreryService_DollyCamera_FullMethodName, OrreryServiceServer.DollyCamera)},
		{MethodName: "FocusBody", Handler: unaryHandler(OrreryService_FocusBody_FullMethodName, OrreryServiceServer.FocusBody)},
		{MethodName: "RecenterCamera", Handler: unaryHandler(OrreryService_RecenterCamera_FullMethodName, OrreryServiceServer.RecenterCamera)},
		{MethodName: "ResizeViewport", Handler: unaryHandler(OrreryService_ResizeViewport_FullMethodName, OrreryServiceServer.ResizeViewport)},
		{MethodName: "SetTimeScale", Handler: unaryHandler(OrreryService_SetTimeScale_FullMethodName, OrreryServiceServer.SetTimeScale)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchSnapshots",
			Handler:       watchSnapshotsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "orrery/v1/orrery.proto",
}

// OrreryServiceClient is the client API for orrery.v1.OrreryService.
type OrreryServiceClient interface {
	GetSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListBodies(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetBody(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetCamera(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	OrbitCamera(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	RotateCamera(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	DollyCamera(ctx context.Context, in *wrapperspb.DoubleValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	FocusBody(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	RecenterCamera(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	ResizeViewport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SetTimeScale(ctx context.Context, in *wrapperspb.DoubleValue, opts ...grpc.CallOption) (*wrapperspb.DoubleValue, error)
	WatchSnapshots(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type orreryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewOrreryServiceClient returns a client bound to cc.
func NewOrreryServiceClient(cc grpc.ClientConnInterface) OrreryServiceClient {
	return &orreryServiceClient{cc: cc}
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *orreryServiceClient) GetSnapshot(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, OrreryService_GetSnapshot_FullMethodName, in, opts)
}

func (c *orreryServiceClient) ListBodies(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, OrreryService_ListBodies_FullMethodName, in, opts)
}

func (c *orreryServiceClient) GetBody(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, OrreryService_GetBody_FullMethodName, in, opts)
}

func (c *orreryServiceClient) GetCamera(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, OrreryService_GetCamera_FullMethodName, in, opts)
}

func (c *orreryServiceClient) OrbitCamera(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, OrreryService_OrbitCamera_FullMethodName, in, opts)
}

func (c *orreryServiceClient) RotateCamera(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, OrreryService_RotateCamera_FullMethodName, in, opts)
}

func (c *orreryServiceClient) DollyCamera(ctx context.Context, in *wrapperspb.DoubleValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, OrreryService_DollyCamera_FullMethodName, in, opts)
}

func (c *orreryServiceClient) FocusBody(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, OrreryService_FocusBody_FullMethodName, in, opts)
}

func (c *orreryServiceClient) RecenterCamera(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, OrreryService_RecenterCamera_FullMethodName, in, opts)
}

func (c *orreryServiceClient) ResizeViewport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, OrreryService_ResizeViewport_FullMethodName, in, opts)
}

func (c *orreryServiceClient) SetTimeScale(ctx context.Context, in *wrapperspb.DoubleValue, opts ...grpc.CallOption) (*wrapperspb.DoubleValue, error) {
	return invoke[wrapperspb.DoubleValue](ctx, c.cc, OrreryService_SetTimeScale_FullMethodName, in, opts)
}

func (c *orreryServiceClient) WatchSnapshots(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &OrreryService_ServiceDesc.Streams[0], OrreryService_WatchSnapshots_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
