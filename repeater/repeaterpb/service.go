// Package repeaterpb describes the repeater management gRPC API.
//
// Messages are protobuf well-known types, so the API needs no generated
// message code: radio identifiers travel as StringValue, flag updates and
// inspection results as Struct.
package repeaterpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "repeaterpb.RepeaterService"

const (
	RepeaterService_ShowState_FullMethodName       = "/" + ServiceName + "/ShowState"
	RepeaterService_ShowStats_FullMethodName       = "/" + ServiceName + "/ShowStats"
	RepeaterService_ResetStats_FullMethodName      = "/" + ServiceName + "/ResetStats"
	RepeaterService_AddRadio_FullMethodName        = "/" + ServiceName + "/AddRadio"
	RepeaterService_RemoveRadio_FullMethodName     = "/" + ServiceName + "/RemoveRadio"
	RepeaterService_UpdateRadio_FullMethodName     = "/" + ServiceName + "/UpdateRadio"
	RepeaterService_SetPrimaryRadio_FullMethodName = "/" + ServiceName + "/SetPrimaryRadio"
	RepeaterService_UpdatePolicy_FullMethodName    = "/" + ServiceName + "/UpdatePolicy"
)

// RepeaterServiceServer is the server API of the repeater management
// service.
//
// UpdateRadio takes a Struct with a string "radio" field and optional bool
// "fast_lane" and "no_backhaul" fields. UpdatePolicy takes a Struct with
// optional bool "enabled", "always_primary", "drop_secondary_multicast"
// and "force_client_multicast" fields. Absent fields are left untouched.
type RepeaterServiceServer interface {
	ShowState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ShowStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ResetStats(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	AddRadio(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	RemoveRadio(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	UpdateRadio(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SetPrimaryRadio(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	UpdatePolicy(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterRepeaterServiceServer registers the service on the gRPC server.
func RegisterRepeaterServiceServer(s grpc.ServiceRegistrar, srv RepeaterServiceServer) {
	s.RegisterService(&RepeaterService_ServiceDesc, srv)
}

// RepeaterService_ServiceDesc is the grpc.ServiceDesc of the service.
var RepeaterService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RepeaterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ShowState",
			Handler:    unaryHandler(RepeaterService_ShowState_FullMethodName, RepeaterServiceServer.ShowState),
		},
		{
			MethodName: "ShowStats",
			Handler:    unaryHandler(RepeaterService_ShowStats_FullMethodName, RepeaterServiceServer.ShowStats),
		},
		{
			MethodName: "ResetStats",
			Handler:    unaryHandler(RepeaterService_ResetStats_FullMethodName, RepeaterServiceServer.ResetStats),
		},
		{
			MethodName: "AddRadio",
			Handler:    unaryHandler(RepeaterService_AddRadio_FullMethodName, RepeaterServiceServer.AddRadio),
		},
		{
			MethodName: "RemoveRadio",
			Handler:    unaryHandler(RepeaterService_RemoveRadio_FullMethodName, RepeaterServiceServer.RemoveRadio),
		},
		{
			MethodName: "UpdateRadio",
			Handler:    unaryHandler(RepeaterService_UpdateRadio_FullMethodName, RepeaterServiceServer.UpdateRadio),
		},
		{
			MethodName: "SetPrimaryRadio",
			Handler:    unaryHandler(RepeaterService_SetPrimaryRadio_FullMethodName, RepeaterServiceServer.SetPrimaryRadio),
		},
		{
			MethodName: "UpdatePolicy",
			Handler:    unaryHandler(RepeaterService_UpdatePolicy_FullMethodName, RepeaterServiceServer.UpdatePolicy),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "repeaterpb/service.go",
}

func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(RepeaterServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RepeaterServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RepeaterServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// UnimplementedRepeaterServiceServer can be embedded to have forward
// compatible implementations.
type UnimplementedRepeaterServiceServer struct{}

func (UnimplementedRepeaterServiceServer) ShowState(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, unimplemented("ShowState")
}

func (UnimplementedRepeaterServiceServer) ShowStats(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, unimplemented("ShowStats")
}

func (UnimplementedRepeaterServiceServer) ResetStats(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, unimplemented("ResetStats")
}

func (UnimplementedRepeaterServiceServer) AddRadio(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("AddRadio")
}

func (UnimplementedRepeaterServiceServer) RemoveRadio(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("RemoveRadio")
}

func (UnimplementedRepeaterServiceServer) UpdateRadio(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, unimplemented("UpdateRadio")
}

func (UnimplementedRepeaterServiceServer) SetPrimaryRadio(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, unimplemented("SetPrimaryRadio")
}

func (UnimplementedRepeaterServiceServer) UpdatePolicy(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, unimplemented("UpdatePolicy")
}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

// RepeaterServiceClient is the client API of the repeater management
// service.
type RepeaterServiceClient interface {
	ShowState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ShowStats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResetStats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	AddRadio(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	RemoveRadio(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	UpdateRadio(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	SetPrimaryRadio(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	UpdatePolicy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type repeaterServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRepeaterServiceClient creates a client over the connection.
func NewRepeaterServiceClient(cc grpc.ClientConnInterface) RepeaterServiceClient {
	return &repeaterServiceClient{cc: cc}
}

func (m *repeaterServiceClient) ShowState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := m.cc.Invoke(ctx, RepeaterService_ShowState_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *repeaterServiceClient) ShowStats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := m.cc.Invoke(ctx, RepeaterService_ShowStats_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *repeaterServiceClient) ResetStats(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return m.invokeEmpty(ctx, RepeaterService_ResetStats_FullMethodName, in, opts...)
}

func (m *repeaterServiceClient) AddRadio(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return m.invokeEmpty(ctx, RepeaterService_AddRadio_FullMethodName, in, opts...)
}

func (m *repeaterServiceClient) RemoveRadio(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return m.invokeEmpty(ctx, RepeaterService_RemoveRadio_FullMethodName, in, opts...)
}

func (m *repeaterServiceClient) UpdateRadio(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return m.invokeEmpty(ctx, RepeaterService_UpdateRadio_FullMethodName, in, opts...)
}

func (m *repeaterServiceClient) SetPrimaryRadio(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return m.invokeEmpty(ctx, RepeaterService_SetPrimaryRadio_FullMethodName, in, opts...)
}

func (m *repeaterServiceClient) UpdatePolicy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return m.invokeEmpty(ctx, RepeaterService_UpdatePolicy_FullMethodName, in, opts...)
}

func (m *repeaterServiceClient) invokeEmpty(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := m.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
