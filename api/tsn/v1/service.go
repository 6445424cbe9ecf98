package tsnv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SNetwork_ServiceName               = "tsn.v1.SNetwork"
	SNetwork_CreateUser_FullMethodName = "/tsn.v1.SNetwork/CreateUser"
	SNetwork_Follow_FullMethodName     = "/tsn.v1.SNetwork/Follow"
	SNetwork_Unfollow_FullMethodName   = "/tsn.v1.SNetwork/Unfollow"
	SNetwork_ListUsers_FullMethodName  = "/tsn.v1.SNetwork/ListUsers"
	SNetwork_Timeline_FullMethodName   = "/tsn.v1.SNetwork/Timeline"
)

// SNetworkClient is the client API for the SNetwork service.
type SNetworkClient interface {
	CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserReply, error)
	Follow(ctx context.Context, in *PersonRequest, opts ...grpc.CallOption) (*PersonReply, error)
	Unfollow(ctx context.Context, in *PersonRequest, opts ...grpc.CallOption) (*PersonReply, error)
	ListUsers(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListReply, error)
	Timeline(ctx context.Context, opts ...grpc.CallOption) (SNetwork_TimelineClient, error)
}

type sNetworkClient struct {
	cc grpc.ClientConnInterface
}

// NewSNetworkClient wraps cc. Every call is sent with the JSON codec.
func NewSNetworkClient(cc grpc.ClientConnInterface) SNetworkClient {
	return &sNetworkClient{cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *sNetworkClient) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*CreateUserReply, error) {
	out := new(CreateUserReply)
	if err := c.cc.Invoke(ctx, SNetwork_CreateUser_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sNetworkClient) Follow(ctx context.Context, in *PersonRequest, opts ...grpc.CallOption) (*PersonReply, error) {
	out := new(PersonReply)
	if err := c.cc.Invoke(ctx, SNetwork_Follow_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sNetworkClient) Unfollow(ctx context.Context, in *PersonRequest, opts ...grpc.CallOption) (*PersonReply, error) {
	out := new(PersonReply)
	if err := c.cc.Invoke(ctx, SNetwork_Unfollow_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sNetworkClient) ListUsers(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListReply, error) {
	out := new(ListReply)
	if err := c.cc.Invoke(ctx, SNetwork_ListUsers_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sNetworkClient) Timeline(ctx context.Context, opts ...grpc.CallOption) (SNetwork_TimelineClient, error) {
	stream, err := c.cc.NewStream(ctx, &SNetwork_ServiceDesc.Streams[0], SNetwork_Timeline_FullMethodName, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[TimelineMessage, TimelineMessage]{ClientStream: stream}, nil
}

type SNetwork_TimelineClient = grpc.BidiStreamingClient[TimelineMessage, TimelineMessage]

// SNetworkServer is the server API for the SNetwork service.
type SNetworkServer interface {
	CreateUser(context.Context, *CreateUserRequest) (*CreateUserReply, error)
	Follow(context.Context, *PersonRequest) (*PersonReply, error)
	Unfollow(context.Context, *PersonRequest) (*PersonReply, error)
	ListUsers(context.Context, *ListRequest) (*ListReply, error)
	Timeline(SNetwork_TimelineServer) error
}

type SNetwork_TimelineServer = grpc.BidiStreamingServer[TimelineMessage, TimelineMessage]

// UnimplementedSNetworkServer can be embedded for forward compatibility.
type UnimplementedSNetworkServer struct{}

func (UnimplementedSNetworkServer) CreateUser(context.Context, *CreateUserRequest) (*CreateUserReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CreateUser not implemented")
}
func (UnimplementedSNetworkServer) Follow(context.Context, *PersonRequest) (*PersonReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Follow not implemented")
}
func (UnimplementedSNetworkServer) Unfollow(context.Context, *PersonRequest) (*PersonReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Unfollow not implemented")
}
func (UnimplementedSNetworkServer) ListUsers(context.Context, *ListRequest) (*ListReply, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListUsers not implemented")
}
func (UnimplementedSNetworkServer) Timeline(SNetwork_TimelineServer) error {
	return status.Errorf(codes.Unimplemented, "method Timeline not implemented")
}

func RegisterSNetworkServer(s grpc.ServiceRegistrar, srv SNetworkServer) {
	s.RegisterService(&SNetwork_ServiceDesc, srv)
}

func _SNetwork_CreateUser_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CreateUserRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SNetworkServer).CreateUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SNetwork_CreateUser_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SNetworkServer).CreateUser(ctx, req.(*CreateUserRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SNetwork_Follow_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PersonRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SNetworkServer).Follow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SNetwork_Follow_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SNetworkServer).Follow(ctx, req.(*PersonRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SNetwork_Unfollow_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PersonRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SNetworkServer).Unfollow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SNetwork_Unfollow_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SNetworkServer).Unfollow(ctx, req.(*PersonRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SNetwork_ListUsers_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SNetworkServer).ListUsers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SNetwork_ListUsers_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SNetworkServer).ListUsers(ctx, req.(*ListRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SNetwork_Timeline_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(SNetworkServer).Timeline(&grpc.GenericServerStream[TimelineMessage, TimelineMessage]{ServerStream: stream})
}

// SNetwork_ServiceDesc is the grpc.ServiceDesc for the SNetwork service.
var SNetwork_ServiceDesc = grpc.ServiceDesc{
	ServiceName: SNetwork_ServiceName,
	HandlerType: (*SNetworkServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateUser", Handler: _SNetwork_CreateUser_Handler},
		{MethodName: "Follow", Handler: _SNetwork_Follow_Handler},
		{MethodName: "Unfollow", Handler: _SNetwork_Unfollow_Handler},
		{MethodName: "ListUsers", Handler: _SNetwork_ListUsers_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Timeline",
			Handler:       _SNetwork_Timeline_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "tsn/v1/tsn.proto",
}
