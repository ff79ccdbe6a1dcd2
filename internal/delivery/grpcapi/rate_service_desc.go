package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	RateServiceName       = "vaultx.rates.v1.RateService"
	getRatesFullMethod    = "/" + RateServiceName + "/GetRates"
	convertFullMethod     = "/" + RateServiceName + "/Convert"
	rateServiceSourceFile = "vaultx/rates/v1/rates.proto"
)

// RateServiceServer is served over well-known protobuf types so that no
// generated code is needed on either side.
type RateServiceServer interface {
	GetRates(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Convert(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterRateServiceServer(s grpc.ServiceRegistrar, srv RateServiceServer) {
	s.RegisterService(&RateServiceDesc, srv)
}

var RateServiceDesc = grpc.ServiceDesc{
	ServiceName: RateServiceName,
	HandlerType: (*RateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRates", Handler: getRatesHandler},
		{MethodName: "Convert", Handler: convertHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: rateServiceSourceFile,
}

func getRatesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RateServiceServer).GetRates(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRatesFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RateServiceServer).GetRates(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func convertHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RateServiceServer).Convert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: convertFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RateServiceServer).Convert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RateServiceClient is the client side of RateServiceDesc.
type RateServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRateServiceClient(cc grpc.ClientConnInterface) *RateServiceClient {
	return &RateServiceClient{cc: cc}
}

func (c *RateServiceClient) GetRates(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getRatesFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RateServiceClient) Convert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, convertFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
