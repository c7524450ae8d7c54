package server

import (
	"context"

	"google.golang.org/grpc"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/echo"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "echo.v1.EchoService"

// Full method names.
const (
	UnaryEchoFullMethod  = "/" + ServiceName + "/UnaryEcho"
	RecordEchoFullMethod = "/" + ServiceName + "/RecordEcho"
	ListEchoesFullMethod = "/" + ServiceName + "/ListEchoes"
	GetEchoFullMethod    = "/" + ServiceName + "/GetEcho"
)

// cacheMethods maps full method names to their cache namespace.
var cacheMethods = map[string]string{
	UnaryEchoFullMethod:  echo.MethodUnaryEcho,
	ListEchoesFullMethod: echo.MethodListEchoes,
	GetEchoFullMethod:    echo.MethodGetEcho,
}

// EchoServiceServer is the server API for the echo service.
type EchoServiceServer interface {
	UnaryEcho(context.Context, *echo.UnaryEchoRequest) (*echo.UnaryEchoResponse, error)
	RecordEcho(context.Context, *echo.RecordEchoRequest) (*echo.RecordEchoResponse, error)
	ListEchoes(context.Context, *echo.ListEchoesRequest) (*echo.ListEchoesResponse, error)
	GetEcho(context.Context, *echo.GetEchoRequest) (*echo.GetEchoResponse, error)
}

// EchoServiceDesc describes the echo service for grpc.Server.RegisterService.
var EchoServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EchoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UnaryEcho",
			Handler:    unaryHandler(UnaryEchoFullMethod, EchoServiceServer.UnaryEcho),
		},
		{
			MethodName: "RecordEcho",
			Handler:    unaryHandler(RecordEchoFullMethod, EchoServiceServer.RecordEcho),
		},
		{
			MethodName: "ListEchoes",
			Handler:    unaryHandler(ListEchoesFullMethod, EchoServiceServer.ListEchoes),
		},
		{
			MethodName: "GetEcho",
			Handler:    unaryHandler(GetEchoFullMethod, EchoServiceServer.GetEcho),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "echo/v1/echo.json",
}

// RegisterEchoServiceServer registers srv on s.
func RegisterEchoServiceServer(s grpc.ServiceRegistrar, srv EchoServiceServer) {
	s.RegisterService(&EchoServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodHandler. A body that does
// not decode into Req is an invalid request.
func unaryHandler[Req, Resp any](
	fullMethod string,
	call func(EchoServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, apierr.InvalidRequest("malformed request body").GRPCStatus().Err()
		}
		if interceptor == nil {
			return call(srv.(EchoServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EchoServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
