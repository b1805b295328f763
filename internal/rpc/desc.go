// Package rpc serves the auth operations over gRPC as auth.v1.AuthService.
// Requests and responses are google.protobuf.Struct messages mirroring the
// JSON bodies of the HTTP API. Server exposes the service and Client is the
// client for auth.v1.AuthService used by other Go services.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "auth.v1.AuthService"

// Full method names
const (
	MethodRegister    = "/" + ServiceName + "/Register"
	MethodLogin       = "/" + ServiceName + "/Login"
	MethodVerifyToken = "/" + ServiceName + "/VerifyToken"
)

// AuthServiceServer is the server API for auth.v1.AuthService
type AuthServiceServer interface {
	Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	VerifyToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func methodHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc describes auth.v1.AuthService, see api/auth/v1/auth.proto
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: methodHandler(MethodRegister, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: methodHandler(MethodLogin, AuthServiceServer.Login)},
		{MethodName: "VerifyToken", Handler: methodHandler(MethodVerifyToken, AuthServiceServer.VerifyToken)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth.proto",
}
