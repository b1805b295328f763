package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is the client for auth.v1.AuthService. Failed calls return the
// server's status, whose ErrorInfo detail carries the machine code.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection, e.g. from grpc.NewClient
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegister, map[string]any{"name": name, "email": email, "password": password})
}

func (c *Client) Login(ctx context.Context, email, password string) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogin, map[string]any{"email": email, "password": password})
}

func (c *Client) VerifyToken(ctx context.Context, token string) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodVerifyToken, map[string]any{"token": token})
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
