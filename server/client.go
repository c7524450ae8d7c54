package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jonwraymond/rpccache/cache"
	"github.com/jonwraymond/rpccache/echo"
)

// Client is a typed echo service client.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to target. JSON is the default content subtype.
func NewClient(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Conn returns the underlying connection.
func (c *Client) Conn() *grpc.ClientConn { return c.conn }

// Close closes the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) UnaryEcho(ctx context.Context, req echo.UnaryEchoRequest, opts ...grpc.CallOption) (*echo.UnaryEchoResponse, error) {
	return invoke[echo.UnaryEchoResponse](ctx, c.conn, UnaryEchoFullMethod, &req, opts)
}

func (c *Client) RecordEcho(ctx context.Context, req echo.RecordEchoRequest, opts ...grpc.CallOption) (*echo.RecordEchoResponse, error) {
	return invoke[echo.RecordEchoResponse](ctx, c.conn, RecordEchoFullMethod, &req, opts)
}

func (c *Client) ListEchoes(ctx context.Context, req echo.ListEchoesRequest, opts ...grpc.CallOption) (*echo.ListEchoesResponse, error) {
	return invoke[echo.ListEchoesResponse](ctx, c.conn, ListEchoesFullMethod, &req, opts)
}

func (c *Client) GetEcho(ctx context.Context, req echo.GetEchoRequest, opts ...grpc.CallOption) (*echo.GetEchoResponse, error) {
	return invoke[echo.GetEchoResponse](ctx, c.conn, GetEchoFullMethod, &req, opts)
}

func invoke[Resp any](ctx context.Context, conn *grpc.ClientConn, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CacheHeaders extracts the cache status and cache-control headers.
func CacheHeaders(md metadata.MD) (cache.Status, string) {
	var status, control string
	if v := md.Get(cache.HeaderCacheStatus); len(v) > 0 {
		status = v[0]
	}
	if v := md.Get(cache.HeaderCacheControl); len(v) > 0 {
		control = v[0]
	}
	return cache.Status(status), control
}
