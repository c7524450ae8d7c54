package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jonwraymond/rpccache/cache"
	"github.com/jonwraymond/rpccache/echo"
	"github.com/jonwraymond/rpccache/observe"
)

// Handler implements EchoServiceServer on top of echo.Service.
type Handler struct {
	svc    *echo.Service
	logger observe.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *echo.Service, logger observe.Logger) *Handler {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) UnaryEcho(ctx context.Context, req *echo.UnaryEchoRequest) (*echo.UnaryEchoResponse, error) {
	resp, err := h.svc.UnaryEcho(ctx, *req)
	if err != nil {
		return nil, err
	}
	h.annotate(ctx, resp.Cache)
	return &resp.Value, nil
}

func (h *Handler) RecordEcho(ctx context.Context, req *echo.RecordEchoRequest) (*echo.RecordEchoResponse, error) {
	resp, err := h.svc.RecordEcho(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *Handler) ListEchoes(ctx context.Context, req *echo.ListEchoesRequest) (*echo.ListEchoesResponse, error) {
	resp, err := h.svc.ListEchoes(ctx, *req)
	if err != nil {
		return nil, err
	}
	h.annotate(ctx, resp.Cache)
	return &resp.Value, nil
}

func (h *Handler) GetEcho(ctx context.Context, req *echo.GetEchoRequest) (*echo.GetEchoResponse, error) {
	resp, err := h.svc.GetEcho(ctx, *req)
	if err != nil {
		return nil, err
	}
	h.annotate(ctx, resp.Cache)
	return &resp.Value, nil
}

// annotate sends the cache annotation as response headers.
func (h *Handler) annotate(ctx context.Context, a cache.Annotation) {
	if err := grpc.SetHeader(ctx, metadata.New(a.Headers())); err != nil {
		h.logger.Debug(ctx, "cache headers not sent", observe.F("error", err))
	}
}

var _ EchoServiceServer = (*Handler)(nil)
