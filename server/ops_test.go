package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/rpccache/health"
)

func TestNewOpsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "echo_test_hits_total", Help: "test"})
	reg.MustRegister(hits)
	hits.Inc()

	agg := health.NewAggregator(0)
	agg.Register(
		health.NewPingChecker("redis", func(context.Context) error { return nil }, 0),
		health.NewPingChecker("database", func(context.Context) error { return errors.New("refused") }, 0),
	)
	srv := httptest.NewServer(NewOpsHandler(agg, reg))
	defer srv.Close()

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/metrics", wantCode: http.StatusOK, wantBody: "echo_test_hits_total 1"},
		{path: "/healthz", wantCode: http.StatusOK, wantBody: "OK"},
		{path: "/readyz", wantCode: http.StatusServiceUnavailable, wantBody: "UNHEALTHY"},
		{path: "/health/redis", wantCode: http.StatusOK, wantBody: `"status":"healthy"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %q, want substring %q", body, tt.wantBody)
			}
		})
	}
}
