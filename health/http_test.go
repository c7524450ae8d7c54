package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(checkers ...Checker) http.Handler {
	agg := NewAggregator(0)
	agg.Register(checkers...)
	r := chi.NewRouter()
	Mount(r, agg)
	return r
}

func TestMount(t *testing.T) {
	healthy := newTestRouter(fixed("redis", Healthy("ok")), fixed("database", Degraded("slow")))
	failing := newTestRouter(fixed("redis", Unhealthy("down", ErrCheckFailed)))

	tests := []struct {
		name     string
		handler  http.Handler
		path     string
		wantCode int
		wantBody string
	}{
		{name: "liveness", handler: failing, path: "/healthz", wantCode: http.StatusOK, wantBody: "OK"},
		{name: "ready degraded", handler: healthy, path: "/readyz", wantCode: http.StatusOK, wantBody: "DEGRADED"},
		{name: "ready failing", handler: failing, path: "/readyz", wantCode: http.StatusServiceUnavailable, wantBody: "UNHEALTHY"},
		{name: "detailed", handler: healthy, path: "/health", wantCode: http.StatusOK, wantBody: `"status":"degraded"`},
		{name: "single", handler: failing, path: "/health/redis", wantCode: http.StatusServiceUnavailable, wantBody: `"error":"health: check failed"`},
		{name: "single unknown", handler: healthy, path: "/health/nope", wantCode: http.StatusNotFound, wantBody: "checker not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want substring %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler_Checks(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(fixed("redis", Healthy("ok"))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var report Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := report.Checks["redis"].Status; got != "healthy" {
		t.Errorf("redis status = %q, want healthy", got)
	}
}
