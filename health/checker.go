package health

import (
	"context"
	"fmt"
	"time"
)

// Status is the health of a component.
type Status int

const (
	StatusHealthy Status = iota
	StatusDegraded
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of one check.
type Result struct {
	Status   Status
	Message  string
	Details  map[string]any
	Duration time.Duration
	Error    error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err}
}

// WithDetails returns r with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker reports the health of one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string                     { return f.name }
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// DefaultSlowThreshold is the ping latency above which a backend is degraded.
const DefaultSlowThreshold = 250 * time.Millisecond

// PingChecker checks a backend by pinging it.
type PingChecker struct {
	name string
	ping func(context.Context) error
	slow time.Duration
	now  func() time.Time
}

// NewPingChecker creates a checker named name. A non-positive slow uses
// DefaultSlowThreshold.
func NewPingChecker(name string, ping func(context.Context) error, slow time.Duration) *PingChecker {
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return &PingChecker{name: name, ping: ping, slow: slow, now: time.Now}
}

func (p *PingChecker) Name() string { return p.name }

// Check pings the backend. An error is unhealthy; a slow reply is degraded.
func (p *PingChecker) Check(ctx context.Context) Result {
	start := p.now()
	err := p.ping(ctx)
	latency := p.now().Sub(start)
	details := map[string]any{"latency_ms": latency.Milliseconds()}

	switch {
	case err != nil:
		return Unhealthy(p.name+" unreachable", err).WithDetails(details)
	case latency > p.slow:
		return Degraded(fmt.Sprintf("%s slow: %s", p.name, latency)).WithDetails(details)
	default:
		return Healthy(p.name + " reachable").WithDetails(details)
	}
}

var (
	_ Checker = (*CheckerFunc)(nil)
	_ Checker = (*PingChecker)(nil)
)
