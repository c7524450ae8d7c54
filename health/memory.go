package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryChecker degrades when heap usage nears a limit.
type MemoryChecker struct {
	limit    uint64
	warn     float64
	critical float64
	read     func(*runtime.MemStats)
}

// NewMemoryChecker creates a memory checker. limit is the heap budget in
// bytes; zero compares against memory obtained from the OS. warn and critical
// are fractions of limit and default to 0.8 and 0.95.
func NewMemoryChecker(limit uint64, warn, critical float64) *MemoryChecker {
	if warn <= 0 || warn >= 1 {
		warn = 0.8
	}
	if critical <= warn || critical >= 1 {
		critical = 0.95
	}
	return &MemoryChecker{limit: limit, warn: warn, critical: critical, read: runtime.ReadMemStats}
}

func (m *MemoryChecker) Name() string { return "memory" }

func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	var stats runtime.MemStats
	m.read(&stats)

	limit := m.limit
	if limit == 0 {
		limit = stats.Sys
	}
	if limit == 0 {
		return Healthy("memory stats unavailable")
	}

	ratio := float64(stats.HeapAlloc) / float64(limit)
	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"limit_bytes":      limit,
		"usage_percent":    ratio * 100,
		"goroutines":       runtime.NumGoroutine(),
	}

	switch {
	case ratio >= m.critical:
		return Unhealthy(fmt.Sprintf("memory usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= m.warn:
		return Degraded(fmt.Sprintf("memory usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("memory usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}
