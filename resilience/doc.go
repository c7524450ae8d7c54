// Package resilience guards calls to the cache and storage backends.
//
// CircuitBreaker fails fast while a backend keeps erroring (cache.BreakerStore
// uses it around Redis). Retry and Timeout bound the startup pings that gate
// serving. Executor composes the three:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.RetryConfig{MaxAttempts: 5}),
//	    resilience.WithTimeout(2*time.Second),
//	)
//	err := exec.Execute(ctx, store.Ping)
//
// The cache decorator itself never retries.
package resilience
