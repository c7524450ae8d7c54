// Package health reports backend health for the ops HTTP port.
//
// Checkers report a Status (healthy, degraded, unhealthy). PingChecker wraps a
// ping function such as cache.RedisStore.Ping or storage.Ping and degrades when
// the round trip is slow. Aggregator runs every registered checker in parallel
// under a deadline, and Mount exposes the probes on a chi router:
//
//	agg := health.NewAggregator(5 * time.Second)
//	agg.Register(health.NewPingChecker("redis", store.Ping, 0))
//	health.Mount(router, agg)
package health
