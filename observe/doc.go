// Package observe provides observability primitives for RPC handling.
//
// It is a pure instrumentation library: structured logging, tracing and
// metrics with exporter setup. The gRPC server wires the Middleware into its
// interceptor chain and the cache decorator reports lookups through Metrics.
package observe
