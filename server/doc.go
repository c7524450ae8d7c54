// Package server exposes the echo service over gRPC.
//
// Messages travel as JSON through a codec registered under the "json"
// content subtype, so the service needs no generated protobuf stubs. Cached
// methods return the cache annotation as response headers:
//
//	x-cache: HIT
//	cache-control: max-age=60, must-revalidate
//
// Handler errors are converted to statuses by apierr.GRPCError; the status
// carries a structpb detail with the {code, message, errors} payload.
//
// NewOpsHandler serves /metrics and the health probes on a separate port.
package server
