// Package apierr is the single error model shared by the cache, storage and
// RPC handler layers.
//
// Every failure that crosses a package boundary is an *Error carrying a Kind.
// Each Kind maps to exactly one gRPC status code, and validation failures
// carry an ordered list of per-field failures that is rendered verbatim to
// clients as {field, message, type} objects.
//
// Backend-native errors (Redis, SQL drivers, gorm) never cross a boundary:
// FromCache and FromStorage classify them, log the full unwrap chain, and keep
// the original error only as an unexported cause.
//
// The wire payload attached to gRPC statuses has the shape:
//
//	{"code": "invalid-argument", "message": "...", "errors": [{"field": "...", "message": "...", "type": "..."}]}
//
// "errors" is empty unless the Kind is KindValidation.
package apierr
