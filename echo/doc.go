// Package echo implements the echo service: a stateless UnaryEcho, and a
// small record store whose owner-scoped listings are cached and invalidated
// by glob pattern whenever a new record is written.
//
// Cached methods and their cache namespaces:
//
//	UnaryEcho   unary_echo
//	ListEchoes  list_echoes
//	GetEcho     get_echo
//
// RecordEcho is a mutation; it is never cached and invalidates every list_*
// entry filtered on the record's organizer.
package echo
