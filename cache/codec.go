package cache

import "encoding/json"

// Codec serializes responses of type T for storage.
//
// Contract:
// - Decode(Encode(v)) must be observably equal to v for the transport.
// - Concurrency: implementations must be safe for concurrent use.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSONCodec encodes values with encoding/json.
//
// Invalid UTF-8 in string fields is stored as U+FFFD, so a HIT returns the
// coerced string where the MISS returned the raw bytes. The gRPC JSON wire
// applies the same coercion, so clients observe identical responses either
// way. Use a custom Codec for payloads that must carry arbitrary bytes in
// strings.
type JSONCodec[T any] struct{}

// Encode marshals v to JSON.
func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Decode unmarshals data into a new T.
func (JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
