package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"
)

// Keyer generates deterministic cache keys from an RPC method and request.
//
// Contract:
// - Determinism: logically equal requests produce the same key, regardless of
// map iteration order or pointer identity.
// - Concurrency: implementations must be safe for concurrent use.
// - Purity: no side effects.
type Keyer interface {
	// Key generates a cache key for a request to method.
	Key(method string, request any) (string, error)
}

// DefaultKeyer generates keys of the form <method>:<canonical JSON>.
//
// The canonical JSON has object members sorted by name at every depth and no
// insignificant whitespace. Numbers keep their literal form.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
func (k *DefaultKeyer) Key(method string, request any) (string, error) {
	if strings.TrimSpace(method) == "" {
		return "", ErrInvalidMethod
	}
	canonical, err := Canonicalize(request)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}
	return method + ":" + string(canonical), nil
}

// Canonicalize returns the canonical JSON form of v.
//
// Strings in v must be valid UTF-8. encoding/json would coerce invalid bytes
// to U+FFFD, giving distinct requests the same key, so they are rejected with
// ErrInvalidUTF8.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := checkUTF8(reflect.ValueOf(v)); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(raw))
	if err := writeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkUTF8 walks the JSON-visible strings of v: exported struct fields not
// tagged "-", map keys and values, and slice elements. Byte slices encode as
// base64 and are skipped.
func checkUTF8(v reflect.Value) error {
	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w: %q", ErrInvalidUTF8, v.String())
		}
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			return checkUTF8(v.Elem())
		}
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return nil
		}
		for i := range v.Len() {
			if err := checkUTF8(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := checkUTF8(iter.Key()); err != nil {
				return err
			}
			if err := checkUTF8(iter.Value()); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if (!f.IsExported() && !f.Anonymous) || f.Tag.Get("json") == "-" {
				continue
			}
			if err := checkUTF8(v.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeCanonical appends the canonical encoding of a decoded JSON value.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeScalar(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		buf.WriteString(val.String())
	default:
		return writeScalar(buf, val)
	}
	return nil
}

// writeScalar encodes strings, booleans and null.
func writeScalar(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

var _ Keyer = (*DefaultKeyer)(nil)
