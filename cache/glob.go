package cache

import (
	"encoding/json"
	"strings"
)

// Match reports whether key matches a Redis-style glob pattern.
//
// Supported syntax: * (any run of bytes), ? (one byte), [abc], [^abc], [a-z],
// and \x to match x literally. Matching is byte-wise.
func Match(pattern, key string) bool {
	px, kx := 0, 0
	starPx, starKx := -1, -1

	for kx < len(key) {
		if px < len(pattern) {
			if pattern[px] == '*' {
				starPx, starKx = px, kx
				px++
				continue
			}
			if ok, width := matchOne(pattern, px, key[kx]); ok {
				px += width
				kx++
				continue
			}
		}
		if starPx < 0 {
			return false
		}
		starKx++
		kx = starKx
		px = starPx + 1
	}

	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}

// matchOne matches the single pattern element at px against b and returns
// the element's width in the pattern.
func matchOne(pattern string, px int, b byte) (bool, int) {
	switch pattern[px] {
	case '?':
		return true, 1
	case '\\':
		if px+1 < len(pattern) {
			return pattern[px+1] == b, 2
		}
		return b == '\\', 1
	case '[':
		end := classEnd(pattern, px)
		if end < 0 {
			return b == '[', 1
		}
		return matchClass(pattern[px+1:end], b), end - px + 1
	default:
		return pattern[px] == b, 1
	}
}

func classEnd(pattern string, px int) int {
	i := px + 1
	if i < len(pattern) && pattern[i] == '^' {
		i++
	}
	for i < len(pattern) {
		switch pattern[i] {
		case '\\':
			i += 2
			continue
		case ']':
			return i
		}
		i++
	}
	return -1
}

func matchClass(body string, b byte) bool {
	negate := false
	if len(body) > 0 && body[0] == '^' {
		negate = true
		body = body[1:]
	}

	matched := false
	for i := 0; i < len(body); {
		switch {
		case body[i] == '\\' && i+1 < len(body):
			if body[i+1] == b {
				matched = true
			}
			i += 2
		case i+2 < len(body) && body[i+1] == '-':
			lo, hi := body[i], body[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if b >= lo && b <= hi {
				matched = true
			}
			i += 3
		default:
			if body[i] == b {
				matched = true
			}
			i++
		}
	}
	return matched != negate
}

// QuoteGlob escapes glob metacharacters so s matches only itself.
func QuoteGlob(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// OwnerListPattern returns the pattern selecting every cached list_* response
// whose request filters on field == value, e.g.
//
//	list_*:{"filters":{*"organizerKey":"abc"*}*
//
// The value is JSON-quoted the same way the keyer encodes it, so a value that
// is a prefix of another never matches the longer one.
func OwnerListPattern(field, value string) string {
	f, _ := json.Marshal(field)
	v, _ := json.Marshal(value)
	return `list_*:{"filters":{*` + QuoteGlob(string(f)) + `:` + QuoteGlob(string(v)) + `*}*`
}

// MethodPattern returns the pattern selecting every key cached for method.
func MethodPattern(method string) string {
	return QuoteGlob(method) + ":*"
}
