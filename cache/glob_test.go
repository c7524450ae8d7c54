package cache

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"unary_echo:*", `unary_echo:{"message":"hello"}`, true},
		{"unary_echo:*", `get_echo:{"id":"1"}`, false},
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-c]llo", "hbllo", true},
		{"h[a-c]llo", "hdllo", false},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{"abc", "abcd", false},
		{"[unterminated", "[unterminated", true},
	}
	for _, tt := range tests {
		if got := Match(tt.pattern, tt.key); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.want)
		}
	}
}

func TestQuoteGlob(t *testing.T) {
	raw := `a*b?c[d]e\f`
	if !Match(QuoteGlob(raw), raw) {
		t.Errorf("quoted pattern should match its own input")
	}
	if Match(QuoteGlob(raw), "aXb?c[d]e\\f") {
		t.Errorf("quoted pattern should not treat * as a wildcard")
	}
}

func TestOwnerListPattern(t *testing.T) {
	pattern := OwnerListPattern("organizerKey", "org-1")
	if want := `list_*:{"filters":{*"organizerKey":"org-1"*}*`; pattern != want {
		t.Fatalf("OwnerListPattern() = %s, want %s", pattern, want)
	}

	tests := []struct {
		key  string
		want bool
	}{
		{`list_echoes:{"filters":{"organizerKey":"org-1"},"limit":50}`, true},
		{`list_echoes:{"filters":{"archived":false,"organizerKey":"org-1"},"limit":10}`, true},
		{`list_events:{"filters":{"organizerKey":"org-1"}}`, true},
		{`list_echoes:{"filters":{"organizerKey":"org-10"},"limit":50}`, false},
		{`list_echoes:{"filters":{"organizerKey":"org-2"},"limit":50}`, false},
		{`get_echo:{"id":"org-1"}`, false},
		{`unary_echo:{"message":"org-1"}`, false},
	}
	for _, tt := range tests {
		if got := Match(pattern, tt.key); got != tt.want {
			t.Errorf("Match(%s) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestOwnerListPattern_EscapesValue(t *testing.T) {
	pattern := OwnerListPattern("organizerKey", "a*")
	if Match(pattern, `list_echoes:{"filters":{"organizerKey":"abc"}}`) {
		t.Error("wildcard in value must be literal")
	}
	if !Match(pattern, `list_echoes:{"filters":{"organizerKey":"a*"}}`) {
		t.Error("literal value should match")
	}
}

func TestMethodPattern(t *testing.T) {
	p := MethodPattern("unary_echo")
	if !Match(p, `unary_echo:{"message":"x"}`) || Match(p, `unary_echo_v2:{}`) {
		t.Errorf("MethodPattern(%q) selects the wrong keys", p)
	}
}
