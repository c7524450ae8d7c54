package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestResolver(t *testing.T, env map[string]string) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()
	envp := &EnvProvider{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
	return NewResolver(true, envp, NewFileProvider(dir)), dir
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{in: "secretref:env:PW", provider: "env", ref: "PW", ok: true},
		{in: "secretref:file:/run/secrets/db", provider: "file", ref: "/run/secrets/db", ok: true},
		{in: "secretref:env:", ok: false},
		{in: "secretref::x", ok: false},
		{in: "plain", ok: false},
	}
	for _, tt := range tests {
		p, r, ok := ParseRef(tt.in)
		if ok != tt.ok || p != tt.provider || r != tt.ref {
			t.Errorf("ParseRef(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.in, p, r, ok, tt.provider, tt.ref, tt.ok)
		}
	}
}

func TestResolver_Resolve(t *testing.T) {
	r, dir := newTestResolver(t, map[string]string{"PW": "hunter2", "EMPTY": ""})
	if err := os.WriteFile(filepath.Join(dir, "db"), []byte("file::memory:\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain", in: "localhost:6379", want: "localhost:6379"},
		{name: "env", in: "secretref:env:PW", want: "hunter2"},
		{name: "file", in: "secretref:file:db", want: "file::memory:"},
		{name: "inline", in: "rediss://:secretref:env:PW@cache:6380", want: "rediss://:hunter2@cache:6380"},
		{name: "missing env", in: "secretref:env:NOPE", wantErr: ErrNotFound},
		{name: "missing file", in: "secretref:file:nope", wantErr: ErrNotFound},
		{name: "empty strict", in: "secretref:env:EMPTY", wantErr: ErrEmptyValue},
		{name: "unknown provider", in: "secretref:vault:x", wantErr: ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileProvider_ConfinedToRoot(t *testing.T) {
	r, dir := newTestResolver(t, nil)
	if err := os.WriteFile(filepath.Join(dir, "pw"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := r.Resolve(context.Background(), "secretref:file:../../pw")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "x" {
		t.Errorf("Resolve() = %q, want the file under root", got)
	}
}

func TestResolver_ResolveAll(t *testing.T) {
	r, _ := newTestResolver(t, map[string]string{"PW": "hunter2"})
	password := "secretref:env:PW"
	host := "localhost"

	if err := r.ResolveAll(context.Background(), map[string]*string{"password": &password, "host": &host, "nil": nil}); err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if password != "hunter2" || host != "localhost" {
		t.Errorf("got password=%q host=%q", password, host)
	}

	bad := "secretref:env:NOPE"
	err := r.ResolveAll(context.Background(), map[string]*string{"database_url": &bad})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ResolveAll() error = %v, want ErrNotFound", err)
	}
}
