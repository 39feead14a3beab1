package config

import (
	"strings"
	"testing"

	"github.com/kbukum/keycloak-connect/errors"
)

const rawKey = "MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA0vXhLQ6TrWBbk5M8zcwa" +
	"mN5GdPa3W5n6kURqJqFXPqkr0bPxQxEEdJ7TOYhQZLRK7PGrRrk9i7bQn5MTWXlj" +
	"H3v4dQKBpQ9c3nE4rV2ZLxW1mdmYp5v5YbqOGKba0kCq1HmUsqLCNp2mM9hQfWkR"

func validParams() Params {
	return Params{
		Realm:         "demo",
		ClientID:      "app1",
		Secret:        "s3cr3t",
		AuthServerURL: "https://id.example.com/auth",
		PublicKey:     rawKey,
	}
}

func TestNewDerivesURLs(t *testing.T) {
	cfg, err := New(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RealmURL() != "https://id.example.com/auth/realms/demo" {
		t.Errorf("got realm URL %q", cfg.RealmURL())
	}
	if cfg.RealmAdminURL() != "https://id.example.com/auth/admin/realms/demo" {
		t.Errorf("got realm admin URL %q", cfg.RealmAdminURL())
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	p := validParams()
	p.AuthServerURL = "https://id.example.com/auth/"
	cfg, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RealmURL() != "https://id.example.com/auth/realms/demo" {
		t.Errorf("got realm URL %q", cfg.RealmURL())
	}
}

func TestNewRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"missing realm", func(p *Params) { p.Realm = "" }},
		{"missing client", func(p *Params) { p.ClientID = "" }},
		{"missing server url", func(p *Params) { p.AuthServerURL = "" }},
		{"bad server url", func(p *Params) { p.AuthServerURL = "not-a-url" }},
		{"missing key", func(p *Params) { p.PublicKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := New(p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.ErrCodeConfigInvalid) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestEmptySecretIsValid(t *testing.T) {
	p := validParams()
	p.Secret = ""
	cfg, err := New(p)
	if err != nil {
		t.Fatalf("an empty-string secret must be accepted: %v", err)
	}
	if cfg.Secret() != "" {
		t.Errorf("got secret %q", cfg.Secret())
	}
}

func TestWrapPublicKeyLineLength(t *testing.T) {
	wrapped := WrapPublicKey(rawKey)

	if !strings.HasPrefix(wrapped, "-----BEGIN PUBLIC KEY-----\n") {
		t.Error("missing BEGIN armor")
	}
	if !strings.HasSuffix(wrapped, "-----END PUBLIC KEY-----\n") {
		t.Error("missing END armor")
	}

	lines := strings.Split(strings.TrimSpace(wrapped), "\n")
	body := lines[1 : len(lines)-1]
	for i, line := range body {
		if i < len(body)-1 && len(line) != 64 {
			t.Errorf("body line %d has length %d, want 64", i, len(line))
		}
		if len(line) > 64 {
			t.Errorf("body line %d exceeds 64 chars", i)
		}
	}

	// all body content survives the wrap
	if strings.Join(body, "") != rawKey {
		t.Error("wrapped body does not round-trip to the raw key")
	}
}

func TestWrapPublicKeyIdempotent(t *testing.T) {
	once := WrapPublicKey(rawKey)
	twice := WrapPublicKey(once)
	if once != twice {
		t.Errorf("wrapping is not idempotent:\n%q\n%q", once, twice)
	}
}

func TestWrapPublicKeyShortKey(t *testing.T) {
	wrapped := WrapPublicKey("shortkey")
	lines := strings.Split(strings.TrimSpace(wrapped), "\n")
	if len(lines) != 3 || lines[1] != "shortkey" {
		t.Errorf("unexpected wrap of short key: %q", wrapped)
	}
}
