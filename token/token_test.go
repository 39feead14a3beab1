package token

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/kbukum/keycloak-connect/errors"
)

func encodeSegment(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func compactToken(t *testing.T, header, claims any) string {
	t.Helper()
	sig := base64.RawURLEncoding.EncodeToString([]byte("signature"))
	return encodeSegment(t, header) + "." + encodeSegment(t, claims) + "." + sig
}

func testClaims() map[string]any {
	return map[string]any{
		"iss": "https://id.example.com/auth/realms/demo",
		"sub": "bf2056df-3803-4e49-b3ba-ff2b07d86995",
		"iat": 1700000000,
		"exp": 1700000300,
		"realm_access": map[string]any{
			"roles": []string{"admin", "user"},
		},
		"resource_access": map[string]any{
			"app1": map[string]any{"roles": []string{"editor", "viewer"}},
			"app2": map[string]any{"roles": []string{"auditor"}},
		},
	}
}

func TestParse(t *testing.T) {
	compact := compactToken(t, map[string]any{"alg": "RS256", "typ": "JWT"}, testClaims())

	tok, err := Parse(compact, "app1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Raw() != compact {
		t.Error("Raw() should return the original compact string")
	}
	if tok.Header().Alg != "RS256" {
		t.Errorf("got alg %q", tok.Header().Alg)
	}
	if tok.Claims().Subject != "bf2056df-3803-4e49-b3ba-ff2b07d86995" {
		t.Errorf("got sub %q", tok.Claims().Subject)
	}
	if tok.Claims().IssuedAt != 1700000000 {
		t.Errorf("got iat %d", tok.Claims().IssuedAt)
	}
	if tok.ClientID() != "app1" {
		t.Errorf("got bound client %q", tok.ClientID())
	}
	if string(tok.Signature()) != "signature" {
		t.Errorf("got signature %q", tok.Signature())
	}

	// signed bytes are exactly header segment + "." + claims segment
	wantSigned := compact[:len(compact)-len(".c2lnbmF0dXJl")]
	if tok.SignedString() != wantSigned {
		t.Errorf("SignedString() = %q, want %q", tok.SignedString(), wantSigned)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	valid := compactToken(t, map[string]any{"alg": "RS256"}, testClaims())

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"empty segment", "." + valid},
		{"header not base64", "!!!." + encodeSegment(t, testClaims()) + ".c2ln"},
		{"header not an object", base64.RawURLEncoding.EncodeToString([]byte(`"str"`)) + "." + encodeSegment(t, testClaims()) + ".c2ln"},
		{"claims null", encodeSegment(t, map[string]any{"alg": "RS256"}) + "." + base64.RawURLEncoding.EncodeToString([]byte(`null`)) + ".c2ln"},
		{"claims not json", encodeSegment(t, map[string]any{"alg": "RS256"}) + "." + base64.RawURLEncoding.EncodeToString([]byte(`{broken`)) + ".c2ln"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "")
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !errors.IsCode(err, errors.ErrCodeParseFailed) {
				t.Errorf("expected PARSE_FAILED, got %v", err)
			}
		})
	}
}

func TestParseAcceptsPaddedSegments(t *testing.T) {
	// base64url with padding: some issuers pad segments
	header := base64.URLEncoding.EncodeToString([]byte(`{"alg":"RS256"}`))
	claims := base64.URLEncoding.EncodeToString([]byte(`{"iat":1}`))
	if _, err := Parse(header+"."+claims+".c2ln", ""); err != nil {
		t.Fatalf("padded segments should parse: %v", err)
	}
}

func TestIsExpiredAt(t *testing.T) {
	claims := testClaims()
	compact := compactToken(t, map[string]any{"alg": "RS256"}, claims)
	tok, err := Parse(compact, "")
	if err != nil {
		t.Fatal(err)
	}

	exp := time.Unix(1700000300, 0)
	tests := []struct {
		name string
		now  time.Time
		skew time.Duration
		want bool
	}{
		{"well before exp", exp.Add(-time.Hour), 0, false},
		{"one second before", exp.Add(-time.Second), 0, false},
		{"exactly at exp", exp, 0, true},
		{"after exp", exp.Add(time.Minute), 0, true},
		{"skew moves the boundary earlier", exp.Add(-5 * time.Second), 10 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.IsExpiredAt(tt.now, tt.skew); got != tt.want {
				t.Errorf("IsExpiredAt(%v, %v) = %v, want %v", tt.now, tt.skew, got, tt.want)
			}
		})
	}
}

func TestIsExpiredMonotonic(t *testing.T) {
	compact := compactToken(t, map[string]any{"alg": "RS256"}, testClaims())
	tok, _ := Parse(compact, "")

	start := time.Unix(1700000000, 0)
	expired := false
	for i := 0; i < 600; i += 30 {
		now := start.Add(time.Duration(i) * time.Second)
		got := tok.IsExpiredAt(now, 0)
		if expired && !got {
			t.Fatalf("expiry went back to false at +%ds", i)
		}
		expired = got
	}
	if !expired {
		t.Fatal("token should have expired during the sweep")
	}
}

func TestExpAbsentMeansNonExpiring(t *testing.T) {
	claims := testClaims()
	delete(claims, "exp")
	compact := compactToken(t, map[string]any{"alg": "RS256"}, claims)
	tok, _ := Parse(compact, "")

	farFuture := time.Unix(1700000300, 0).Add(100 * 365 * 24 * time.Hour)
	if tok.IsExpiredAt(farFuture, 0) {
		t.Error("a token without exp must be treated as non-expiring")
	}
}

func TestHasRole(t *testing.T) {
	compact := compactToken(t, map[string]any{"alg": "RS256"}, testClaims())
	tok, _ := Parse(compact, "app1")

	tests := []struct {
		spec          string
		defaultClient string
		want          bool
	}{
		{"realm:admin", "app1", true},
		{"realm:editor", "app1", false},
		{"app1:editor", "app1", true},
		{"app1:auditor", "app1", false},
		{"app2:auditor", "app1", true},
		{"viewer", "app1", true},
		{"viewer", "app2", false},
		{"auditor", "app2", true},
		{"missing:role", "app1", false},
		{"ghost", "nonexistent", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.defaultClient, func(t *testing.T) {
			if got := tok.HasRole(tt.spec, tt.defaultClient); got != tt.want {
				t.Errorf("HasRole(%q, %q) = %v, want %v", tt.spec, tt.defaultClient, got, tt.want)
			}
		})
	}
}

func TestHasRoleFallsBackToBoundClient(t *testing.T) {
	compact := compactToken(t, map[string]any{"alg": "RS256"}, testClaims())
	tok, _ := Parse(compact, "app2")

	if !tok.HasRole("auditor", "") {
		t.Error("unscoped spec should resolve against the bound client when no default is given")
	}
}

func TestHasRoleAbsentMappings(t *testing.T) {
	claims := map[string]any{"iat": 1700000000}
	compact := compactToken(t, map[string]any{"alg": "RS256"}, claims)
	tok, _ := Parse(compact, "app1")

	// no realm_access, no resource_access: every check is simply false
	if tok.HasRole("realm:admin", "app1") || tok.HasRole("app1:editor", "app1") || tok.HasRole("viewer", "app1") {
		t.Error("absent access mappings must behave as empty sets")
	}
}
