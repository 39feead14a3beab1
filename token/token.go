package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/kbukum/keycloak-connect/errors"
)

// Header is the decoded JOSE header of a compact token.
type Header struct {
	// Alg is the signing algorithm (e.g. "RS256").
	Alg string `json:"alg"`
	// Kid is the key ID, if the server includes one.
	Kid string `json:"kid"`
	// Typ is the token type, typically "JWT".
	Typ string `json:"typ"`
}

// RoleSet holds the role names of one access mapping.
type RoleSet struct {
	Roles []string `json:"roles"`
}

// Contains reports whether the set includes the named role.
// A nil or empty set never matches.
func (r RoleSet) Contains(name string) bool {
	for _, role := range r.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// Claims are the decoded payload claims of a token. Only the claims the
// adapter acts on are typed; ExpiresAt of zero means the exp claim was absent.
type Claims struct {
	// Issuer is the "iss" claim.
	Issuer string `json:"iss"`
	// Subject is the "sub" claim (the provider's unique user ID).
	Subject string `json:"sub"`
	// IssuedAt is the "iat" claim as a Unix timestamp.
	IssuedAt int64 `json:"iat"`
	// ExpiresAt is the "exp" claim as a Unix timestamp; 0 when absent.
	ExpiresAt int64 `json:"exp"`
	// SessionState is the provider's session identifier, if present.
	SessionState string `json:"session_state"`
	// NotBefore is the "notBefore" claim carried by admin policy-push
	// tokens; 0 when absent.
	NotBefore int64 `json:"notBefore"`
	// RealmAccess holds realm-level role membership.
	RealmAccess RoleSet `json:"realm_access"`
	// ResourceAccess maps client ID to application-level role membership.
	ResourceAccess map[string]RoleSet `json:"resource_access"`
}

// Token wraps one compact signed token. Immutable once parsed.
type Token struct {
	raw       string
	signed    []byte
	signature []byte
	header    Header
	claims    Claims
	clientID  string
}

// Parse splits and decodes a compact token string. The input must consist of
// exactly three non-empty base64url segments, and both the header and claims
// segments must decode to JSON objects.
//
// boundClientID binds the token to a client for unscoped role lookups; it is
// set for access tokens and left empty for refresh and ID tokens.
func Parse(compact, boundClientID string) (*Token, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, errors.ParseFailed("compact token", nil).WithDetail("segments", len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return nil, errors.ParseFailed("compact token", nil).WithDetail("reason", "empty segment")
		}
	}

	headerBytes, err := decodeSegment(parts[0])
	if err != nil {
		return nil, errors.ParseFailed("token header", err)
	}
	claimBytes, err := decodeSegment(parts[1])
	if err != nil {
		return nil, errors.ParseFailed("token claims", err)
	}
	signature, err := decodeSegment(parts[2])
	if err != nil {
		return nil, errors.ParseFailed("token signature", err)
	}

	var header Header
	if err := unmarshalObject(headerBytes, &header); err != nil {
		return nil, errors.ParseFailed("token header", err)
	}
	var claims Claims
	if err := unmarshalObject(claimBytes, &claims); err != nil {
		return nil, errors.ParseFailed("token claims", err)
	}

	return &Token{
		raw:       compact,
		signed:    []byte(parts[0] + "." + parts[1]),
		signature: signature,
		header:    header,
		claims:    claims,
		clientID:  boundClientID,
	}, nil
}

// Raw returns the original compact string.
func (t *Token) Raw() string { return t.raw }

// SignedString returns exactly the bytes that were signed
// (header segment + "." + claims segment) as a string.
func (t *Token) SignedString() string { return string(t.signed) }

// Signature returns the decoded signature bytes.
func (t *Token) Signature() []byte { return t.signature }

// Header returns the decoded JOSE header.
func (t *Token) Header() Header { return t.header }

// Claims returns the decoded claims.
func (t *Token) Claims() Claims { return t.claims }

// ClientID returns the client this token is bound to for unscoped role
// lookups; empty for refresh and ID tokens.
func (t *Token) ClientID() string { return t.clientID }

// IsExpiredAt reports whether the token is expired at the given instant,
// allowing for clock skew. A token without an exp claim is treated as
// non-expiring; deployments that disallow exp-less tokens must enforce that
// at issuance.
func (t *Token) IsExpiredAt(now time.Time, skew time.Duration) bool {
	if t.claims.ExpiresAt == 0 {
		return false
	}
	exp := time.Unix(t.claims.ExpiresAt, 0).Add(-skew)
	return !now.Before(exp)
}

// IsExpired reports whether the token is expired now, with no skew allowance.
func (t *Token) IsExpired() bool {
	return t.IsExpiredAt(time.Now(), 0)
}

// HasRole resolves spec according to the role-specification grammar and
// checks membership. defaultClient resolves unscoped specs; when empty, the
// token's own bound client is used. Absent access mappings are treated as
// empty sets, never an error.
func (t *Token) HasRole(spec, defaultClient string) bool {
	return t.HasRoleSpec(ParseRoleSpec(spec), defaultClient)
}

// HasRoleSpec checks membership for an already-parsed role specification.
func (t *Token) HasRoleSpec(rs RoleSpec, defaultClient string) bool {
	switch rs.Kind {
	case RealmRole:
		return t.claims.RealmAccess.Contains(rs.Name)
	case ScopedRole:
		return t.claims.ResourceAccess[rs.Client].Contains(rs.Name)
	case ImplicitRole:
		client := defaultClient
		if client == "" {
			client = t.clientID
		}
		return t.claims.ResourceAccess[client].Contains(rs.Name)
	default:
		return false
	}
}

// decodeSegment decodes one base64url segment, accepting both padded and
// unpadded encodings.
func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
}

// unmarshalObject decodes data into v, requiring a JSON object at the top
// level (json.Unmarshal alone accepts "null" silently).
func unmarshalObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New(errors.ErrCodeParseFailed, "expected a JSON object", 0)
	}
	return json.Unmarshal(trimmed, v)
}
