package grant

import (
	"sync"
	"time"

	"github.com/kbukum/keycloak-connect/token"
)

const (
	// DefaultTokenType is assumed when the server omits token_type.
	DefaultTokenType = "bearer"
	// DefaultExpiresIn is assumed when the server omits expires_in.
	DefaultExpiresIn = 300 * time.Second
)

// Grant holds the token set issued to a user for a client. Any of the three
// token slots may be nil; after validation each slot is either a token that
// passed every check or nil, never a known-invalid token.
type Grant struct {
	AccessToken  *token.Token
	RefreshToken *token.Token
	IDToken      *token.Token

	// TokenType is the scheme reported by the server, normally "bearer".
	TokenType string
	// ExpiresIn is the access token lifetime reported by the server.
	ExpiresIn time.Duration

	raw []byte

	// refreshMu serializes refresh attempts on this grant so concurrent
	// requests for the same session do not race the in-place update.
	refreshMu sync.Mutex
}

// New builds a grant from parsed tokens, applying wire defaults for the
// token type and lifetime. raw is the verbatim server payload when the grant
// came off the wire; nil for programmatically built grants.
func New(access, refresh, id *token.Token, tokenType string, expiresIn time.Duration, raw []byte) *Grant {
	g := &Grant{}
	g.apply(access, refresh, id, tokenType, expiresIn, raw)
	return g
}

// Update overwrites all fields of this grant from another grant, in place.
// No new object is allocated, so existing references observe the refresh.
func (g *Grant) Update(other *Grant) {
	g.apply(other.AccessToken, other.RefreshToken, other.IDToken, other.TokenType, other.ExpiresIn, other.raw)
}

func (g *Grant) apply(access, refresh, id *token.Token, tokenType string, expiresIn time.Duration, raw []byte) {
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	if expiresIn == 0 {
		expiresIn = DefaultExpiresIn
	}
	g.AccessToken = access
	g.RefreshToken = refresh
	g.IDToken = id
	g.TokenType = tokenType
	g.ExpiresIn = expiresIn
	g.raw = raw
}

// IsExpired reports whether the grant is out of date. A grant with no access
// token is expired; otherwise the decision follows the access token. An
// expired grant may still be refreshable when a refresh token is present.
func (g *Grant) IsExpired() bool {
	if g.AccessToken == nil {
		return true
	}
	return g.AccessToken.IsExpired()
}

// Raw returns the verbatim server payload, or nil if the grant was built
// programmatically.
func (g *Grant) Raw() []byte { return g.raw }

// String returns the verbatim raw payload as a string, empty when the grant
// was not constructed from wire data.
func (g *Grant) String() string { return string(g.raw) }

// Exclusive runs fn while holding the grant's refresh lock. The manager uses
// this to single-flight refresh attempts on a shared grant.
func (g *Grant) Exclusive(fn func()) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()
	fn()
}
