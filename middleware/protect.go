package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/keycloak-connect/errors"
	"github.com/kbukum/keycloak-connect/grant"
	"github.com/kbukum/keycloak-connect/logger"
	"github.com/kbukum/keycloak-connect/token"
)

// callbackMark flags a request as the return leg of an interactive login.
const callbackMark = "auth_callback"

// Guard decides whether an authenticated request may proceed. The token has
// already passed signature, expiry, and not-before validation.
type Guard func(tok *token.Token, c *gin.Context) bool

// RequireRole returns a Guard that checks a role specifier against the
// request's access token. Specifiers follow the provider's convention:
// "realm:name" for realm roles, "client:name" for another client's roles,
// and a bare "name" for a role of this application.
func RequireRole(spec string) Guard {
	return func(tok *token.Token, _ *gin.Context) bool {
		return tok.HasRole(spec, "")
	}
}

// Protect returns middleware that admits only authenticated requests that
// pass every guard. With no guards it gates on authentication alone.
//
// Requests with an Authorization bearer header are handled statelessly:
// a missing, expired, or unverifiable token is a 401, never a redirect.
// Browser requests fall back to the session grant, then to the interactive
// login flow against the provider.
func (k *Connect) Protect(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := k.authenticate(c)
		if tok == nil {
			// authenticate wrote the response or redirect
			return
		}
		for _, guard := range guards {
			if !guard(tok, c) {
				k.log.Debug("request denied by guard", logger.Fields(
					logger.FieldSubject, tok.Claims().Subject,
					logger.FieldEndpoint, c.Request.URL.Path,
				))
				k.hooks.AccessDenied(c)
				return
			}
		}
		c.Next()
	}
}

// authenticate resolves the request's access token or terminates the
// request. It returns nil after writing a 401, 403, or redirect.
func (k *Connect) authenticate(c *gin.Context) *token.Token {
	if raw, ok := bearerToken(c); ok {
		return k.authenticateBearer(c, raw)
	}
	if g := k.sessionGrant(c); g != nil {
		c.Set(ContextGrantKey, g)
		c.Set(ContextTokenKey, g.AccessToken)
		return g.AccessToken
	}
	if code := c.Query("code"); code != "" && c.Query(callbackMark) == "1" {
		return k.completeLogin(c, code)
	}
	k.challenge(c)
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func (k *Connect) authenticateBearer(c *gin.Context, raw string) *token.Token {
	tok, err := token.Parse(raw, k.cfg.ClientID())
	if err != nil {
		k.unauthorized(c, "malformed bearer token")
		return nil
	}
	if tok = k.manager.ValidateToken(tok); tok == nil {
		k.unauthorized(c, "invalid bearer token")
		return nil
	}
	c.Set(ContextTokenKey, tok)
	return tok
}

// sessionGrant loads and freshens the session's grant. A grant that cannot
// be refreshed is dropped, which sends the request through the login flow
// again.
func (k *Connect) sessionGrant(c *gin.Context) *grant.Grant {
	g := k.store.Get(c)
	if g == nil {
		return nil
	}
	if err := k.manager.EnsureFreshness(c.Request.Context(), g); err != nil {
		k.log.Debug("session grant dropped", logger.ErrorFields("refresh", err))
		k.dropSession(c)
		return nil
	}
	if g.AccessToken == nil {
		k.dropSession(c)
		return nil
	}
	k.store.Save(c, g)
	return g
}

// completeLogin is the return leg of the interactive flow: the provider
// redirected back with an authorization code and our state value.
func (k *Connect) completeLogin(c *gin.Context, code string) *token.Token {
	state := c.Query("state")
	target, ok := k.store.TakeRedirect(c, state)
	if !ok {
		// unknown state: forged or replayed callback
		k.hooks.AccessDenied(c)
		return nil
	}

	g, err := k.manager.ObtainFromCode(
		c.Request.Context(), code, exchangeRedirectURI(c),
		k.store.SessionID(c), c.Request.Host,
	)
	if err != nil {
		k.log.Warn("code exchange failed", logger.ErrorFields("obtain_from_code", err))
		k.hooks.AccessDenied(c)
		return nil
	}

	k.store.Save(c, g)
	k.hooks.Authenticated(c, g)
	k.log.Info("interactive login completed", logger.Fields(
		logger.FieldSubject, subjectOf(g),
	))
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
	return nil
}

// challenge handles an unauthenticated request: interactive browser
// requests are redirected to the provider's login page, everything else
// gets a 401.
func (k *Connect) challenge(c *gin.Context) {
	if k.bearerOnly || !interactive(c) {
		k.unauthorized(c, "authentication required")
		return
	}

	state := uuid.NewString()
	k.store.SetRedirect(c, state, originalURL(c))
	c.Redirect(http.StatusFound, k.manager.LoginURL(state, callbackURI(c)))
	c.Abort()
}

func (k *Connect) unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errors.Unauthorized(reason).ToResponse())
}

func (k *Connect) dropSession(c *gin.Context) {
	k.hooks.Deauthenticated(c)
	k.store.Clear(c)
}

// interactive reports whether the request came from a navigating browser,
// the only kind worth redirecting through a login page.
func interactive(c *gin.Context) bool {
	return c.Request.Method == http.MethodGet &&
		strings.Contains(c.GetHeader("Accept"), "text/html")
}

func subjectOf(g *grant.Grant) string {
	if g.AccessToken == nil {
		return ""
	}
	return g.AccessToken.Claims().Subject
}

// --- request URL reconstruction ---

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func currentURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Scheme = requestScheme(c)
	u.Host = c.Request.Host
	return &u
}

func stripCodeParams(q url.Values) {
	q.Del("code")
	q.Del("state")
	q.Del("session_state")
}

// originalURL is the URL the user actually asked for, with every artifact
// of the login flow removed. It is the post-login redirect target.
func originalURL(c *gin.Context) string {
	u := currentURL(c)
	q := u.Query()
	stripCodeParams(q)
	q.Del(callbackMark)
	u.RawQuery = q.Encode()
	return u.String()
}

// callbackURI is the redirect_uri embedded in the login URL: the current
// URL marked as a callback.
func callbackURI(c *gin.Context) string {
	u := currentURL(c)
	q := u.Query()
	stripCodeParams(q)
	q.Set(callbackMark, "1")
	u.RawQuery = q.Encode()
	return u.String()
}

// exchangeRedirectURI reconstructs the exact redirect_uri the login URL
// carried; the provider requires the code exchange to repeat it verbatim.
func exchangeRedirectURI(c *gin.Context) string {
	return callbackURI(c)
}
