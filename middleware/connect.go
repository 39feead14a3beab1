package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/keycloak-connect/config"
	"github.com/kbukum/keycloak-connect/errors"
	"github.com/kbukum/keycloak-connect/grant"
	"github.com/kbukum/keycloak-connect/logger"
	"github.com/kbukum/keycloak-connect/manager"
	"github.com/kbukum/keycloak-connect/store"
	"github.com/kbukum/keycloak-connect/token"
)

// Gin context keys set by Protect after successful authentication.
const (
	ContextGrantKey = "keycloak.grant"
	ContextTokenKey = "keycloak.token"
)

// Hooks are application callbacks fired at authentication lifecycle points.
// Any nil hook falls back to its default behavior.
type Hooks struct {
	// Authenticated fires once when an interactive login completes,
	// before the redirect back to the originally requested URL.
	Authenticated func(c *gin.Context, g *grant.Grant)
	// Deauthenticated fires when a session's grant is dropped, from
	// Logout or from a session whose refresh failed.
	Deauthenticated func(c *gin.Context)
	// AccessDenied fires when an authenticated request fails a guard.
	// The default writes a 403 with an "Access denied" body.
	AccessDenied func(c *gin.Context)
}

// Options tune Connect construction.
type Options struct {
	// Store persists session grants. Defaults to an in-process MemoryStore.
	Store store.Store
	// Hooks are the application's lifecycle callbacks.
	Hooks Hooks
	// Logger receives structured request logs; discarded when nil.
	Logger *logger.Logger
	// BearerOnly disables the interactive login flow entirely: requests
	// without a valid bearer token or session grant get a 401, never a
	// redirect. Suited to pure API services.
	BearerOnly bool
}

// Connect gates routes behind the authorization server. Construct one per
// protected application and reuse it across routes.
type Connect struct {
	cfg        *config.Config
	manager    *manager.GrantManager
	store      store.Store
	hooks      Hooks
	log        *logger.Logger
	bearerOnly bool
}

// New wires a Connect from a Config and its GrantManager.
func New(cfg *config.Config, m *manager.GrantManager, opts Options) *Connect {
	st := opts.Store
	if st == nil {
		st = store.NewMemoryStore(store.Config{})
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	hooks := opts.Hooks
	if hooks.Authenticated == nil {
		hooks.Authenticated = func(*gin.Context, *grant.Grant) {}
	}
	if hooks.Deauthenticated == nil {
		hooks.Deauthenticated = func(*gin.Context) {}
	}
	if hooks.AccessDenied == nil {
		hooks.AccessDenied = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusForbidden, errors.AccessDenied().ToResponse())
		}
	}

	return &Connect{
		cfg:        cfg,
		manager:    m,
		store:      st,
		hooks:      hooks,
		log:        log.WithComponent("middleware"),
		bearerOnly: opts.BearerOnly,
	}
}

// Manager returns the underlying GrantManager.
func (k *Connect) Manager() *manager.GrantManager { return k.manager }

// GrantFrom returns the grant Protect attached to the request, or nil.
func GrantFrom(c *gin.Context) *grant.Grant {
	if v, ok := c.Get(ContextGrantKey); ok {
		if g, ok := v.(*grant.Grant); ok {
			return g
		}
	}
	return nil
}

// TokenFrom returns the validated access token Protect attached to the
// request, or nil.
func TokenFrom(c *gin.Context) *token.Token {
	if v, ok := c.Get(ContextTokenKey); ok {
		if tok, ok := v.(*token.Token); ok {
			return tok
		}
	}
	return nil
}
