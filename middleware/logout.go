package middleware

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/keycloak-connect/logger"
	"github.com/kbukum/keycloak-connect/token"
)

// maxAdminTokenSize bounds the admin request body read.
const maxAdminTokenSize = 64 << 10

// Logout returns a handler that ends the session on both sides: it drops
// the local grant and forwards the browser to the provider's logout page,
// which redirects back to redirectTo afterwards. An empty redirectTo sends
// the user to the application root.
func (k *Connect) Logout(redirectTo string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k.dropSession(c)

		target := redirectTo
		if target == "" {
			target = requestScheme(c) + "://" + c.Request.Host + "/"
		}
		c.Redirect(http.StatusFound, k.manager.LogoutURL(target))
	}
}

// PushNotBefore returns the handler for the provider's administrative
// not-before push: the console revokes every token issued before a cutoff
// by POSTing a signed admin token. The body must carry a compact token that
// passes full local validation; its notBefore claim (or its issue time when
// the claim is absent) becomes the realm's new watermark. Stale pushes are
// acknowledged without moving the watermark backward.
func (k *Connect) PushNotBefore() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAdminTokenSize))
		if err != nil {
			k.unauthorized(c, "unreadable admin request")
			return
		}

		tok, err := token.Parse(strings.TrimSpace(string(body)), "")
		if err != nil {
			k.unauthorized(c, "malformed admin token")
			return
		}
		if tok = k.manager.ValidateToken(tok); tok == nil {
			k.unauthorized(c, "invalid admin token")
			return
		}

		cutoff := tok.Claims().NotBefore
		if cutoff == 0 {
			cutoff = tok.Claims().IssuedAt
		}
		if k.manager.State().AdvanceNotBefore(cutoff) {
			k.log.Info("realm not-before advanced", logger.Fields(
				logger.FieldOperation, "push_not_before",
				"not_before", cutoff,
			))
		}
		c.Status(http.StatusNoContent)
	}
}
