package manager

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/keycloak-connect/config"
	"github.com/kbukum/keycloak-connect/errors"
	"github.com/kbukum/keycloak-connect/grant"
	"github.com/kbukum/keycloak-connect/httpclient"
	"github.com/kbukum/keycloak-connect/logger"
	"github.com/kbukum/keycloak-connect/token"
)

// Provider endpoints, relative to the realm URL.
const (
	directGrantPath  = "/tokens/grants/access"
	codeExchangePath = "/tokens/access/codes"
	refreshPath      = "/tokens/refresh"
	validatePath     = "/tokens/validate"
	accountPath      = "/account"
)

// signingMethod is the only signature algorithm the adapter accepts.
// Supporting others is out of scope.
var signingMethod = gojwt.SigningMethodRS256

// Options tune GrantManager construction.
type Options struct {
	// HTTPTimeout bounds every provider call. Defaults to 10s.
	HTTPTimeout time.Duration
	// State is the shared realm state; a fresh one is created when nil.
	State *RealmState
	// Logger receives structured operation logs; discarded when nil.
	Logger *logger.Logger
}

// GrantManager creates, validates, and refreshes grants against the
// authorization server.
type GrantManager struct {
	cfg       *config.Config
	client    *httpclient.Client
	state     *RealmState
	publicKey *rsa.PublicKey
	log       *logger.Logger
}

// New constructs a GrantManager from a normalized Config.
func New(cfg *config.Config, opts Options) (*GrantManager, error) {
	key, err := gojwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM()))
	if err != nil {
		return nil, errors.ConfigInvalid("realm public key is not a valid RSA public key").WithCause(err)
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.RealmURL(),
		Timeout: opts.HTTPTimeout,
	})
	if err != nil {
		return nil, errors.ConfigInvalid("transport configuration rejected").WithCause(err)
	}

	state := opts.State
	if state == nil {
		state = NewRealmState()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &GrantManager{
		cfg:       cfg,
		client:    client,
		state:     state,
		publicKey: key,
		log:       log.WithComponent("grant-manager"),
	}, nil
}

// State returns the shared realm state.
func (m *GrantManager) State() *RealmState { return m.state }

// ClientID returns the configured client ID.
func (m *GrantManager) ClientID() string { return m.cfg.ClientID() }

// ObtainDirectly logs in through the direct-grant (resource-owner password)
// endpoint. Public clients identify themselves with a client_id form field;
// confidential clients authenticate with Basic credentials and omit the
// field. Any non-2xx status or parse failure fails the operation; no retry
// is attempted.
func (m *GrantManager) ObtainDirectly(ctx context.Context, username, password string) (*grant.Grant, error) {
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   directGrantPath,
		Form: map[string]string{
			"username": username,
			"password": password,
		},
	}
	if m.cfg.IsPublic() {
		req.Form["client_id"] = m.cfg.ClientID()
	} else {
		req.Auth = httpclient.BasicAuth(m.cfg.ClientID(), m.cfg.Secret())
	}

	resp, err := m.client.Do(ctx, req)
	if err != nil {
		return nil, m.transportError("direct grant", err)
	}

	g, err := m.CreateGrant(resp.Body)
	if err != nil {
		return nil, err
	}
	m.log.Debug("direct grant obtained", logger.Fields(logger.FieldOperation, "obtain_directly"))
	return g, nil
}

// ObtainFromCode exchanges an authorization code from an interactive login
// for a grant. The exchange always authenticates as the configured client
// with Basic credentials; it is never performed as a public client.
// sessionID and sessionHost are optional and let the provider target this
// application during console-initiated session invalidation.
func (m *GrantManager) ObtainFromCode(ctx context.Context, code, redirectURI, sessionID, sessionHost string) (*grant.Grant, error) {
	form := map[string]string{
		"code":         code,
		"redirect_uri": EncodeURIComponent(redirectURI),
	}
	if sessionID != "" {
		form["application_session_state"] = sessionID
	}
	if sessionHost != "" {
		form["application_session_host"] = sessionHost
	}

	resp, err := m.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   codeExchangePath,
		Form:   form,
		Auth:   httpclient.BasicAuth(m.cfg.ClientID(), m.cfg.Secret()),
	})
	if err != nil {
		return nil, m.transportError("code exchange", err)
	}

	g, err := m.CreateGrant(resp.Body)
	if err != nil {
		return nil, err
	}
	m.log.Debug("code exchanged for grant", logger.Fields(logger.FieldOperation, "obtain_from_code"))
	return g, nil
}

// EnsureFreshness refreshes an expired grant in place. A fresh grant is left
// untouched. An expired grant without a refresh token cannot be refreshed.
// On any transport or parse failure the existing grant is not modified.
// Refresh attempts on the same grant are serialized, and a request that
// waited on the lock skips the round trip when another request already
// refreshed the grant.
func (m *GrantManager) EnsureFreshness(ctx context.Context, g *grant.Grant) error {
	if !g.IsExpired() {
		return nil
	}
	if g.RefreshToken == nil {
		return errors.RefreshUnavailable()
	}

	var refreshErr error
	g.Exclusive(func() {
		if !g.IsExpired() {
			return
		}
		if g.RefreshToken == nil {
			refreshErr = errors.RefreshUnavailable()
			return
		}

		resp, err := m.client.Do(ctx, httpclient.Request{
			Method: http.MethodPost,
			Path:   refreshPath,
			Form: map[string]string{
				"grant_type":    "refresh_token",
				"refresh_token": g.RefreshToken.Raw(),
			},
			Auth: httpclient.BasicAuth(m.cfg.ClientID(), m.cfg.Secret()),
		})
		if err != nil {
			refreshErr = m.transportError("token refresh", err)
			return
		}

		fresh, err := m.CreateGrant(resp.Body)
		if err != nil {
			refreshErr = err
			return
		}
		g.Update(fresh)
		m.log.Debug("grant refreshed in place", logger.Fields(logger.FieldOperation, "ensure_freshness"))
	})
	return refreshErr
}

// ValidateAccessToken asks the provider's live introspection endpoint about
// a token. It returns the same token when the provider reports no error,
// and nil when the provider rejects it, whether by status or by an error
// field in the body. A transport failure is returned as an error; the
// token's standing is then unknown, not invalid.
func (m *GrantManager) ValidateAccessToken(ctx context.Context, tok *token.Token) (*token.Token, error) {
	if tok == nil {
		return nil, errors.TokenMissing("access")
	}
	resp, err := m.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   validatePath,
		Query:  map[string]string{"access_token": tok.Raw()},
	})
	if err != nil {
		if httpErr, ok := err.(*httpclient.Error); ok && httpErr.Code == httpclient.ErrCodeStatus {
			return nil, nil
		}
		return nil, m.transportError("token introspection", err)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, errors.ParseFailed("introspection response", err)
	}
	if body.Error != "" {
		return nil, nil
	}
	return tok, nil
}

// wireGrant is the provider's token-endpoint response shape.
type wireGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// CreateGrant decodes a raw provider response into a validated Grant. The
// access token is bound to the configured client; refresh and ID tokens are
// unbound. Any decode or token-parse failure fails the whole operation;
// a partially built grant is never returned.
func (m *GrantManager) CreateGrant(raw []byte) (*grant.Grant, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.ParseFailed("grant payload", nil)
	}

	var w wireGrant
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, errors.ParseFailed("grant payload", err)
	}

	var access, refresh, id *token.Token
	var err error
	if w.AccessToken != "" {
		if access, err = token.Parse(w.AccessToken, m.cfg.ClientID()); err != nil {
			return nil, err
		}
	}
	if w.RefreshToken != "" {
		if refresh, err = token.Parse(w.RefreshToken, ""); err != nil {
			return nil, err
		}
	}
	if w.IDToken != "" {
		if id, err = token.Parse(w.IDToken, ""); err != nil {
			return nil, err
		}
	}

	g := grant.New(access, refresh, id, w.TokenType, time.Duration(w.ExpiresIn)*time.Second, raw)
	return m.ValidateGrant(g), nil
}

// ValidateGrant filters a grant in place: each token slot is replaced by
// ValidateToken's verdict, so afterwards every slot holds either a token
// that passed all checks or nil. The same grant object is returned.
func (m *GrantManager) ValidateGrant(g *grant.Grant) *grant.Grant {
	g.AccessToken = m.ValidateToken(g.AccessToken)
	g.RefreshToken = m.ValidateToken(g.RefreshToken)
	g.IDToken = m.ValidateToken(g.IDToken)
	return g
}

// ValidateToken runs the local validation chain, cheapest checks first:
// presence, expiry, the realm not-before watermark, then RSA-SHA256
// signature verification. It returns the same token when every check
// passes, nil otherwise.
func (m *GrantManager) ValidateToken(tok *token.Token) *token.Token {
	if tok == nil {
		return nil
	}
	if tok.IsExpired() {
		m.logRejected(tok, errors.TokenExpired())
		return nil
	}
	if tok.Claims().IssuedAt < m.state.NotBefore() {
		m.logRejected(tok, errors.TokenNotYetValid())
		return nil
	}
	if tok.Header().Alg != signingMethod.Alg() {
		m.logRejected(tok, errors.BadSignature())
		return nil
	}
	if err := signingMethod.Verify(tok.SignedString(), tok.Signature(), m.publicKey); err != nil {
		m.logRejected(tok, errors.BadSignature().WithCause(err))
		return nil
	}
	return tok
}

// AccountInfo is the account endpoint's response.
type AccountInfo struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	// Raw holds the full response for project-specific extraction.
	Raw map[string]any `json:"-"`
}

// GetAccount retrieves the account information associated with a token.
// A non-2xx status or an error field in the body yields a failure.
func (m *GrantManager) GetAccount(ctx context.Context, tok *token.Token) (*AccountInfo, error) {
	if tok == nil {
		return nil, errors.TokenMissing("access")
	}
	resp, err := m.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    accountPath,
		Headers: map[string]string{"Accept": "application/json"},
		Auth:    httpclient.BearerAuth(tok.Raw()),
	})
	if err != nil {
		return nil, errors.AccountUnavailable(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, errors.ParseFailed("account response", err)
	}
	if errVal, ok := raw["error"]; ok && errVal != "" {
		return nil, errors.AccountUnavailable(nil).WithDetail("error", errVal)
	}

	var info AccountInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return nil, errors.ParseFailed("account response", err)
	}
	info.Raw = raw
	return &info, nil
}

// transportError maps an httpclient failure onto the adapter's error kinds.
func (m *GrantManager) transportError(operation string, err error) error {
	m.log.Warn("provider call failed", logger.ErrorFields(operation, err))
	if httpErr, ok := err.(*httpclient.Error); ok && httpErr.Code == httpclient.ErrCodeTimeout {
		return errors.Timeout(operation, err)
	}
	return errors.TransportFailed(operation, err)
}

func (m *GrantManager) logRejected(tok *token.Token, rejection *errors.AppError) {
	m.log.Debug("token rejected", logger.Fields(
		logger.FieldSubject, tok.Claims().Subject,
		logger.FieldStatus, string(rejection.Code),
		logger.FieldError, rejection.Error(),
	))
}
