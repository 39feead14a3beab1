package store

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/keycloak-connect/grant"
)

// Store keeps grants and pending login redirects per browser session.
type Store interface {
	// Get returns the session's grant, or nil when the request carries no
	// session or the session holds no grant.
	Get(c *gin.Context) *grant.Grant
	// Save associates a grant with the request's session, creating the
	// session when needed.
	Save(c *gin.Context, g *grant.Grant)
	// Clear drops the session and expires its cookie.
	Clear(c *gin.Context)
	// SetRedirect remembers where to send the user after an interactive
	// login, keyed by the opaque state value embedded in the login URL.
	SetRedirect(c *gin.Context, state, uri string)
	// TakeRedirect consumes a pending redirect. The second return is false
	// when the state is unknown, which marks the callback as forged or
	// replayed.
	TakeRedirect(c *gin.Context, state string) (string, bool)
	// SessionID returns the request's session identifier, or "" when the
	// request carries none. It is reported to the provider during code
	// exchange so console-initiated logouts can target this session.
	SessionID(c *gin.Context) string
}

// Config tunes MemoryStore behavior.
type Config struct {
	// CookieName carries the session ID. Defaults to "kc-session".
	CookieName string
	// TTL bounds how long an idle session survives. Defaults to 1h.
	TTL time.Duration
	// Secure marks the session cookie Secure.
	Secure bool
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.CookieName == "" {
		c.CookieName = "kc-session"
	}
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
}

type session struct {
	grant     *grant.Grant
	redirects map[string]string
	expiresAt time.Time
}

// MemoryStore is an in-process Store keyed by a session cookie.
type MemoryStore struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewMemoryStore builds a MemoryStore with defaults applied.
func NewMemoryStore(cfg Config) *MemoryStore {
	cfg.ApplyDefaults()
	return &MemoryStore{
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(c *gin.Context) *grant.Grant {
	id, err := c.Cookie(s.cfg.CookieName)
	if err != nil {
		return nil
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil
	}
	return sess.grant
}

// Save implements Store.
func (s *MemoryStore) Save(c *gin.Context, g *grant.Grant) {
	id := s.ensureSession(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	if sess == nil {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.grant = g
	sess.expiresAt = time.Now().Add(s.cfg.TTL)
}

// Clear implements Store.
func (s *MemoryStore) Clear(c *gin.Context) {
	id, err := c.Cookie(s.cfg.CookieName)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.setCookie(c, "", -1)
}

// SetRedirect implements Store.
func (s *MemoryStore) SetRedirect(c *gin.Context, state, uri string) {
	id := s.ensureSession(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[id]
	if sess == nil {
		sess = &session{}
		s.sessions[id] = sess
	}
	if sess.redirects == nil {
		sess.redirects = make(map[string]string)
	}
	sess.redirects[state] = uri
	sess.expiresAt = time.Now().Add(s.cfg.TTL)
}

// TakeRedirect implements Store.
func (s *MemoryStore) TakeRedirect(c *gin.Context, state string) (string, bool) {
	id, err := c.Cookie(s.cfg.CookieName)
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.redirects == nil {
		return "", false
	}
	uri, ok := sess.redirects[state]
	if !ok {
		return "", false
	}
	delete(sess.redirects, state)
	return uri, true
}

// SessionID implements Store.
func (s *MemoryStore) SessionID(c *gin.Context) string {
	id, err := c.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return id
}

// Len reports live sessions; expired entries that have not been touched
// still count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ensureSession returns the request's session ID, minting one and setting
// the cookie when the request has none.
func (s *MemoryStore) ensureSession(c *gin.Context) string {
	if id, err := c.Cookie(s.cfg.CookieName); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	s.setCookie(c, id, int(s.cfg.TTL/time.Second))
	// later Save/SetRedirect calls in the same request must see the ID
	c.Request.AddCookie(&http.Cookie{Name: s.cfg.CookieName, Value: id})
	return id
}

func (s *MemoryStore) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(s.cfg.CookieName, value, maxAge, "/", "", s.cfg.Secure, true)
}
