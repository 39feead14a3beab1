package config

import (
	"strings"

	"github.com/kbukum/keycloak-connect/validation"
)

// pemLineLength is the wrap width mandated for the public key armor body.
const pemLineLength = 64

// Params are the raw connection facts used to construct a Config.
type Params struct {
	// Realm is the tenant namespace within the identity provider.
	Realm string `json:"realm" validate:"required"`
	// ClientID identifies this application within the realm.
	ClientID string `json:"client_id" validate:"required"`
	// Secret is the client credential. May be empty for public clients;
	// an empty string is a valid secret for confidential clients and is
	// never treated as absent.
	Secret string `json:"secret"`
	// Public marks this application as a public (non-confidential) client.
	Public bool `json:"public"`
	// AuthServerURL is the base URL of the authorization server.
	AuthServerURL string `json:"auth_server_url" validate:"required,url"`
	// PublicKey is the realm's public key, as raw base64 material or as an
	// already-armored PEM block.
	PublicKey string `json:"public_key" validate:"required"`
}

// Config holds the normalized, immutable connection facts. The derived URLs
// are computed once at construction; they cannot drift from their inputs.
type Config struct {
	realm         string
	clientID      string
	secret        string
	public        bool
	authServerURL string
	realmURL      string
	realmAdminURL string
	publicKeyPEM  string
}

// New validates params, derives the realm URLs, and wraps the public key
// into PEM form. Validation failures are fatal configuration errors.
func New(p Params) (*Config, error) {
	if err := validation.Validate(p); err != nil {
		return nil, err
	}

	base := strings.TrimRight(p.AuthServerURL, "/")
	return &Config{
		realm:         p.Realm,
		clientID:      p.ClientID,
		secret:        p.Secret,
		public:        p.Public,
		authServerURL: base,
		realmURL:      base + "/realms/" + p.Realm,
		realmAdminURL: base + "/admin/realms/" + p.Realm,
		publicKeyPEM:  WrapPublicKey(p.PublicKey),
	}, nil
}

// Realm returns the realm name.
func (c *Config) Realm() string { return c.realm }

// ClientID returns the client/application ID.
func (c *Config) ClientID() string { return c.clientID }

// Secret returns the client secret; empty for public clients.
func (c *Config) Secret() string { return c.secret }

// IsPublic reports whether this is a public (non-confidential) client.
func (c *Config) IsPublic() bool { return c.public }

// AuthServerURL returns the authorization server base URL.
func (c *Config) AuthServerURL() string { return c.authServerURL }

// RealmURL returns the root realm URL.
func (c *Config) RealmURL() string { return c.realmURL }

// RealmAdminURL returns the root realm administration URL.
func (c *Config) RealmAdminURL() string { return c.realmAdminURL }

// PublicKeyPEM returns the realm public key as an armored PEM block with
// 64-character body lines.
func (c *Config) PublicKeyPEM() string { return c.publicKeyPEM }

// WrapPublicKey normalizes raw key material into a PEM public-key block.
// Existing armor and whitespace are stripped first, so wrapping an
// already-wrapped key is a no-op. Body lines are exactly 64 characters,
// except possibly the last.
func WrapPublicKey(raw string) string {
	body := stripArmor(raw)

	var b strings.Builder
	b.WriteString("-----BEGIN PUBLIC KEY-----\n")
	for i := 0; i < len(body); i += pemLineLength {
		end := i + pemLineLength
		if end > len(body) {
			end = len(body)
		}
		b.WriteString(body[i:end])
		b.WriteByte('\n')
	}
	b.WriteString("-----END PUBLIC KEY-----\n")
	return b.String()
}

// stripArmor removes PEM armor lines and all whitespace from key material.
func stripArmor(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(line)
	}
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' {
			return -1
		}
		return r
	}, b.String())
}
