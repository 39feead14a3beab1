package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/keycloak-connect/errors"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Loader finds and loads the adapter manifest.
type Loader struct {
	FileSystem FileSystem
}

// NewLoader creates a Loader backed by the real filesystem.
func NewLoader() *Loader {
	return &Loader{FileSystem: &RealFileSystem{}}
}

// manifestSearchPaths are the locations tried when no explicit path is given,
// matching where the provider console tells you to install the manifest.
var manifestSearchPaths = []string{
	"./keycloak.json",
	"./config/keycloak.json",
}

// Load reads the manifest at path (or searches the standard locations when
// path is empty), applies environment overrides, and constructs a Config.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		path = l.findManifest()
	}
	if path == "" {
		return nil, errors.ConfigMissing("keycloak.json")
	}
	if !l.FileSystem.Exists(path) {
		return nil, errors.ConfigMissing(path)
	}

	// An adjacent .env file supplies environment overrides; absence is fine.
	if l.FileSystem.Exists(".env") {
		_ = l.FileSystem.LoadEnv(".env")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ConfigInvalid("could not read manifest").WithCause(err)
	}

	return FromViper(v)
}

// FromViper resolves the dual key sets of a loaded manifest into Params and
// constructs a Config. The provider-export form takes precedence over the
// canonical form, except `public`, which defaults to false when neither key
// is present. Presence, not truthiness, decides which key wins.
func FromViper(v *viper.Viper) (*Config, error) {
	p := Params{
		Realm:         firstString(v, "realm"),
		ClientID:      firstString(v, "resource", "client_id", "clientId"),
		AuthServerURL: firstString(v, "auth-server-url", "auth_server_url", "authServerUrl"),
		PublicKey:     firstString(v, "realm-public-key", "public_key", "realmPublicKey"),
		Public:        firstBool(v, "public-client", "public", "is_public"),
	}

	// The export form nests the secret under credentials.
	switch {
	case v.IsSet("credentials.secret"):
		p.Secret = v.GetString("credentials.secret")
	case v.IsSet("secret"):
		p.Secret = v.GetString("secret")
	}

	applyEnvOverrides(&p)

	return New(p)
}

// applyEnvOverrides lets deployment environments override individual
// manifest fields without editing the file.
func applyEnvOverrides(p *Params) {
	if v, ok := os.LookupEnv("KEYCLOAK_REALM"); ok {
		p.Realm = v
	}
	if v, ok := os.LookupEnv("KEYCLOAK_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := os.LookupEnv("KEYCLOAK_SECRET"); ok {
		p.Secret = v
	}
	if v, ok := os.LookupEnv("KEYCLOAK_AUTH_SERVER_URL"); ok {
		p.AuthServerURL = v
	}
	if v, ok := os.LookupEnv("KEYCLOAK_PUBLIC_KEY"); ok {
		p.PublicKey = v
	}
	if v, ok := os.LookupEnv("KEYCLOAK_PUBLIC"); ok {
		p.Public = v == "true"
	}
}

func (l *Loader) findManifest() string {
	for _, path := range manifestSearchPaths {
		if l.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// firstString returns the value of the first key that is present, in order.
func firstString(v *viper.Viper, keys ...string) string {
	for _, key := range keys {
		if v.IsSet(key) {
			return v.GetString(key)
		}
	}
	return ""
}

// firstBool returns the value of the first key that is present, in order;
// false when none are.
func firstBool(v *viper.Viper, keys ...string) bool {
	for _, key := range keys {
		if v.IsSet(key) {
			return v.GetBool(key)
		}
	}
	return false
}
