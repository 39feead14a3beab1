package manager

import "strings"

// EncodeURIComponent percent-encodes s with JavaScript encodeURIComponent
// semantics: A-Z a-z 0-9 - _ . ~ ! * ' ( ) stay bare, everything else is
// escaped (space becomes %20, not +). The provider matches redirect URIs
// against the value registered through its console, which uses this
// encoding, so the adapter must produce byte-identical output.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '_' || c == '.' || c == '~' ||
			c == '!' || c == '*' || c == '\'' || c == '(' || c == ')':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

// LoginURL builds the provider's interactive login URL, embedding a redirect
// back to the originally requested URL and an opaque state value for CSRF
// protection.
func (m *GrantManager) LoginURL(state, redirectURI string) string {
	return m.cfg.RealmURL() + "/tokens/login" +
		"?client_id=" + EncodeURIComponent(m.cfg.ClientID()) +
		"&state=" + EncodeURIComponent(state) +
		"&redirect_uri=" + EncodeURIComponent(redirectURI)
}

// LogoutURL builds the provider's logout URL with a post-logout redirect.
func (m *GrantManager) LogoutURL(redirectURI string) string {
	return m.cfg.RealmURL() + "/tokens/logout" +
		"?redirect_uri=" + EncodeURIComponent(redirectURI)
}

// AccountURL returns the provider's account page URL.
func (m *GrantManager) AccountURL() string {
	return m.cfg.RealmURL() + "/account"
}
