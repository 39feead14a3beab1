// Package config normalizes the adapter's connection facts (realm, client,
// secret, server URL, realm public key) into a canonical, immutable Config.
//
// The manifest (`keycloak.json`) may use either the provider-export key set
// (kebab-case, as emitted by the administration console) or the canonical
// key set. Resolution is "first key present, in a fixed precedence order":
// a value that is present but falsy (an empty-string secret, public=false)
// is never silently replaced by a lower-precedence key.
package config
