// Package token parses and represents a single compact signed token issued
// by the authorization server. A Token is immutable once parsed: it keeps the
// original compact string, the exact bytes that were signed, the decoded
// signature, and the decoded header and claims.
//
// Expiry and role membership decisions live here. Signature verification is
// owned by the manager package, which holds the realm public key.
package token
