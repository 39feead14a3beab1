// Package manager owns the token/grant lifecycle: it talks to the
// authorization server's token endpoints, assembles and validates grants,
// refreshes them in place, and holds the realm-wide not-before watermark.
//
// Validation is local and layered cheapest-first: presence, expiry, the
// not-before watermark, then RSA-SHA256 signature verification against the
// realm public key. A token that fails any check degrades its grant slot to
// nil; the rest of the grant stays usable.
package manager
