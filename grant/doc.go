// Package grant aggregates the tokens issued for one login: access, refresh,
// and ID token, plus the token type and lifetime reported by the server.
//
// A Grant is deliberately mutable in place: refresh updates the fields of the
// existing value so every holder of the pointer (the session store, in-flight
// requests) observes the refreshed tokens without extra bookkeeping.
package grant
