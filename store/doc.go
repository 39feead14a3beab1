// Package store persists grants across requests of the same browser
// session. The middleware consults a Store on every protected request;
// bearer-token requests never touch it.
//
// MemoryStore is the built-in implementation: a cookie-carried session ID
// mapped to the grant in process memory. It is suitable for a single
// process; multi-instance deployments should provide a Store backed by
// shared storage.
package store
