// Package httpclient is the transport used for calls to the authorization
// server. It wraps net/http with a bounded timeout, Basic/Bearer request
// authentication, and form-encoded request bodies.
//
// The contract is deliberately strict: a status in [200,299] is success,
// anything else is a failure regardless of the response body. No retry is
// ever attempted; a failed call is surfaced immediately so callers control
// resiliency policy.
package httpclient
