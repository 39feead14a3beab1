// Package middleware is the HTTP-facing surface of the adapter: Gin
// handlers that gate routes behind authentication and role checks.
//
// Connect ties the pieces together. Its Protect middleware authenticates a
// request from either a bearer Authorization header or a session grant,
// runs any guards, and stashes the validated grant in the Gin context for
// handlers downstream:
//
//	kc := middleware.New(cfg, mgr, middleware.Options{})
//	r.GET("/orders", kc.Protect(middleware.RequireRole("realm:clerk")), listOrders)
//
// Bearer requests are stateless: an expired or invalid bearer token is a
// 401, never a login redirect. Browser requests without a grant are sent
// through the provider's interactive login and return on the same URL with
// an authorization code the middleware exchanges transparently.
package middleware
