// Package middleware provides the HTTP middleware that sits in front of the CRM API.
//
// Identity copies the signed-in account from the session gate into each request
// context; RequireIdentity rejects anonymous requests. RateLimit throttles login
// attempts per client address with an in-memory token bucket.
//
//	router.Use(middleware.Identity(gate))
//	login := middleware.RateLimit(middleware.NewRateLimiter(nil))(loginHandler)
package middleware
