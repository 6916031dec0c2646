// Package httputil provides HTTP helpers shared by the CRM API.
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, leads)
//	httputil.WriteCreated(w, lead)
//	httputil.WriteBadRequest(w, "invalid status")
//	httputil.WriteDetailedError(w, http.StatusBadRequest, "missing required headers", missing)
//
// Every error body has the shape {"error": "...", "details": ...}.
//
// # Request Parsing
//
//	var req loginRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return
//	}
//	id := httputil.PathParam(r, "id")
//	from, err := httputil.ParseQueryDate(r, "from", loc)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.RecoveryMiddleware,
//		httputil.LoggingMiddleware,
//	)(router)
package httputil
