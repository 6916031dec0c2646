package middleware

import (
	"net/http"

	"github.com/platinummonkey/crm/pkg/contextkeys"
	"github.com/platinummonkey/crm/pkg/httputil"
	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/users"
)

// IdentitySource reports the currently signed-in account
type IdentitySource interface {
	Current() (users.UserAccount, bool)
}

// Identity attaches the signed-in account, if any, to every request context.
// The lookup happens per request so a logout is visible immediately.
func Identity(source IdentitySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := source.Current()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextkeys.WithIdentity(r.Context(), account)
			ctx = observability.WithUserEmail(ctx, account.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests with no signed-in account
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := contextkeys.GetIdentity(r.Context()); !ok {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity retrieves the signed-in account from the request
func GetIdentity(r *http.Request) (users.UserAccount, bool) {
	return contextkeys.GetIdentity(r.Context())
}
