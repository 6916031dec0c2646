// Package contextkeys provides centralized context key definitions
//
// All request-scoped values shared between packages are keyed here so the
// setter and its readers agree on the key and the stored type.
//
//	ctx = contextkeys.WithIdentity(ctx, account)
//	account, ok := contextkeys.GetIdentity(ctx)
package contextkeys

import (
	"context"

	"github.com/platinummonkey/crm/pkg/users"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains the signed-in users.UserAccount
	// Set by: middleware.Identity (pkg/middleware/identity.go)
	// Required by: rbac.RequireSection, API handlers
	IdentityKey Key = "identity"
)

// WithIdentity adds the signed-in account to the context
func WithIdentity(ctx context.Context, account users.UserAccount) context.Context {
	return context.WithValue(ctx, IdentityKey, account)
}

// GetIdentity retrieves the signed-in account from context
func GetIdentity(ctx context.Context) (users.UserAccount, bool) {
	account, ok := ctx.Value(IdentityKey).(users.UserAccount)
	return account, ok
}
