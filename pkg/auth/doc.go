// Package auth implements the CRM authentication gate.
//
// A Gate holds at most one signed-in identity for its application context.
// Login matches email and credential exactly against the user directory and
// persists the session under the "crmUser" key so it survives a restart;
// Logout clears both and is idempotent.
//
// Credentials are compared in plaintext. The gate is a demonstration login and
// must not be exposed as real authentication.
//
//	account, err := gate.Login(ctx, "admin@crm.com", "admin123")
//	if errors.Is(err, auth.ErrInvalidCredentials) {
//		...
//	}
//	defer gate.Logout(ctx)
package auth
