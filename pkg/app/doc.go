// Package app wires the CRM modules into one application context.
//
// A Context is what a single signed-in session works with. It owns the user
// directory, the authentication gate, the settings, the record stores and the
// round-robin rotation, all loaded from one storage.Store. Every operation
// checks the signed-in role against the permission table and applies
// visibility before returning records:
//
//	crm, err := app.New(ctx, app.Options{Store: store, Logger: log})
//	if err != nil {
//		return err
//	}
//	defer crm.Close()
//
//	if _, err := crm.Login(ctx, "sales@crm.com", "sales123"); err != nil {
//		return err
//	}
//	leads, err := crm.Leads(records.Query{Status: "in-progress"})
//
// Contexts never share state in memory, so two contexts over different stores
// keep independent sessions and rotations.
package app
