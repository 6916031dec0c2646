// Package api serves one CRM application context over HTTP.
//
// Routes live under /api and mirror the sections of the permission table. A
// route answers 401 when nobody is signed in and 403 with an inline
// "unauthorized" message when the signed-in role cannot enter its section.
// Domain errors map to statuses in one place:
//
//	invalid credentials, not signed in        401
//	missing fields or CSV headers, bad input  400 (with details)
//	unauthorized                              403
//	unknown lead, client, user; no report data 404
//	no assignable users, duplicate email,
//	deleting your own account                 409
//	no export sink                            503
//
// One process serves one session, so POST /api/session/login replaces whoever
// was signed in before, like a second login in the same browser.
package api
