// Package credentials persists the client's durable auth state (the bearer
// token) in the local SQLite database so a session survives restarts.
//
// Get on a missing key returns ("", nil): absence is a normal state, not an
// error.
package credentials
