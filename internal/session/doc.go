// Package session owns the signed-in user.
//
// A Session is created once at startup from the on-disk Store, then
// Bootstrap checks the stored token against GET /users/profile. Login and
// Register persist the new token; Logout removes it. The api.Client reads
// the token through the api.Credentials interface, and any caller that sees
// api.ErrUnauthorized hands the error to HandleError to sign out.
package session
