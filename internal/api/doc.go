// Package api provides the HTTP client for the book-sharing REST API.
//
// # Overview
//
// Client wraps every endpoint folio uses: books, reviews, discussions, user
// profile and favorites, and the login/register credential exchange. All
// requests carry Accept, User-Agent and X-Request-ID headers, plus a bearer
// token when a Credentials source is installed with SetCredentials.
//
//	client, err := api.NewClient("http://localhost:5000/api")
//	if err != nil {
//		return err
//	}
//	client.SetCredentials(sess)
//	books, err := client.ListBooks(ctx, api.BookQuery{Search: "Dune"})
//
// # Response Normalization
//
// The backend is loose about identifiers: entities may carry "id" or "_id",
// and references to users or books may be an embedded object or a bare id
// string. The UnmarshalJSON methods in types.go resolve all of that at the
// boundary, so callers only ever compare the ID field.
//
// # Errors
//
// Responses with status >= 400 become *Error, which matches ErrUnauthorized,
// ErrNotFound and ErrValidation through errors.Is. Reason extracts the
// server's message for display. Transport failures are wrapped as
// "execute request: ...".
package api
