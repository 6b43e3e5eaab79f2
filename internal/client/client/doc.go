// Package client contains the client-side building blocks for talking to the
// storefront REST API.
//
// # Overview
//
// The package provides:
//  1. The API contract (see the Client interface): credential exchange,
//     identity, age verification, catalog, cart, orders and payment
//     preferences.
//  2. A net/http implementation (HTTPClient). It holds no session state: the
//     bearer token is passed on every call, so a response can always be tied
//     to the session that issued the request.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Responses
//
// A 2xx response with an empty body (204, Content-Length: 0, or no bytes) is
// an empty result and is never parsed. Non-2xx responses become *APIError
// carrying the server's "detail" message, or DefaultErrorMessage.
// Transport failures become *NetworkError, which matches ErrUnavailable.
//
// # Error Handling
//
// Conditions are exposed as sentinel errors matched with errors.Is:
// ErrValidation, ErrInvalidCredentials, ErrNotAuthorized, ErrUnauthorized,
// ErrUnavailable, ErrSessionChanged, ErrEmptyCart.
//
// HTTPClient is safe for concurrent use. All operations honor ctx.
package client
