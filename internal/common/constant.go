// Package common contains constants shared by the storefront client layers.
package common

const (
	// TokenStorageKey is the key under which the bearer token is persisted
	// in the local database.
	TokenStorageKey = "token"

	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme prefixes the token in AuthorizationHeaderName.
	BearerScheme = "Bearer"

	// RequestIDHeaderName tags every outbound request for log correlation.
	RequestIDHeaderName = "X-Request-ID"
)
