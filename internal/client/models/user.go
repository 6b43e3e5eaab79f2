// Package models defines the storefront resources exchanged with the REST API.
package models

import "encoding/json"

// Role is the account role reported by the API.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// UnmarshalJSON accepts both "customer" and ["customer"]; older API builds
// report roles as a list. The first entry wins.
func (r *Role) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*r = Role(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*r = ""
	if len(many) > 0 {
		*r = Role(many[0])
	}
	return nil
}

// User is the identity record returned by /auth/me and /auth/register.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        Role       `json:"role,omitempty"`
	AgeVerified bool       `json:"age_verified"`
	BirthDate   *Timestamp `json:"birth_date,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
}

// Clone returns a deep copy so snapshots handed to callers never alias store
// state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.BirthDate != nil {
		bd := *u.BirthDate
		c.BirthDate = &bd
	}
	if u.CreatedAt != nil {
		ca := *u.CreatedAt
		c.CreatedAt = &ca
	}
	return &c
}

// RegisterRequest is the /auth/register payload. BirthDate is sent as an
// ISO datetime at UTC midnight.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	BirthDate string `json:"birth_date"`
}

// TokenResponse is returned by the credential exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AgeVerification is the verify-age response. Depending on the API version
// it is either a bare user record or a fresh token plus the user.
type AgeVerification struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user,omitempty"`
}
