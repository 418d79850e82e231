package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims are the JWT claims conduit cares about. The subject is the
// opaque principal id; everything else about the identity provider stays
// outside the core.
type AuthClaims struct {
	jwt.RegisteredClaims
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}
