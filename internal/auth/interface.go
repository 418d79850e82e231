package auth

import "conduit/internal/domain/models"

// JWTVerifier validates bearer tokens and extracts the principal claims.
type JWTVerifier interface {
	VerifyToken(tokenString string) (*models.AuthClaims, error)
	Close() error
}
