package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conduit/internal/domain"
	"conduit/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier implements JWTVerifier using a remote JWKS endpoint.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from the given
// JWKS endpoint. Keys are cached and refreshed by keyfunc based on HTTP
// cache headers.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx := context.Background()
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// VerifyToken validates a JWT and extracts the claims.
// Returns ErrUnauthorized for any invalid, expired, or malformed token.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AuthClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Prevent algorithm confusion attacks - allow only RS256 or ES256
	switch token.Method.Alg() {
	case "RS256", "ES256":
		// allowed
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.AuthClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close releases resources held by the verifier. keyfunc v3 manages its own
// refresh lifecycle, so this is a no-op kept for shutdown symmetry.
func (v *JWKSVerifier) Close() error {
	return nil
}
