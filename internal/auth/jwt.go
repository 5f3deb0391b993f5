package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig holds the shared secret used to validate access tokens.
type JWTConfig struct {
	Secret string
	Issuer string
}

// AccessTokenClaims are the claims read from an access token. The role may
// come from the top-level claim or from app_metadata.
type AccessTokenClaims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed access tokens locally.
type JWTVerifier struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTVerifier creates a JWTVerifier for the given configuration.
func NewJWTVerifier(config JWTConfig) *JWTVerifier {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired()}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &JWTVerifier{config: config, parser: jwt.NewParser(opts...)}
}

// Verify parses token and returns the caller identity.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if v.config.Secret == "" {
		return nil, fmt.Errorf("jwt verifier: %w", ErrTokenInvalid)
	}

	parsed, err := v.parser.ParseWithClaims(token, &AccessTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSigningMethod
		}
		return []byte(v.config.Secret), nil
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: no email claim", ErrTokenInvalid)
	}

	role := claims.AppMetadata.Role
	if role == "" {
		role = claims.Role
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// classifyJWTError maps jwt library errors to the package errors.
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrTokenInvalid
	case errors.Is(err, ErrSigningMethod), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenInvalid
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
