package security

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

var _ ports.IdentityProvider = (*JWTValidator)(nil)

// UserClaims is the access token shape minted by identity-service.
type UserClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator only verifies: this service never holds the private key.
type JWTValidator struct {
	publicKey *rsa.PublicKey
	issuer    string
	leeway    time.Duration
}

func NewJWTValidator(publicKeyPEM []byte, issuer string) (*JWTValidator, error) {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &JWTValidator{publicKey: pubKey, issuer: issuer, leeway: 30 * time.Second}, nil
}

// NewJWTValidatorFromFile reads the PEM from disk (mounted secret).
func NewJWTValidatorFromFile(path, issuer string) (*JWTValidator, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return NewJWTValidator(pem, issuer)
}

// Authenticate checks the signature, expiry and issuer, then builds the viewer.
func (v *JWTValidator) Authenticate(_ context.Context, tokenString string) (domain.ViewerContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}, opts...)
	if err != nil {
		return domain.Anonymous, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return domain.Anonymous, fmt.Errorf("%w: invalid token claims", domain.ErrUnauthenticated)
	}

	userID := claims.Subject
	if userID == "" {
		userID = claims.UserID
	}
	if userID == "" {
		return domain.Anonymous, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	return domain.ViewerContext{UserID: userID, Username: claims.Username}, nil
}
