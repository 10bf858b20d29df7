package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mindburn-Labs/warden/pkg/auth"
)

const (
	tokenIssuer   = "warden/identity"
	tokenAudience = "warden.internal"
)

// Claims extends standard JWT claims with warden role assignments.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// TokenManager handles token generation and validation.
type TokenManager struct {
	keySet KeySet
}

func NewTokenManager(ks KeySet) *TokenManager {
	return &TokenManager{keySet: ks}
}

// GenerateToken creates a signed JWT for the given subject and roles.
func (tm *TokenManager) GenerateToken(subject string, roles []string, duration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        subject,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
		},
		Roles: roles,
	}
	return tm.keySet.Sign(context.Background(), claims)
}

// ValidateToken parses and validates a JWT string.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, tm.keySet.KeyFunc(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenSignatureInvalid
}

// PrincipalFromToken validates a token and materializes the caller principal
// used by the engines for privileged operations.
func (tm *TokenManager) PrincipalFromToken(tokenString string) (auth.Principal, error) {
	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	return &auth.BasePrincipal{
		PrincipalID:    claims.Subject,
		PrincipalRoles: claims.Roles,
	}, nil
}
