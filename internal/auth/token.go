package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tickethub/internal/models"
)

// Claims carried by the service-issued token. The CPF claim lets the ticket
// service enforce the identity-match invariant without a user lookup per
// request.
type Claims struct {
	CPF  string `json:"cpf"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HMAC token for the user.
func IssueToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := Claims{
		CPF:  user.CPF,
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies the signature and expiry and rebuilds the Principal.
func ParseToken(tokenString, secret string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return Principal{}, errors.New("invalid token claims")
	}

	return Principal{
		UserID: claims.Subject,
		CPF:    claims.CPF,
		Role:   models.Role(claims.Role),
	}, nil
}
