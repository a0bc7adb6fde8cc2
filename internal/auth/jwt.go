package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "wanderlust-session"

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a cookie value for sessionID that expires with the session.
func GenerateSessionToken(sessionID string, expiresAt time.Time, secretKey string) (string, error) {
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    sessionIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken verifies a cookie value and returns its claims.
func ValidateSessionToken(tokenString string, secretKey string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithIssuer(sessionIssuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	if !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid session token")
	}

	return claims, nil
}
