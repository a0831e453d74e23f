package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PreviewClaims are the JWT claims for preview-signal channel tokens.
// A token is scoped to one session and one sandbox generation, so a
// document from a superseded generation cannot open a signal channel that
// the host would trust.
type PreviewClaims struct {
	jwt.RegisteredClaims
	SessionID  string `json:"session_id"`
	Generation int64  `json:"generation"`
}

// JWTIssuer creates preview-scoped JWTs.
type JWTIssuer struct {
	secret []byte
}

// NewJWTIssuer creates a new JWT issuer with the given shared secret.
func NewJWTIssuer(secret string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret)}
}

// IssuePreviewToken creates a token for one session's sandbox generation.
func (j *JWTIssuer) IssuePreviewToken(sessionID string, generation int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := PreviewClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "codecanvas",
		},
		SessionID:  sessionID,
		Generation: generation,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ValidatePreviewToken parses and validates a preview-scoped JWT.
func (j *JWTIssuer) ValidatePreviewToken(tokenStr string) (*PreviewClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &PreviewClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*PreviewClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
