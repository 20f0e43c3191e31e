package external

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// loginClaims is the expected shape of the login collaborator's JWT,
// parsed via golang-jwt/v5's RegisteredClaims embedding.
type loginClaims struct {
	jwt.RegisteredClaims
	AccountID int64  `json:"account_id"`
	SessionID string `json:"session_id"`
}

// HMACJWTVerifier verifies login JWTs signed with a shared HMAC secret
// (golang-jwt/v5, pack-sourced from annel0-mmo-game's go.mod).
type HMACJWTVerifier struct {
	secret []byte
}

func NewHMACJWTVerifier(secret []byte) *HMACJWTVerifier {
	return &HMACJWTVerifier{secret: secret}
}

func (v *HMACJWTVerifier) Verify(tokenString string) (Claims, error) {
	var claims loginClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("verify jwt: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("invalid jwt")
	}

	var issuedAt, expiresAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return Claims{
		AccountID: claims.AccountID,
		SessionID: claims.SessionID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
