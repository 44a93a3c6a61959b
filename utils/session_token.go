package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "BarOrdiniDevSecret"
	}
	JWTSecret = []byte(secret)
}

// SessionClaims binds a guest token to one table and one session identity.
// The session UID is the revocation anchor: a close or reset issues a new
// UID, so every previously minted token stops verifying immediately.
type SessionClaims struct {
	TableID    uint   `json:"table_id"`
	SessionUID string `json:"session_uid"`
	jwt.RegisteredClaims
}

func GenerateSessionToken(tableID uint, sessionUID string) (string, error) {
	claims := &SessionClaims{
		TableID:    tableID,
		SessionUID: sessionUID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "bar-ordini",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid session token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
