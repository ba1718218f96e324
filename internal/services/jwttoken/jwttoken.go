package jwttoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type claims struct {
	jwt.RegisteredClaims
	UserID string
}

type Manager struct {
	secretKey []byte
	tokenExp  time.Duration
}

func NewManager(secretKey string, tokenExp time.Duration) *Manager {
	return &Manager{
		secretKey: []byte(secretKey),
		tokenExp:  tokenExp,
	}
}

func (m *Manager) Parse(accessToken string) (string, error) {
	claims := &claims{}

	token, err := jwt.ParseWithClaims(
		accessToken,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.secretKey, nil
		},
	)

	if err != nil {
		return "", err
	}

	if !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("token is not valid")
	}

	return claims.UserID, nil
}

func (m *Manager) Generate(userID string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenExp)),
		},
		UserID: userID,
	})

	accessToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}
