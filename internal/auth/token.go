package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "nile-dose-cafe"

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenManager(secret string, ttl time.Duration, clk clock.Clock) *TokenManager {
	if clk == nil {
		clk = clock.Real{}
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: clk}
}

func (m *TokenManager) Issue(userID, role string) (string, error) {
	now := m.clock.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Parse(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: token expired", apperr.ErrUnauthorized)
		}
		return Claims{}, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
	}
	return claims, nil
}
