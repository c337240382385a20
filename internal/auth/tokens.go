package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies bearer tokens carrying the user id.
type TokenService struct {
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
}

// NewTokenService constructs a TokenService. rememberTTL is used for
// "remember me" logins.
func NewTokenService(secret string, ttl, rememberTTL time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, rememberTTL: rememberTTL}
}

// Sign issues a token for the user.
func (s *TokenService) Sign(userID int, remember bool) (string, error) {
	ttl := s.ttl
	if remember {
		ttl = s.rememberTTL
	}

	claims := jwt.MapClaims{
		"id":  userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the token signature and expiry and returns the user id.
func (s *TokenService) Verify(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, ok := claims["id"].(float64)
	if !ok || id == 0 {
		return 0, ErrInvalidToken
	}
	return int(id), nil
}
