package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuestName is used when the session carries no identity.
const GuestName = "Guest"

var ErrNoSecret = errors.New("auth: no session secret configured")

// IdentityService resolves the display name of the current user from session
// context. It never authenticates socket connections.
type IdentityService struct {
	secret []byte
}

func NewIdentityService(secret []byte) *IdentityService {
	return &IdentityService{secret: secret}
}

// DisplayName prefers the token's username claim, then fallback, then GuestName.
// An unusable token is reported alongside the fallback name.
func (s *IdentityService) DisplayName(token, fallback string) (string, error) {
	var tokenErr error
	if token != "" {
		name, err := s.Username(token)
		if err == nil && name != "" {
			return name, nil
		}
		tokenErr = err
	}

	if name := strings.TrimSpace(fallback); name != "" {
		return name, tokenErr
	}
	return GuestName, tokenErr
}

// Username validates an HS256 session token and returns its username claim.
func (s *IdentityService) Username(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	username, ok := claims["username"].(string)
	if !ok {
		return "", fmt.Errorf("invalid username in token")
	}
	return strings.TrimSpace(username), nil
}

func (s *IdentityService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// IssueToken signs a session token for username, valid for ttl.
func (s *IdentityService) IssueToken(username string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"username": username,
		"exp":      now.Add(ttl).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
