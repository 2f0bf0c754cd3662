package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Claims is the signed claim set for both token kinds. TokenType keeps access
// and refresh tokens non-interchangeable; Email and Role are only present on
// access tokens.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	jwtlib.RegisteredClaims
}

func New(secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *Service) GenerateAccessToken(userID, email, role string) (string, error) {
	return s.generate(&Claims{
		Email:     email,
		Role:      role,
		TokenType: typeAccess,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	})
}

func (s *Service) GenerateRefreshToken(userID string) (string, error) {
	return s.generate(&Claims{
		TokenType: typeRefresh,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(s.refreshTTL)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	})
}

func (s *Service) generate(claims *Claims) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseAccessToken verifies signature and expiry of an access token. Every
// failure mode, malformed input included, collapses to ErrInvalidToken so
// callers treat the bearer as unauthenticated rather than erroring out.
func (s *Service) ParseAccessToken(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, typeAccess)
}

// ParseRefreshToken verifies a refresh token. An access token presented here
// fails, and vice versa.
func (s *Service) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, typeRefresh)
}

func (s *Service) parse(tokenStr, wantType string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenType != wantType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
