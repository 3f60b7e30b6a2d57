package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token type claim values. An access token must never be accepted where a
// refresh token is required, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// minSecretLength is the minimum HMAC key size in bytes.
const minSecretLength = 32

// ErrInvalidToken covers every externally visible token failure: bad
// signature, malformed input, wrong type or expiry. Callers must not be
// able to tell these apart; the wrapped cause stays available for logging.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the fixed claim set carried by every token. Subject holds the
// user's email. Decoding maps the payload onto this struct; claims outside
// it are ignored rather than rejected (jwt/v5 offers no strict-field
// decoding). A token missing the type claim fails the type check, so a
// payload of the wrong shape cannot pass validation.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Expired reports whether the claim set's validity window [iat, exp) has
// passed. Claims without an expiry are treated as expired.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}

// JWTService signs and verifies the compact bearer tokens issued by the
// auth flows. It is a pure function over the configured secret key; no
// token is ever stored server-side.
type JWTService interface {
	GenerateAccessToken(user *models.User) (string, error)
	GenerateRefreshToken(user *models.User) (string, error)
	ParseToken(tokenString string) (*Claims, error)
	IsTokenExpired(tokenString string) bool
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
	GetAccessExpiry() time.Duration
	GetRefreshExpiry() time.Duration
}

type jwtService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewJWTService creates a new JWTService instance. The secret must be at
// least 32 bytes to be usable as an HMAC-SHA256 key.
func NewJWTService(secret string, accessExpiry, refreshExpiry time.Duration) (JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	return &jwtService{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}, nil
}

func (s *jwtService) GenerateAccessToken(user *models.User) (string, error) {
	return s.generateToken(user, TokenTypeAccess, s.accessExpiry)
}

func (s *jwtService) GenerateRefreshToken(user *models.User) (string, error) {
	return s.generateToken(user, TokenTypeRefresh, s.refreshExpiry)
}

func (s *jwtService) generateToken(user *models.User, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies the signature over the full payload and decodes the
// claim set. Signature verification always happens before any claim is
// trusted. Expiry is deliberately not checked here: a correctly signed but
// stale token is a different condition from a forged one, and the two are
// reported separately by IsTokenExpired and the Validate methods.
func (s *jwtService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsTokenExpired reports whether the token is past its expiry. Tokens that
// cannot be parsed are treated as expired.
func (s *jwtService) IsTokenExpired(tokenString string) bool {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return true
	}
	return claims.Expired(time.Now())
}

// ValidateAccessToken checks signature, token type and expiry for an
// access token.
func (s *jwtService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validateToken(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken checks signature, token type and expiry for a
// refresh token.
func (s *jwtService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validateToken(tokenString, TokenTypeRefresh)
}

func (s *jwtService) validateToken(tokenString, tokenType string) (*Claims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
	}
	if claims.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}
	return claims, nil
}

func (s *jwtService) GetAccessExpiry() time.Duration {
	return s.accessExpiry
}

func (s *jwtService) GetRefreshExpiry() time.Duration {
	return s.refreshExpiry
}
