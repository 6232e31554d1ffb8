// Package auth issues and validates the two kinds of JWT the service uses:
// anonymous shopper session tokens carried in a cookie, and admin bearer tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/infrastructure/config"
)

// TokenType represents the type of JWT token
type TokenType string

const (
	TokenTypeSession TokenType = "session"
	TokenTypeAdmin   TokenType = "admin"
)

// RoleAdmin is the only role accepted on admin routes
const RoleAdmin = "admin"

// Common errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrExpiredToken      = errors.New("token has expired")
	ErrInvalidTokenType  = errors.New("invalid token type")
	ErrInvalidClaims     = errors.New("invalid token claims")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrMissingSessionID  = errors.New("missing session_id in claims")
	ErrInsufficientRole  = errors.New("token does not carry the admin role")
	ErrMissingJWTSecret  = errors.New("jwt secret is not configured")
	ErrMissingAdminLabel = errors.New("admin subject is required")
)

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	SessionID string    `json:"session_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"token_type"`
}

// IssuedToken is a signed token with its expiry
type IssuedToken struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// JWTService handles JWT token operations
type JWTService struct {
	secret            []byte
	sessionExpiration time.Duration
	adminExpiration   time.Duration
	issuer            string
	now               func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:            []byte(cfg.Secret),
		sessionExpiration: cfg.SessionExpiration,
		adminExpiration:   cfg.AdminExpiration,
		issuer:            cfg.Issuer,
		now:               time.Now,
	}
}

// GenerateSessionToken starts a new anonymous shopper session
func (s *JWTService) GenerateSessionToken() (*IssuedToken, error) {
	sessionID := uuid.NewString()
	claims := s.baseClaims(sessionID, s.sessionExpiration)
	claims.SessionID = sessionID
	claims.TokenType = TokenTypeSession

	token, err := s.sign(claims)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, SessionID: sessionID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// GenerateAdminToken mints an admin bearer token for subject. A zero ttl uses the configured expiry.
func (s *JWTService) GenerateAdminToken(subject string, ttl time.Duration) (*IssuedToken, error) {
	if subject == "" {
		return nil, ErrMissingAdminLabel
	}
	if ttl <= 0 {
		ttl = s.adminExpiration
	}
	claims := s.baseClaims(subject, ttl)
	claims.Role = RoleAdmin
	claims.TokenType = TokenTypeAdmin

	token, err := s.sign(claims)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *JWTService) baseClaims(subject string, ttl time.Duration) *Claims {
	now := s.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func (s *JWTService) sign(claims *Claims) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingJWTSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateSessionToken validates a session cookie value
func (s *JWTService) ValidateSessionToken(tokenString string) (*Claims, error) {
	claims, err := s.validateToken(tokenString, TokenTypeSession)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrMissingSessionID
	}
	return claims, nil
}

// ValidateAdminToken validates an admin bearer token
func (s *JWTService) ValidateAdminToken(tokenString string) (*Claims, error) {
	claims, err := s.validateToken(tokenString, TokenTypeAdmin)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, ErrInsufficientRole
	}
	return claims, nil
}

func (s *JWTService) validateToken(tokenString string, expectedType TokenType) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingJWTSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != expectedType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// SessionExpiration returns the session token lifetime
func (s *JWTService) SessionExpiration() time.Duration {
	return s.sessionExpiration
}
