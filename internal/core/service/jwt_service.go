package service

import (
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
	"github.com/storefront/commerce-core/internal/pkg/config"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type sessionClaims struct {
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	IsPrivileged bool   `json:"is_privileged"`
	Type         string `json:"typ"`
	jwt.RegisteredClaims
}

// JwtService issues and verifies HS256 bearer tokens. Access and refresh
// tokens use independent secrets and carry their kind in the typ claim.
type JwtService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewJwtService(cfg config.TokenConfig) *JwtService {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTokenTTL
	}
	return &JwtService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (s *JwtService) GenerateAccessToken(payload domain.SessionPayload) (string, error) {
	return s.sign(payload, tokenTypeAccess, s.accessSecret, s.accessTTL)
}

// GenerateRefreshToken signs a refresh token. When expiresAt is set the
// lifetime is the whole number of seconds left until that instant, otherwise
// the configured refresh TTL.
func (s *JwtService) GenerateRefreshToken(payload domain.SessionPayload, expiresAt *time.Time) (string, error) {
	ttl := s.refreshTTL
	if expiresAt != nil {
		seconds := math.Floor(expiresAt.Sub(s.now()).Seconds())
		ttl = time.Duration(seconds) * time.Second
	}
	return s.sign(payload, tokenTypeRefresh, s.refreshSecret, ttl)
}

func (s *JwtService) VerifyAccessToken(token string) (*ports.VerifiedToken, bool) {
	return s.verify(token, tokenTypeAccess, s.accessSecret)
}

func (s *JwtService) VerifyRefreshToken(token string) (*ports.VerifiedToken, bool) {
	return s.verify(token, tokenTypeRefresh, s.refreshSecret)
}

func (s *JwtService) sign(payload domain.SessionPayload, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID:       payload.UserID,
		SessionID:    payload.SessionID,
		IsPrivileged: payload.IsPrivileged,
		Type:         typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verify swallows every failure into ok=false.
func (s *JwtService) verify(token, typ string, secret []byte) (*ports.VerifiedToken, bool) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Type != typ {
		return nil, false
	}

	verified := &ports.VerifiedToken{
		SessionPayload: domain.SessionPayload{
			UserID:       claims.UserID,
			SessionID:    claims.SessionID,
			IsPrivileged: claims.IsPrivileged,
		},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}
	return verified, true
}
