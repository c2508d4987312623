package ports

import (
	"time"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// TokenService signs and verifies access and refresh tokens.
// Verify* report ok=false for any failure and never say why.
type TokenService interface {
	GenerateAccessToken(payload domain.SessionPayload) (string, error)
	GenerateRefreshToken(payload domain.SessionPayload, expiresAt *time.Time) (string, error)
	VerifyAccessToken(token string) (*VerifiedToken, bool)
	VerifyRefreshToken(token string) (*VerifiedToken, bool)
}

// VerifiedToken is the decoded content of a valid token.
type VerifiedToken struct {
	domain.SessionPayload
	IssuedAt  time.Time
	ExpiresAt time.Time
}
