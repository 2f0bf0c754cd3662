package auth

import (
	"context"
	"time"

	"dinesight/internal/domain"
	"dinesight/internal/pkg/jwt"
	"dinesight/internal/session"
)

// UserRepositoryInterface — only the methods the auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionStoreInterface is the dual-tier session/refresh-token store.
type SessionStoreInterface interface {
	Create(ctx context.Context, user *domain.User, meta session.Metadata) (string, error)
	Get(ctx context.Context, token string) (*session.Data, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) error
	ListActive(ctx context.Context, userID string) ([]domain.Session, error)

	StoreRefreshToken(ctx context.Context, t *domain.RefreshToken) error
	ValidateRefreshToken(ctx context.Context, hash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
	RotateRefreshToken(ctx context.Context, oldHash string, next *domain.RefreshToken) error
}

type tokenService interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	ParseRefreshToken(tokenStr string) (*jwt.Claims, error)
}
