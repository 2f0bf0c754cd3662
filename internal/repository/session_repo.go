package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dinesight/internal/domain"
)

// SessionRepository provides DB access for user sessions. Rows are the
// source of truth; the cache tier in front of them is owned by the session
// store, not by this repository.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

// GetActiveByToken returns the active, unexpired session carrying the token.
func (r *SessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).
		Where("session_token = ? AND is_active = ? AND expires_at > ?", token, true, now).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Revoke deactivates the session holding the token. Revoking an unknown or
// already revoked token is a no-op.
func (r *SessionRepository) Revoke(ctx context.Context, token string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("session_token = ? AND is_active = ?", token, true).
		Updates(map[string]any{"is_active": false, "revoked_at": now}).Error
}

func (r *SessionRepository) RevokeAllByUser(ctx context.Context, userID string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{"is_active": false, "revoked_at": now}).Error
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR is_active = ?", now, false).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
