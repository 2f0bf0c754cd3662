package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dinesight/internal/domain"
)

// RefreshTokenRepository provides DB access for refresh-token records.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *RefreshTokenRepository) WithTx(tx *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

// GetActiveByHash returns the active, unexpired record for the token hash.
// At most one such record exists per hash.
func (r *RefreshTokenRepository) GetActiveByHash(ctx context.Context, hash string, now time.Time) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND is_active = ? AND expires_at > ?", hash, true, now).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetActiveByHashForUpdate locks the row for the duration of the enclosing
// transaction, serializing concurrent redemptions of the same token.
func (r *RefreshTokenRepository) GetActiveByHashForUpdate(ctx context.Context, hash string, now time.Time) (*domain.RefreshToken, error) {
	q := r.db.WithContext(ctx)
	// sqlite has no FOR UPDATE; its single-writer model covers dev and tests
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var t domain.RefreshToken
	err := q.
		Where("token_hash = ? AND is_active = ? AND expires_at > ?", hash, true, now).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, hash string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("token_hash = ? AND is_active = ?", hash, true).
		Updates(map[string]any{"is_active": false, "revoked_at": now}).Error
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{"is_active": false, "revoked_at": now}).Error
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR is_active = ?", now, false).
		Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
