package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dinesight/internal/cache"
	"dinesight/internal/domain"
	"dinesight/internal/repository"
)

var (
	ErrNotFound             = errors.New("session not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// Data is the denormalized session view kept in the cache tier under
// "session:<token>". It carries everything the hot validation path needs so
// a cache hit never touches the database.
type Data struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
	IPAddress  string `json:"ipAddress,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// Metadata describes the device/browser behind a login or refresh.
type Metadata struct {
	IPAddress  string
	UserAgent  string
	DeviceInfo string
}

// Store tracks live sessions and refresh tokens across two tiers: the
// database rows are authoritative, the cache is a read-through front for the
// hot "is this bearer token valid" path. No other component reads or writes
// either tier directly.
type Store struct {
	sessions   *repository.SessionRepository
	tokens     *repository.RefreshTokenRepository
	users      *repository.UserRepository
	cache      cache.Store
	sessionTTL time.Duration
}

func NewStore(
	sessions *repository.SessionRepository,
	tokens *repository.RefreshTokenRepository,
	users *repository.UserRepository,
	cacheStore cache.Store,
	sessionTTL time.Duration,
) *Store {
	return &Store{
		sessions:   sessions,
		tokens:     tokens,
		users:      users,
		cache:      cacheStore,
		sessionTTL: sessionTTL,
	}
}

func cacheKey(token string) string {
	return "session:" + token
}

// Create opens a new session for the user and returns the opaque bearer
// token. The session id and the token are two independent random values; the
// id stays internal.
func (s *Store) Create(ctx context.Context, user *domain.User, meta Metadata) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now()
	sess := &domain.Session{
		UserID:       user.ID,
		SessionToken: token,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		DeviceInfo:   meta.DeviceInfo,
		IsActive:     true,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	s.writeCache(ctx, sess, user)

	return token, nil
}

// Get resolves a session token to its cached view. Cache first; on a miss
// the durable row (active, unexpired, joined with its user) is loaded and
// the cache repopulated. ErrNotFound means unauthenticated, not failure.
func (s *Store) Get(ctx context.Context, token string) (*Data, error) {
	if raw, err := s.cache.Get(ctx, cacheKey(token)); err == nil {
		var data Data
		if err := json.Unmarshal(raw, &data); err == nil {
			return &data, nil
		}
		log.Warn().Str("key", "session").Msg("dropping undecodable cache entry")
		_ = s.cache.Delete(ctx, cacheKey(token))
	} else if !errors.Is(err, cache.ErrNotFound) {
		log.Warn().Err(err).Msg("session cache read failed, falling back to database")
	}

	sess, err := s.sessions.GetActiveByToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	s.writeCache(ctx, sess, user)

	return &Data{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		DeviceInfo: sess.DeviceInfo,
		IPAddress:  sess.IPAddress,
		UserAgent:  sess.UserAgent,
	}, nil
}

// Revoke deactivates the session and clears its cache entry. Idempotent.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, cacheKey(token)); err != nil {
		log.Warn().Err(err).Msg("failed to evict session from cache")
	}
	return s.sessions.Revoke(ctx, token, time.Now())
}

// RevokeAll logs the user out everywhere: every active session is evicted
// from the cache and the rows are bulk-deactivated.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	now := time.Now()

	active, err := s.sessions.ListActiveByUser(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}
	for _, sess := range active {
		if err := s.cache.Delete(ctx, cacheKey(sess.SessionToken)); err != nil {
			log.Warn().Err(err).Msg("failed to evict session from cache")
		}
	}

	return s.sessions.RevokeAllByUser(ctx, userID, now)
}

// ListActive returns the user's live sessions, newest first.
func (s *Store) ListActive(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.ListActiveByUser(ctx, userID, time.Now())
}

// StoreRefreshToken persists a refresh-token record. The caller supplies the
// hash; raw values never reach this layer.
func (s *Store) StoreRefreshToken(ctx context.Context, t *domain.RefreshToken) error {
	return s.tokens.Create(ctx, t)
}

// ValidateRefreshToken looks up the active, unexpired record for the hash.
func (s *Store) ValidateRefreshToken(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	t, err := s.tokens.GetActiveByHash(ctx, hash, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	return t, nil
}

// RevokeRefreshToken deactivates the record for the hash. Idempotent.
func (s *Store) RevokeRefreshToken(ctx context.Context, hash string) error {
	return s.tokens.Revoke(ctx, hash, time.Now())
}

// RevokeAllRefreshTokens deactivates every live refresh token of the user.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	return s.tokens.RevokeAllByUser(ctx, userID, time.Now())
}

// RotateRefreshToken atomically redeems oldHash and installs next: the old
// row is locked, checked and revoked before the replacement is written, so
// two concurrent redemptions of the same token cannot both win.
func (s *Store) RotateRefreshToken(ctx context.Context, oldHash string, next *domain.RefreshToken) error {
	now := time.Now()

	err := s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txTokens := s.tokens.WithTx(tx)

		current, err := txTokens.GetActiveByHashForUpdate(ctx, oldHash, now)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRefreshTokenNotFound
			}
			return err
		}

		if err := txTokens.Revoke(ctx, current.TokenHash, now); err != nil {
			return err
		}
		return txTokens.Create(ctx, next)
	})
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return err
		}
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return nil
}

// writeCache stores the denormalized view with the session's remaining
// lifetime as TTL. Cache failures are logged, not fatal: the durable rows
// stay authoritative and the read path falls back to them.
func (s *Store) writeCache(ctx context.Context, sess *domain.Session, user *domain.User) {
	data := Data{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		DeviceInfo: sess.DeviceInfo,
		IPAddress:  sess.IPAddress,
		UserAgent:  sess.UserAgent,
	}

	raw, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal session cache entry")
		return
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(sess.SessionToken), raw, ttl); err != nil {
		log.Warn().Err(err).Msg("failed to write session cache entry")
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
