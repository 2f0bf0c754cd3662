package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"dinesight/internal/cache"
	"dinesight/internal/database"
	"dinesight/internal/domain"
	"dinesight/internal/pkg/password"
	"dinesight/internal/repository"
)

type storeFixture struct {
	db    *gorm.DB
	cache *cache.MemoryStore
	store *Store
	users *repository.UserRepository
}

func newFixture(t *testing.T, sessionTTL time.Duration) *storeFixture {
	t.Helper()

	// a named in-memory database keeps the whole connection pool on one DB
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	memCache := newTestCache(t)
	users := repository.NewUserRepository(db)
	store := NewStore(
		repository.NewSessionRepository(db),
		repository.NewRefreshTokenRepository(db),
		users,
		memCache,
		sessionTTL,
	)

	return &storeFixture{db: db, cache: memCache, store: store, users: users}
}

func newTestCache(t *testing.T) *cache.MemoryStore {
	t.Helper()
	c := cache.NewMemoryStore()
	t.Cleanup(c.Close)
	return c
}

func (f *storeFixture) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:        email,
		PasswordHash: password.Hash("secret123"),
		FirstName:    "Alice",
		LastName:     "Doe",
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestStore_CreateAndGet(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	token, err := f.store.Create(ctx, user, Metadata{IPAddress: "10.0.0.1", UserAgent: "cli"})
	require.NoError(t, err)
	assert.Len(t, token, 64)

	data, err := f.store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, data.UserID)
	assert.Equal(t, "alice@example.com", data.Email)
	assert.Equal(t, "user", data.Role)
	assert.Equal(t, "10.0.0.1", data.IPAddress)
}

func TestStore_GetServedFromCache(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	token, err := f.store.Create(ctx, user, Metadata{})
	require.NoError(t, err)

	// remove the durable row; a hit proves the cache served the lookup
	require.NoError(t, f.db.Where("session_token = ?", token).Delete(&domain.Session{}).Error)

	data, err := f.store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, data.UserID)
}

func TestStore_GetFallsBackAndRepopulates(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	token, err := f.store.Create(ctx, user, Metadata{DeviceInfo: "iphone"})
	require.NoError(t, err)

	// simulate cache eviction
	require.NoError(t, f.cache.Delete(ctx, "session:"+token))

	data, err := f.store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "iphone", data.DeviceInfo)

	// the fallback must have repopulated the cache: drop the row and re-read
	require.NoError(t, f.db.Where("session_token = ?", token).Delete(&domain.Session{}).Error)

	data, err = f.store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, data.UserID)
}

func TestStore_GetUnknownToken(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)

	_, err := f.store.Get(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ExpiredSessionNotReturned(t *testing.T) {
	f := newFixture(t, -time.Minute)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	token, err := f.store.Create(ctx, user, Metadata{})
	require.NoError(t, err)

	_, err = f.store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RevokeIdempotent(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	token, err := f.store.Create(ctx, user, Metadata{})
	require.NoError(t, err)

	require.NoError(t, f.store.Revoke(ctx, token))
	require.NoError(t, f.store.Revoke(ctx, token))
	require.NoError(t, f.store.Revoke(ctx, "never-existed"))

	_, err = f.store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RevokedSessionIsTerminal(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	token, err := f.store.Create(ctx, user, Metadata{})
	require.NoError(t, err)
	require.NoError(t, f.store.Revoke(ctx, token))

	var sess domain.Session
	require.NoError(t, f.db.Where("session_token = ?", token).First(&sess).Error)
	assert.False(t, sess.IsActive)
	assert.NotNil(t, sess.RevokedAt)
}

func TestStore_RevokeAll(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")
	other := f.createUser(t, "bob@example.com")

	var tokens []string
	for i := 0; i < 3; i++ {
		token, err := f.store.Create(ctx, user, Metadata{})
		require.NoError(t, err)
		tokens = append(tokens, token)
	}
	otherToken, err := f.store.Create(ctx, other, Metadata{})
	require.NoError(t, err)

	require.NoError(t, f.store.RevokeAll(ctx, user.ID))

	for _, token := range tokens {
		_, err := f.store.Get(ctx, token)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	// unrelated users keep their sessions
	_, err = f.store.Get(ctx, otherToken)
	assert.NoError(t, err)
}

func TestStore_RefreshTokenLifecycle(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	hash := password.HashToken("raw-refresh-token")
	require.NoError(t, f.store.StoreRefreshToken(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		IsActive:  true,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}))

	rec, err := f.store.ValidateRefreshToken(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, user.ID, rec.UserID)

	require.NoError(t, f.store.RevokeRefreshToken(ctx, hash))

	_, err = f.store.ValidateRefreshToken(ctx, hash)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestStore_ValidateExpiredRefreshToken(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	hash := password.HashToken("stale")
	require.NoError(t, f.store.StoreRefreshToken(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		IsActive:  true,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := f.store.ValidateRefreshToken(ctx, hash)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestStore_RotateRefreshToken(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	ctx := context.Background()
	user := f.createUser(t, "alice@example.com")

	oldHash := password.HashToken("old-token")
	require.NoError(t, f.store.StoreRefreshToken(ctx, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: oldHash,
		IsActive:  true,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}))

	newHash := password.HashToken("new-token")
	next := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: newHash,
		IsActive:  true,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, f.store.RotateRefreshToken(ctx, oldHash, next))

	_, err := f.store.ValidateRefreshToken(ctx, oldHash)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound, "redeemed token must be dead")

	_, err = f.store.ValidateRefreshToken(ctx, newHash)
	assert.NoError(t, err)

	// replaying the old token fails: the loser of a rotation race sees this
	err = f.store.RotateRefreshToken(ctx, oldHash, &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken("another"),
		IsActive:  true,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}
