package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"dinesight/internal/domain"
	"dinesight/internal/pkg/password"
	"dinesight/internal/session"
)

// Service contains the business logic for registration, login, token
// refresh and session lifecycle. Storage and token signing are injected.
type Service struct {
	users      UserRepositoryInterface
	sessions   SessionStoreInterface
	jwt        tokenService
	refreshTTL time.Duration
}

func NewService(
	users UserRepositoryInterface,
	sessions SessionStoreInterface,
	jwt tokenService,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		refreshTTL: refreshTTL,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest, meta session.Metadata) (*Result, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	role := domain.RoleUser
	if req.Role != "" && domain.Role(req.Role).Valid() {
		role = domain.Role(req.Role)
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: password.Hash(req.Password),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Status:       domain.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issueCredentials(ctx, user, meta)
	if err != nil {
		// The account row is committed and the password works, so the user
		// can still authenticate through login.
		log.Error().Err(err).Str("user_id", user.ID).Msg("register: credential issuance failed after user creation")
		return nil, err
	}
	return result, nil
}

// Login verifies the credentials and opens an additional session. Unknown
// email, disabled account and wrong password are indistinguishable to the
// caller. Existing sessions are untouched.
func (s *Service) Login(ctx context.Context, req LoginRequest, meta session.Metadata) (*Result, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive() {
		return nil, ErrInvalidCredentials
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// non-fatal
		log.Warn().Err(err).Str("user_id", user.ID).Msg("login: failed to update last_login_at")
	}
	user.LastLoginAt = &now

	return s.issueCredentials(ctx, user, meta)
}

// Refresh redeems a refresh token for a fresh credential set. The old token
// is revoked before the replacement is stored, so presenting it a second
// time fails.
func (s *Service) Refresh(ctx context.Context, rawToken string, meta session.Metadata) (*Result, error) {
	if _, err := s.jwt.ParseRefreshToken(rawToken); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	oldHash := password.HashToken(rawToken)
	record, err := s.sessions.ValidateRefreshToken(ctx, oldHash)
	if err != nil {
		if errors.Is(err, session.ErrRefreshTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to validate refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive() {
		return nil, ErrInvalidRefreshToken
	}

	newRefresh, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	next := &domain.RefreshToken{
		UserID:     user.ID,
		TokenHash:  password.HashToken(newRefresh),
		DeviceInfo: meta.DeviceInfo,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		IsActive:   true,
		ExpiresAt:  time.Now().Add(s.refreshTTL),
	}

	if err := s.sessions.RotateRefreshToken(ctx, oldHash, next); err != nil {
		if errors.Is(err, session.ErrRefreshTokenNotFound) {
			// lost a rotation race: someone redeemed the token first
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	sessionToken, err := s.sessions.Create(ctx, user, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Result{
		User:         publicUser(user),
		Tokens:       TokenPair{AccessToken: accessToken, RefreshToken: newRefresh},
		SessionToken: sessionToken,
	}, nil
}

// Logout revokes the presented session and, when supplied, the refresh
// token. Both operations are idempotent.
func (s *Service) Logout(ctx context.Context, sessionToken, rawRefreshToken string) error {
	if sessionToken != "" {
		if err := s.sessions.Revoke(ctx, sessionToken); err != nil {
			return fmt.Errorf("failed to revoke session: %w", err)
		}
	}
	if rawRefreshToken != "" {
		if err := s.sessions.RevokeRefreshToken(ctx, password.HashToken(rawRefreshToken)); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	return nil
}

// LogoutAll kills every session and refresh token of the user.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if err := s.sessions.RevokeAllRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	sessions, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, SessionInfo{
			ID:         sess.ID,
			IPAddress:  sess.IPAddress,
			UserAgent:  sess.UserAgent,
			DeviceInfo: sess.DeviceInfo,
			CreatedAt:  sess.CreatedAt.Format(time.RFC3339),
			ExpiresAt:  sess.ExpiresAt.Format(time.RFC3339),
		})
	}
	return infos, nil
}

// issueCredentials mints the token pair, persists the refresh-token hash and
// opens a session.
func (s *Service) issueCredentials(ctx context.Context, user *domain.User, meta session.Metadata) (*Result, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.sessions.StoreRefreshToken(ctx, &domain.RefreshToken{
		UserID:     user.ID,
		TokenHash:  password.HashToken(refreshToken),
		DeviceInfo: meta.DeviceInfo,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		IsActive:   true,
		ExpiresAt:  time.Now().Add(s.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	sessionToken, err := s.sessions.Create(ctx, user, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Result{
		User:         publicUser(user),
		Tokens:       TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
		SessionToken: sessionToken,
	}, nil
}

// publicUser copies the record with the password hash stripped.
func publicUser(u *domain.User) *domain.User {
	pub := *u
	pub.PasswordHash = ""
	return &pub
}
