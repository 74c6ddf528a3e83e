package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/internal/repository"
	"github.com/lineaetica/etica-backend/pkg/database"
	"github.com/lineaetica/etica-backend/pkg/jwt"
	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
	"github.com/lineaetica/etica-backend/pkg/session"
	"golang.org/x/crypto/bcrypt"
)

// AuthService dashboard authentication business logic
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*domain.SessionUser, error)
	Logout(ctx context.Context, token string) error
}

// LoginResult is returned on successful login
type LoginResult struct {
	User      *domain.SessionUser
	Token     string
	ExpiresAt time.Time
}

type authService struct {
	userRepo   repository.UserRepository
	sessions   session.Store
	jwtManager *jwt.Manager
	now        func() time.Time
}

// dummyHash keeps the cost of a failed lookup close to a wrong password
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("etica-dummy-password"), bcrypt.DefaultCost)

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, sessions session.Store, jwtManager *jwt.Manager) AuthService {
	return &authService{
		userRepo:   userRepo,
		sessions:   sessions,
		jwtManager: jwtManager,
		now:        time.Now,
	}
}

// Login checks credentials and opens a session. Missing user, inactive user
// and wrong password all return ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	// 1. Find active user
	user, err := s.userRepo.FindActiveByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			if database.IsConnectionError(err) {
				return nil, fmt.Errorf("login: %w", common.ErrStoreUnavailable)
			}
			return nil, fmt.Errorf("login: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, common.ErrInvalidCredentials
	}

	// 2. Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()

	// 3. Stamp last access
	if err := s.userRepo.UpdateLastAccess(ctx, user.ID, now); err != nil {
		pkglogger.Warn("update last access for user %d: %v", user.ID, err)
	}

	// 4. Open session
	sess := session.New(user.ID, user.Email, user.Name, user.Role, s.jwtManager.TTL(), now)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := s.jwtManager.GenerateSessionToken(sess.ID, now)
	if err != nil {
		_ = s.sessions.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	pkglogger.Info("admin login: %s", user.Email)
	return &LoginResult{
		User:      user.ToSessionUser(),
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Authenticate resolves a session cookie to its user
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.SessionUser, error) {
	if token == "" {
		return nil, common.ErrUnauthorized
	}

	claims, err := s.jwtManager.VerifySessionToken(token)
	if err != nil {
		return nil, common.ErrUnauthorized
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			pkglogger.Warn("session lookup failed: %v", err)
		}
		return nil, common.ErrUnauthorized
	}

	return &domain.SessionUser{
		ID:    sess.UserID,
		Email: sess.Email,
		Name:  sess.Name,
		Role:  sess.Role,
	}, nil
}

// Logout destroys the session named by token; an invalid token is a no-op
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.jwtManager.VerifySessionToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
