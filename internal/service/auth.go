package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/minishop/internal/events"
	pkghash "github.com/Skotchmaster/minishop/internal/hash"
	"github.com/Skotchmaster/minishop/internal/logging"
	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/internal/repo"
	"github.com/Skotchmaster/minishop/internal/tokens"
)

type AuthService struct {
	Repo       *repo.GormRepo
	Events     events.Publisher
	Secret     []byte
	SessionTTL time.Duration
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Principal is the authenticated identity bound to a request.
type Principal struct {
	UserID    uint
	Username  string
	SessionID string
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}

	pwHash, err := pkghash.HashPassword(password)
	if errors.Is(err, pkghash.ErrPasswordTooLong) {
		return nil, fmt.Errorf("password longer than %d bytes: %w", pkghash.MaxPasswordBytes, ErrValidation)
	}
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{Username: username, PasswordHash: pwHash}
	if err := s.Repo.CreateUserIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("username %q: %w", username, ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUser, user.ID, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})
	return &user, nil
}

// Login verifies the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("empty credentials: %w", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
		}
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
	}

	jti := tokens.NewJTI()
	exp := time.Now().Add(s.SessionTTL)
	token, err := tokens.SignSession(user.ID, jti, exp, s.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	if err := s.Repo.CreateSession(ctx, &models.Session{
		JTI:       jti,
		TokenHash: tokens.Sha256Hex(token),
		UserID:    user.ID,
		ExpiresAt: exp.Unix(),
	}); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	publish(ctx, s.Events, events.TopicUser, user.ID, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate resolves a session token to its live session and user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("missing session: %w", ErrUnauthorized)
	}

	claims, err := tokens.SessionClaimsFromToken(token, s.Secret)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %v: %w", err, ErrUnauthorized)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", ErrUnauthorized)
	}

	sess, err := s.Repo.FindSessionByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unknown session: %w", ErrUnauthorized)
		}
		return nil, err
	}
	switch {
	case sess.Revoked:
		return nil, fmt.Errorf("session revoked: %w", ErrUnauthorized)
	case sess.ExpiresAt < time.Now().Unix():
		return nil, fmt.Errorf("session expired: %w", ErrUnauthorized)
	case sess.UserID != userID || sess.TokenHash != tokens.Sha256Hex(token):
		return nil, fmt.Errorf("session mismatch: %w", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session user gone: %w", ErrUnauthorized)
		}
		return nil, err
	}

	return &Principal{UserID: user.ID, Username: user.Username, SessionID: sess.JTI}, nil
}

func (s *AuthService) Logout(ctx context.Context, p *Principal) error {
	ok, err := s.Repo.RevokeSession(ctx, p.SessionID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session already closed: %w", ErrUnauthorized)
	}

	publish(ctx, s.Events, events.TopicUser, p.UserID, map[string]any{
		"type":   "user_logged_out",
		"userID": p.UserID,
	})
	return nil
}

// PurgeSessions deletes expired and revoked sessions.
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredSessions(ctx, time.Now().Unix())
}
