package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driving"
	"github.com/noteforge-labs/noteforge-cli/internal/logger"
)

// Ensure Auth implements the interface.
var _ driving.AuthService = (*Auth)(nil)

// SessionTTL is how long an issued token stays valid.
const SessionTTL = 24 * time.Hour

// bcrypt rejects inputs over 72 bytes; longer passwords are truncated,
// matching the registration behaviour so logins keep working.
const bcryptMaxLen = 72

// Auth manages accounts and signed session tokens.
type Auth struct {
	users    driven.UserStore
	sessions driven.SessionStore
	events   driven.EventLog
	secret   []byte
}

// NewAuth creates the auth service. secret signs session tokens and
// must be non-empty.
func NewAuth(users driven.UserStore, sessions driven.SessionStore, events driven.EventLog, secret []byte) (*Auth, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty signing secret", domain.ErrInvalidInput)
	}
	return &Auth{
		users:    users,
		sessions: sessions,
		events:   events,
		secret:   secret,
	}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (a *Auth) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword(truncateSecret(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		QuotaPlan:    domain.DefaultQuotaPlan,
		IsActive:     true,
	}
	if err := a.users.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	a.audit(ctx, username, "user_registered", "")
	return &user, nil
}

// Login verifies credentials, stamps last_login, and issues a signed
// HS256 token persisted as a session row.
func (a *Auth) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrAuthInvalid
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return "", domain.ErrUserDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), truncateSecret(password)); err != nil {
		a.audit(ctx, username, "login_failed", "bad password")
		return "", domain.ErrAuthInvalid
	}

	expiresAt := time.Now().Add(SessionTTL)
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", user.ID),
		"jti": uuid.New().String(),
		"exp": expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	session := domain.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if err := a.sessions.Save(ctx, &session); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	if err := a.users.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Warn("stamp last login: %v", err)
	}
	a.audit(ctx, username, "login_success", "")
	return token, nil
}

// Validate checks signature, expiry and session presence, returning the
// token's user.
func (a *Auth) Validate(ctx context.Context, token string) (*domain.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrAuthExpired
		}
		return nil, domain.ErrAuthInvalid
	}
	if !parsed.Valid {
		return nil, domain.ErrAuthInvalid
	}

	session, err := a.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAuthInvalid
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, domain.ErrAuthExpired
	}

	user, err := a.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserDisabled
	}
	return user, nil
}

// Logout removes the session; an already-deleted token is not an error.
func (a *Auth) Logout(ctx context.Context, token string) error {
	if err := a.sessions.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// truncateSecret caps the password bytes at bcrypt's input limit.
func truncateSecret(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxLen {
		b = b[:bcryptMaxLen]
	}
	return b
}

// audit records one auth event; failures only warn.
func (a *Auth) audit(ctx context.Context, username, things, remark string) {
	if a.events == nil {
		return
	}
	event := domain.Event{
		Source: "auth",
		Level:  "INFO",
		Status: domain.StatusInfo,
		ByUser: username,
		Things: things,
		Remark: remark,
	}
	if err := a.events.Record(ctx, event); err != nil {
		logger.Warn("event log write failed: %v", err)
	}
}
