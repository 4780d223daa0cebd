package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

type memUserStore struct {
	byID     map[int64]*domain.User
	byName   map[string]*domain.User
	nextID   int64
	lastSeen map[int64]time.Time
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byID:     map[int64]*domain.User{},
		byName:   map[string]*domain.User{},
		lastSeen: map[int64]time.Time{},
	}
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	if _, exists := s.byName[user.Username]; exists {
		return domain.ErrAlreadyExists
	}
	s.nextID++
	user.ID = s.nextID
	copied := *user
	s.byID[user.ID] = &copied
	s.byName[user.Username] = &copied
	return nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := s.byName[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) UpdatePreferences(_ context.Context, id int64, preferences string) error {
	user, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.Preferences = preferences
	return nil
}

func (s *memUserStore) TouchLastLogin(_ context.Context, id int64) error {
	s.lastSeen[id] = time.Now()
	return nil
}

type memSessionStore struct {
	byToken map[string]*domain.Session
	nextID  int64
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{byToken: map[string]*domain.Session{}}
}

func (s *memSessionStore) Save(_ context.Context, session *domain.Session) error {
	s.nextID++
	session.ID = s.nextID
	copied := *session
	s.byToken[session.Token] = &copied
	return nil
}

func (s *memSessionStore) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	session, ok := s.byToken[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *memSessionStore) Delete(_ context.Context, token string) error {
	if _, ok := s.byToken[token]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byToken, token)
	return nil
}

func (s *memSessionStore) DeleteExpired(context.Context) (int64, error) {
	var removed int64
	for token, session := range s.byToken {
		if time.Now().After(session.ExpiresAt) {
			delete(s.byToken, token)
			removed++
		}
	}
	return removed, nil
}

func newTestAuth(t *testing.T) (*Auth, *memUserStore, *memSessionStore, *fakeEventLog) {
	t.Helper()
	users := newMemUserStore()
	sessions := newMemSessionStore()
	events := &fakeEventLog{}
	auth, err := NewAuth(users, sessions, events, []byte("test-signing-secret"))
	require.NoError(t, err)
	return auth, users, sessions, events
}

func TestNewAuth_RequiresSecret(t *testing.T) {
	_, err := NewAuth(newMemUserStore(), newMemSessionStore(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuth_Register(t *testing.T) {
	auth, users, _, events := newTestAuth(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "  ada  ", "ada@example.com", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, "ada", user.Username, "username is trimmed")
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, domain.DefaultQuotaPlan, user.QuotaPlan)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

	_, err = auth.Register(ctx, "ada", "other@example.com", "different")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = auth.Register(ctx, "", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.NotNil(t, users.byName["ada"])
	assert.Len(t, events.byThings("user_registered"), 1)
}

func TestAuth_RegisterLongPassword(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)
	ctx := context.Background()

	// bcrypt rejects inputs over 72 bytes; both sides truncate, so a
	// password differing only past byte 72 still authenticates.
	long := strings.Repeat("p", 100)
	_, err := auth.Register(ctx, "bob", "", long)
	require.NoError(t, err)

	_, err = auth.Login(ctx, "bob", strings.Repeat("p", 72)+"different tail")
	assert.NoError(t, err)
}

func TestAuth_LoginAndValidate(t *testing.T) {
	auth, users, sessions, _ := newTestAuth(t)
	ctx := context.Background()

	registered, err := auth.Register(ctx, "ada", "", "secret-password")
	require.NoError(t, err)

	token, err := auth.Login(ctx, "ada", "secret-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Session row persisted and last login stamped.
	_, ok := sessions.byToken[token]
	assert.True(t, ok)
	_, stamped := users.lastSeen[registered.ID]
	assert.True(t, stamped)

	user, err := auth.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "ada", user.Username)
}

func TestAuth_LoginFailures(t *testing.T) {
	auth, users, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "ada", "", "secret-password")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	_, err = auth.Login(ctx, "ada", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	users.byName["ada"].IsActive = false
	_, err = auth.Login(ctx, "ada", "secret-password")
	assert.ErrorIs(t, err, domain.ErrUserDisabled)
}

func TestAuth_ValidateFailures(t *testing.T) {
	auth, users, sessions, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "ada", "", "secret-password")
	require.NoError(t, err)
	token, err := auth.Login(ctx, "ada", "secret-password")
	require.NoError(t, err)

	_, err = auth.Validate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	// A structurally valid token signed with a different secret.
	other, err := NewAuth(users, sessions, nil, []byte("other-secret"))
	require.NoError(t, err)
	_, err = other.Validate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	// Logged-out tokens no longer validate even with a good signature.
	require.NoError(t, auth.Logout(ctx, token))
	_, err = auth.Validate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)

	// Session expiry is enforced independently of the JWT exp claim.
	token2, err := auth.Login(ctx, "ada", "secret-password")
	require.NoError(t, err)
	sessions.byToken[token2].ExpiresAt = time.Now().Add(-time.Minute)
	_, err = auth.Validate(ctx, token2)
	assert.ErrorIs(t, err, domain.ErrAuthExpired)

	// Deactivation takes effect on the next validation.
	token3, err := auth.Login(ctx, "ada", "secret-password")
	require.NoError(t, err)
	users.byName["ada"].IsActive = false
	_, err = auth.Validate(ctx, token3)
	assert.ErrorIs(t, err, domain.ErrUserDisabled)
}

func TestAuth_LogoutIdempotent(t *testing.T) {
	auth, _, _, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "ada", "", "secret-password")
	require.NoError(t, err)
	token, err := auth.Login(ctx, "ada", "secret-password")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, token))
	assert.NoError(t, auth.Logout(ctx, token), "double logout is not an error")
}
