package driving

import (
	"context"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

// AuthService manages accounts and login sessions.
type AuthService interface {
	// Register creates a new account. Returns domain.ErrAlreadyExists
	// on username/email collision.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)

	// Login verifies credentials and issues a signed session token.
	Login(ctx context.Context, username, password string) (string, error)

	// Validate checks a session token and returns its user.
	Validate(ctx context.Context, token string) (*domain.User, error)

	// Logout invalidates a session token.
	Logout(ctx context.Context, token string) error
}

// PreferenceMemory remembers per-user generation settings.
type PreferenceMemory interface {
	// Load returns the user's remembered preferences, empty on any
	// failure.
	Load(ctx context.Context, userID int64) map[string]any

	// Save merges prefs into the stored preferences, never overwriting
	// unrelated keys.
	Save(ctx context.Context, userID int64, prefs map[string]any) error
}
