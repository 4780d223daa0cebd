package driven

import (
	"context"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

// NoteStore persists generated notes for authenticated users.
type NoteStore interface {
	// Save stores a new note and fills in its ID.
	Save(ctx context.Context, note *domain.Note) error

	// Get retrieves a note by ID, scoped to its owner.
	Get(ctx context.Context, userID, noteID int64) (*domain.Note, error)

	// ListByUser returns a user's notes, newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.Note, error)

	// SetFeedback records user feedback on a note.
	SetFeedback(ctx context.Context, userID, noteID int64, feedback string) error
}

// UserStore persists accounts.
type UserStore interface {
	// Create stores a new user and fills in its ID.
	// Returns domain.ErrAlreadyExists on username/email collision.
	Create(ctx context.Context, user *domain.User) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// UpdatePreferences replaces the stored preferences JSON.
	UpdatePreferences(ctx context.Context, id int64, preferences string) error

	// TouchLastLogin stamps the last successful login time.
	TouchLastLogin(ctx context.Context, id int64) error
}

// SessionStore persists issued login sessions.
type SessionStore interface {
	// Save stores a new session row.
	Save(ctx context.Context, session *domain.Session) error

	// GetByToken retrieves a live session by its token.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session (logout).
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all sessions past their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}
