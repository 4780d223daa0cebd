package domain

import "time"

// User is a registered account. Preferences carries the user's
// remembered generation settings as a JSON object; it is merged, never
// overwritten, on save.
type User struct {
	ID               int64
	Username         string
	Email            string
	PasswordHash     string
	Role             string
	DefaultNoteStyle string
	DefaultLang      string
	QuotaPlan        string
	Preferences      string
	IsActive         bool
	LastLogin        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Default account values for new registrations.
const (
	RoleUser         = "user"
	RoleAdmin        = "admin"
	DefaultQuotaPlan = "free"
)

// Session is one issued login token. The token itself is a signed JWT;
// the row exists so logout and audit can see live sessions.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Note is a persisted generated note owned by a user. Metadata is a
// JSON object carrying mode, subject, duration and usage totals.
type Note struct {
	ID        int64
	UserID    int64
	Title     string
	Content   string
	Metadata  string
	Feedback  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
