package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
)

// ==================== User Store ====================

// userStore implements driven.UserStore.
type userStore struct {
	store *Store
}

var _ driven.UserStore = (*userStore)(nil)

// Create stores a new user and fills in its ID.
func (s *userStore) Create(ctx context.Context, user *domain.User) error {
	if user.Username == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := s.store.execWrite(ctx, `
		INSERT INTO users (username, email, password_hash, role, default_note_style,
			default_lang, quota_plan, preferences, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.Username, user.Email, user.PasswordHash, user.Role, user.DefaultNoteStyle,
		user.DefaultLang, user.QuotaPlan, user.Preferences, user.IsActive,
		user.CreatedAt, user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email taken", domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByUsername retrieves a user by username.
func (s *userStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, default_note_style,
			default_lang, quota_plan, preferences, is_active, last_login, created_at, updated_at
		FROM users WHERE username = ?
	`, username)
	return scanUser(row)
}

// GetByID retrieves a user by ID.
func (s *userStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, default_note_style,
			default_lang, quota_plan, preferences, is_active, last_login, created_at, updated_at
		FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

// UpdatePreferences replaces the stored preferences JSON.
func (s *userStore) UpdatePreferences(ctx context.Context, id int64, preferences string) error {
	result, err := s.store.execWrite(ctx, `
		UPDATE users SET preferences = ?, updated_at = ? WHERE id = ?
	`, preferences, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	return requireRow(result)
}

// TouchLastLogin stamps the last successful login time.
func (s *userStore) TouchLastLogin(ctx context.Context, id int64) error {
	result, err := s.store.execWrite(ctx, `
		UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?
	`, time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("stamping last login: %w", err)
	}
	return requireRow(result)
}

// scanUser scans a single user row.
func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var lastLogin sql.NullTime
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.DefaultNoteStyle, &user.DefaultLang, &user.QuotaPlan,
		&user.Preferences, &user.IsActive, &lastLogin, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Save stores a new session row.
func (s *sessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session.Token == "" || session.UserID == 0 {
		return domain.ErrInvalidInput
	}

	session.CreatedAt = time.Now().UTC()
	result, err := s.store.execWrite(ctx, `
		INSERT INTO sessions (user_id, token, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, session.UserID, session.Token, session.ExpiresAt.UTC(), session.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new session id: %w", err)
	}
	session.ID = id
	return nil
}

// GetByToken retrieves a session by its token.
func (s *sessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions WHERE token = ?
	`, token)

	var session domain.Session
	if err := row.Scan(&session.ID, &session.UserID, &session.Token,
		&session.ExpiresAt, &session.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &session, nil
}

// Delete removes a session (logout).
func (s *sessionStore) Delete(ctx context.Context, token string) error {
	result, err := s.store.execWrite(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return requireRow(result)
}

// DeleteExpired removes all sessions past their expiry.
func (s *sessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.store.execWrite(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted sessions: %w", err)
	}
	return removed, nil
}

// ==================== Note Store ====================

// noteStore implements driven.NoteStore.
type noteStore struct {
	store *Store
}

var _ driven.NoteStore = (*noteStore)(nil)

// Save stores a new note and fills in its ID.
func (s *noteStore) Save(ctx context.Context, note *domain.Note) error {
	if note.UserID == 0 || note.Content == "" {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	result, err := s.store.execWrite(ctx, `
		INSERT INTO notes (user_id, title, content, metadata, feedback, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, note.UserID, note.Title, note.Content, note.Metadata, note.Feedback,
		note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new note id: %w", err)
	}
	note.ID = id
	return nil
}

// Get retrieves a note by ID, scoped to its owner.
func (s *noteStore) Get(ctx context.Context, userID, noteID int64) (*domain.Note, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, content, metadata, feedback, created_at, updated_at
		FROM notes WHERE id = ? AND user_id = ?
	`, noteID, userID)

	var note domain.Note
	if err := row.Scan(&note.ID, &note.UserID, &note.Title, &note.Content,
		&note.Metadata, &note.Feedback, &note.CreatedAt, &note.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning note: %w", err)
	}
	return &note, nil
}

// ListByUser returns a user's notes, newest first.
func (s *noteStore) ListByUser(ctx context.Context, userID int64) ([]domain.Note, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, title, content, metadata, feedback, created_at, updated_at
		FROM notes WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note //nolint:prealloc // size unknown from query
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content,
			&note.Metadata, &note.Feedback, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}

	return notes, nil
}

// SetFeedback records user feedback on a note.
func (s *noteStore) SetFeedback(ctx context.Context, userID, noteID int64, feedback string) error {
	result, err := s.store.execWrite(ctx, `
		UPDATE notes SET feedback = ?, updated_at = ? WHERE id = ? AND user_id = ?
	`, feedback, time.Now().UTC(), noteID, userID)
	if err != nil {
		return fmt.Errorf("setting note feedback: %w", err)
	}
	return requireRow(result)
}

// ==================== Helper Functions ====================

// requireRow converts a zero-rows-affected write into ErrNotFound.
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
