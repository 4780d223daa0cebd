package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
)

// Write retry bounds for transient busy/locked errors. The busy_timeout
// pragma covers most contention; the retry loop covers the rest.
const (
	writeAttempts  = 3
	writeBackoff   = 50 * time.Millisecond
	recentLimitCap = 500
)

// DefaultPricePer1K is the fallback rate for models absent from the
// model_prices table.
const DefaultPricePer1K = 0.005

// Store is a unified SQLite-based storage that provides access to
// all persistence interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.noteforge/data/noteforge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".noteforge", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "noteforge.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// EventLog returns an EventLog interface backed by this store.
func (s *Store) EventLog() driven.EventLog {
	return &eventLog{store: s}
}

// UsageLedger returns a UsageLedger interface backed by this store.
func (s *Store) UsageLedger() driven.UsageLedger {
	return &usageLedger{store: s}
}

// PricingTable returns a PricingTable interface backed by this store.
func (s *Store) PricingTable() driven.PricingTable {
	return &pricingTable{store: s}
}

// NoteStore returns a NoteStore interface backed by this store.
func (s *Store) NoteStore() driven.NoteStore {
	return &noteStore{store: s}
}

// UserStore returns a UserStore interface backed by this store.
func (s *Store) UserStore() driven.UserStore {
	return &userStore{store: s}
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// execWrite runs a write statement, retrying transient busy/locked
// errors with doubling backoff.
func (s *Store) execWrite(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var lastErr error
	backoff := writeBackoff
	for attempt := 0; attempt < writeAttempts; attempt++ {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isBusy(err) {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// isBusy reports whether err looks like SQLite lock contention.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// ==================== Event Log ====================

// eventLog implements driven.EventLog.
type eventLog struct {
	store *Store
}

var _ driven.EventLog = (*eventLog)(nil)

// Record appends one event. An out-of-vocabulary status is coerced to
// work so no event is ever dropped over its tag.
func (l *eventLog) Record(ctx context.Context, event domain.Event) error {
	if !domain.ValidStatus(event.Status) {
		event.Status = domain.StatusWork
	}
	if event.Level == "" {
		event.Level = "INFO"
	}

	metaJSON := ""
	if len(event.Meta) > 0 {
		data, err := json.Marshal(event.Meta)
		if err != nil {
			return fmt.Errorf("marshalling event meta: %w", err)
		}
		metaJSON = string(data)
	}

	_, err := l.store.execWrite(ctx, `
		INSERT INTO events (source, level, status, request_id, by_user, things, remark, reason, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.Source, event.Level, string(event.Status), event.RequestID,
		event.ByUser, event.Things, event.Remark, event.Reason, metaJSON)

	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (l *eventLog) Recent(ctx context.Context, source string, limit int) ([]domain.Event, error) {
	if limit <= 0 || limit > recentLimitCap {
		limit = recentLimitCap
	}

	query := `
		SELECT id, source, level, status, request_id, by_user, things, remark, reason, meta, created_at
		FROM events`
	args := []any{}
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event //nolint:prealloc // size unknown from query
	for rows.Next() {
		var event domain.Event
		var status, metaJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&event.ID, &event.Source, &event.Level, &status,
			&event.RequestID, &event.ByUser, &event.Things, &event.Remark,
			&event.Reason, &metaJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		event.Status = domain.EventStatus(status)
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &event.Meta); err != nil {
				return nil, fmt.Errorf("unmarshalling event meta: %w", err)
			}
		}
		if createdAt.Valid {
			event.CreatedAt = createdAt.Time
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

// ==================== Usage Ledger ====================

// usageLedger implements driven.UsageLedger.
type usageLedger struct {
	store *Store
}

var _ driven.UsageLedger = (*usageLedger)(nil)

// Append stores one usage row.
func (l *usageLedger) Append(ctx context.Context, record domain.UsageRecord) error {
	if record.UserID == "" {
		record.UserID = domain.GuestUser
	}

	_, err := l.store.execWrite(ctx, `
		INSERT INTO usage_records (user_id, model, prompt_tokens, completion_tokens, total_tokens, cost, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.UserID, record.Model, record.PromptTokens, record.CompletionTokens,
		record.TotalTokens, record.Cost, record.RequestID)

	if err != nil {
		return fmt.Errorf("appending usage record: %w", err)
	}
	return nil
}

// TotalsByModel aggregates recorded usage per model for one user
// ("" = all users).
func (l *usageLedger) TotalsByModel(ctx context.Context, userID string) (map[string]domain.UsageTotals, error) {
	query := `
		SELECT model,
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COALESCE(SUM(total_tokens), 0),
		       COALESCE(SUM(cost), 0)
		FROM usage_records`
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " GROUP BY model"

	rows, err := l.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying usage totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]domain.UsageTotals)
	for rows.Next() {
		var model string
		var t domain.UsageTotals
		if err := rows.Scan(&model, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens, &t.EstimatedCost); err != nil {
			return nil, fmt.Errorf("scanning usage totals: %w", err)
		}
		totals[model] = t
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating usage totals: %w", err)
	}

	return totals, nil
}

// ==================== Pricing Table ====================

// pricingTable implements driven.PricingTable.
type pricingTable struct {
	store *Store
}

var _ driven.PricingTable = (*pricingTable)(nil)

// PricePer1K returns the price per 1000 tokens for a model. Unknown
// models fall back to DefaultPricePer1K.
func (p *pricingTable) PricePer1K(ctx context.Context, model string) float64 {
	var price float64
	err := p.store.db.QueryRowContext(ctx,
		"SELECT price_per_1k FROM model_prices WHERE model = ?", model).Scan(&price)
	if err != nil {
		return DefaultPricePer1K
	}
	return price
}

// SetPrice stores or updates a model's price override.
func (p *pricingTable) SetPrice(ctx context.Context, model string, pricePer1K float64) error {
	if model == "" || pricePer1K < 0 {
		return domain.ErrInvalidInput
	}

	_, err := p.store.execWrite(ctx, `
		INSERT INTO model_prices (model, price_per_1k)
		VALUES (?, ?)
		ON CONFLICT(model) DO UPDATE SET price_per_1k = excluded.price_per_1k
	`, model, pricePer1K)

	if err != nil {
		return fmt.Errorf("setting model price: %w", err)
	}
	return nil
}

// Prices lists all known model prices.
func (p *pricingTable) Prices(ctx context.Context) (map[string]float64, error) {
	rows, err := p.store.db.QueryContext(ctx, "SELECT model, price_per_1k FROM model_prices")
	if err != nil {
		return nil, fmt.Errorf("querying model prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]float64)
	for rows.Next() {
		var model string
		var price float64
		if err := rows.Scan(&model, &price); err != nil {
			return nil, fmt.Errorf("scanning model price: %w", err)
		}
		prices[model] = price
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating model prices: %w", err)
	}

	return prices, nil
}
