// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - EventLog: Persistent structured event records
//   - UsageLedger: Per-call token usage rows
//   - PricingTable: Per-model price lookups and overrides
//   - UserStore: Account persistence
//   - SessionStore: Issued login sessions
//   - NoteStore: Generated notes
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.noteforge/data/noteforge.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
