// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - GenerationService: The external LLM text-generation collaborator
//   - Normaliser: Transforms raw uploads into plain text
//   - NormaliserRegistry: Selects appropriate normaliser
//   - EventLog: Persistent structured event records
//   - UsageLedger: Per-call token usage rows
//   - PricingTable: Model price lookup
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - NoteStore: Persisted notes. Without it, note saving is skipped.
//   - UserStore / SessionStore: Accounts. Without them, requests run as guest.
//   - PromptStore: User-editable prompt templates. Without it, embedded
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
