// Package domain defines the core business entities for Noteforge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded course document after text extraction
//   - FileOutput: Per-document merged extraction output
//   - Mode: The note-generation style selector
//   - UsageTotals: Token and cost accounting for one request
//   - Note: A persisted, user-owned generated note
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
