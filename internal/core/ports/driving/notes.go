package driving

import (
	"context"
	"time"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

// GenerateRequest carries everything one note-generation run needs.
// Texts come from the upstream parsing step, one entry per uploaded
// document, in upload order.
type GenerateRequest struct {
	// Texts are the already-extracted document texts.
	Texts []string

	// Mode selects the synthesis instruction template.
	Mode domain.Mode

	// Bilingual requests an additional translation into TargetLang.
	Bilingual bool

	// TargetLang is "zh" or "en"; only consulted when Bilingual is set.
	TargetLang string

	// User is the authenticated account, or nil for guest. When set,
	// the final note is persisted for this user as a best-effort side
	// effect.
	User *domain.User
}

// GenerateResult is the successful outcome of a generation run.
type GenerateResult struct {
	// Text is the final note document.
	Text string

	// Subject is the heuristic academic classification.
	Subject domain.Subject

	// Language is the detected input language ("zh" or "en").
	Language string

	// Usage is the request's accumulated token and cost totals.
	Usage domain.UsageTotals

	// RequestID is the correlation id threaded through logs and ledger.
	RequestID string

	// Duration is the wall-clock time of the whole run.
	Duration time.Duration

	// NoteID is the persisted note's id, when note saving succeeded.
	// Zero when the request ran as guest or the save failed.
	NoteID int64
}

// NoteGenerator runs the full pipeline: detect, chunk, extract,
// synthesize, account.
type NoteGenerator interface {
	// Generate produces the final note or fails with a domain error.
	// Per-chunk extraction failures never fail the run; input
	// validation and synthesis failures do.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// ParsedFile is one upstream parsing outcome, in input order.
type ParsedFile struct {
	// Name is the original file name.
	Name string

	// Text is the extracted plain text. Empty when parsing failed.
	Text string

	// Err is the parsing failure, if any. A failed file does not sink
	// the batch.
	Err error
}

// FileParser turns uploaded files into plain text, in input order.
// Independent files may be parsed concurrently.
type FileParser interface {
	// ParseAll parses every file, returning one result per input.
	ParseAll(ctx context.Context, paths []string) []ParsedFile
}
