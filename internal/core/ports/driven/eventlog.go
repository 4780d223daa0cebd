package driven

import (
	"context"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

// EventLog is the persistent structured logging collaborator. The core
// records request start, chunk failures, synthesis failures and overall
// success/failure through it. A failing event write must never fail the
// operation that produced the event; implementations absorb their own
// errors after bounded retries.
type EventLog interface {
	// Record appends one event. Implementations coerce an invalid
	// Status to domain.StatusWork.
	Record(ctx context.Context, event domain.Event) error

	// Recent returns up to limit events, newest first, optionally
	// filtered by source ("" = all).
	Recent(ctx context.Context, source string, limit int) ([]domain.Event, error)
}
