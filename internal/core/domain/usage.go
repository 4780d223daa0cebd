package domain

import "time"

// TokenUsage is the usage block of a single generation-service call.
// Services may omit it entirely; a nil *TokenUsage means "unreported".
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// UsageTotals is the running per-request tally across every
// generation-service call (N chunk calls plus one synthesis call).
// It is request-scoped: each Generate invocation owns its own instance,
// mutated only by the orchestrator and read-only once the request ends.
type UsageTotals struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCost    float64
}

// Add accumulates one call's token counts.
func (u *UsageTotals) Add(usage TokenUsage) {
	u.PromptTokens += usage.PromptTokens
	u.CompletionTokens += usage.CompletionTokens
	u.TotalTokens += usage.TotalTokens
}

// UsageRecord is one ledger row, written after every successful
// generation-service call so partial usage survives later failures.
type UsageRecord struct {
	ID               int64
	UserID           string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
	RequestID        string
	CreatedAt        time.Time
}

// GuestUser is the sentinel identity used when no authenticated user is
// present on a request.
const GuestUser = "guest"
