package driven

import (
	"context"

	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
)

// UsageLedger persists one row per generation-service call. The core
// writes a row after every successful call, not just at request end, so
// partial usage survives even when a later chunk or the synthesis fails.
type UsageLedger interface {
	// Append stores one usage row.
	Append(ctx context.Context, record domain.UsageRecord) error

	// TotalsByModel aggregates recorded usage per model for one user
	// ("" = all users).
	TotalsByModel(ctx context.Context, userID string) (map[string]domain.UsageTotals, error)
}

// PricingTable is the read-only model price lookup. Unknown models fall
// back to a documented default rate.
type PricingTable interface {
	// PricePer1K returns the price per 1000 tokens for a model.
	PricePer1K(ctx context.Context, model string) float64

	// SetPrice stores or updates a model's price override.
	SetPrice(ctx context.Context, model string, pricePer1K float64) error

	// Prices lists all known model prices, defaults included.
	Prices(ctx context.Context) (map[string]float64, error)
}
