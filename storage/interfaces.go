package storage

import (
	"context"

	"deal-scout/models"
)

// DealStore is the interface any deal persistence backend must satisfy.
// Saves are upserts keyed by the deal's identity hash.
type DealStore interface {
	SaveDeal(ctx context.Context, deal *models.FilteredDeal) error
	GetDeals(ctx context.Context, q models.DealQuery) ([]*models.FilteredDeal, error)
	GetTopDeals(ctx context.Context, minDiscount, limit int) ([]*models.FilteredDeal, error)
	GetPricingGlitches(ctx context.Context, minProbability float64, limit int) ([]*models.FilteredDeal, error)
	Close() error
}
