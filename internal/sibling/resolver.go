// Package sibling propagates quantity changes across variants that share
// a synchronization key.
package sibling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/observability"
)

// CatalogPort abstracts catalog usage for the resolver.
type CatalogPort interface {
	SearchVariants(ctx context.Context, query string, limit int) ([]catalog.Variant, error)
	AdjustQuantity(ctx context.Context, inventoryItemID, locationID string, delta int) error
}

// ErrNoLocation indicates an event without a location id. An adjustment
// requires a location; applying one with a fabricated default would
// corrupt state silently.
var ErrNoLocation = errors.New("sibling: location id required for adjustment")

// Resolver finds and corrects every variant sharing the trigger's sync key.
type Resolver struct {
	catalog     CatalogPort
	logger      *slog.Logger
	metrics     *observability.Metrics
	searchLimit int
}

// NewResolver builds a Resolver. searchLimit bounds the candidate search.
func NewResolver(cat CatalogPort, logger *slog.Logger, metrics *observability.Metrics, searchLimit int) *Resolver {
	if searchLimit <= 0 {
		searchLimit = 50
	}
	return &Resolver{catalog: cat, logger: logger, metrics: metrics, searchLimit: searchLimit}
}

// Sync brings every sibling of the trigger variant to the target
// quantity. The search is deliberately broad (the remote search index
// may lag a direct lookup) and the filter strict: only candidates whose
// sync key matches exactly survive. The trigger itself is never
// adjusted, and a candidate already at the target is skipped.
//
// Per-sibling failures are isolated: one failing adjustment is recorded
// and the loop continues.
func (r *Resolver) Sync(ctx context.Context, trigger catalog.Variant, target int, locationID string) error {
	if strings.TrimSpace(trigger.SyncKey) == "" {
		return nil
	}
	if locationID == "" {
		return ErrNoLocation
	}

	candidates, err := r.catalog.SearchVariants(ctx, titleQuery(trigger.ProductTitle), r.searchLimit)
	if err != nil {
		return fmt.Errorf("sibling: search candidates: %w", err)
	}

	for _, cand := range candidates {
		if cand.SyncKey != trigger.SyncKey || cand.ID == trigger.ID || cand.Quantity == target {
			continue
		}
		delta := target - cand.Quantity
		if err := r.catalog.AdjustQuantity(ctx, cand.InventoryItemID, locationID, delta); err != nil {
			r.metrics.ObserveItemFailure("sibling")
			r.logger.Error("sibling adjustment failed",
				slog.String("variant_id", cand.ID),
				slog.String("sku", cand.SKU),
				slog.Int("delta", delta),
				slog.Any("error", err))
			continue
		}
		r.logger.Info("sibling quantity synced",
			slog.String("variant_id", cand.ID),
			slog.String("sku", cand.SKU),
			slog.Int("delta", delta),
			slog.Int("target", target))
	}
	return nil
}

// titleQuery derives the broad search text from the first three words of
// the product title.
func titleQuery(productTitle string) string {
	words := strings.Fields(productTitle)
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ")
}
