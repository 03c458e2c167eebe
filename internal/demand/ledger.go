// Package demand keeps a per-variant historical order counter.
package demand

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/observability"
)

// Kind distinguishes order creation from cancellation.
type Kind string

const (
	// KindCreated increments the counter.
	KindCreated Kind = "created"
	// KindCancelled decrements the counter, clamped at zero.
	KindCancelled Kind = "cancelled"
)

// LineItem is one ordered variant with its quantity.
type LineItem struct {
	VariantID string
	SKU       string
	Quantity  int
}

// CatalogPort abstracts catalog usage for the ledger.
type CatalogPort interface {
	VariantByID(ctx context.Context, id string) (*catalog.Variant, error)
	SetField(ctx context.Context, ownerID, namespace, key, value string) error
}

// Ledger applies order events to the historical counters.
type Ledger struct {
	catalog   CatalogPort
	namespace string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLedger builds a Ledger writing counters in the given field namespace.
func NewLedger(cat CatalogPort, namespace string, logger *slog.Logger, metrics *observability.Metrics) *Ledger {
	return &Ledger{catalog: cat, namespace: namespace, logger: logger, metrics: metrics}
}

// Apply updates the counter for every line item. Items are processed
// independently: a failure on one is recorded and skipped.
func (l *Ledger) Apply(ctx context.Context, kind Kind, items []LineItem) error {
	for _, item := range items {
		if err := l.applyItem(ctx, kind, item); err != nil {
			l.metrics.ObserveItemFailure("demand")
			l.logger.Error("order counter update failed",
				slog.String("variant_id", item.VariantID),
				slog.String("sku", item.SKU),
				slog.String("kind", string(kind)),
				slog.Any("error", err))
		}
	}
	return nil
}

func (l *Ledger) applyItem(ctx context.Context, kind Kind, item LineItem) error {
	if item.VariantID == "" || item.Quantity <= 0 {
		return nil
	}
	v, err := l.catalog.VariantByID(ctx, item.VariantID)
	if err != nil {
		return err
	}
	if v == nil {
		l.logger.Warn("order line references unknown variant",
			slog.String("variant_id", item.VariantID),
			slog.String("sku", item.SKU))
		return nil
	}

	count := v.HistoricalOrderCount
	switch kind {
	case KindCancelled:
		count -= item.Quantity
		if count < 0 {
			count = 0
		}
	default:
		count += item.Quantity
	}

	return l.catalog.SetField(ctx, v.ID, l.namespace, catalog.FieldOrderCount, strconv.Itoa(count))
}
