// Package lowstock maintains the standing report of variants below their
// alert thresholds.
package lowstock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/mailer"
	"github.com/stockpilot/stockpilot/internal/observability"
)

// Store keys. The snapshot always reflects the most recently sent
// report; the cooldown marker gates resends.
const (
	SnapshotKey = "lowstock:snapshot"
	CooldownKey = "lowstock:cooldown"
)

// CatalogPort abstracts the catalog scan.
type CatalogPort interface {
	ListProducts(ctx context.Context, limit int) ([]catalog.Product, error)
}

// StorePort abstracts the durable store.
type StorePort interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// SenderPort abstracts the email capability.
type SenderPort interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Entry is one below-threshold variant in the scan result.
type Entry struct {
	ProductTitle string
	SKU          string
	Quantity     int
	Threshold    int
	OrderCount   int
}

// Reconciler recomputes the low-stock set after qualifying events and
// reports only on change, outside the cooldown window.
type Reconciler struct {
	catalog    CatalogPort
	store      StorePort
	sender     SenderPort
	recipients []string
	cooldown   time.Duration
	pageSize   int
	logger     *slog.Logger
	metrics    *observability.Metrics
	group      singleflight.Group
}

// Config groups reconciler settings.
type Config struct {
	Recipients []string
	Cooldown   time.Duration
	PageSize   int
}

// NewReconciler builds a Reconciler.
func NewReconciler(cat CatalogPort, store StorePort, sender SenderPort, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 250
	}
	return &Reconciler{
		catalog:    cat,
		store:      store,
		sender:     sender,
		recipients: cfg.Recipients,
		cooldown:   cfg.Cooldown,
		pageSize:   pageSize,
		logger:     logger,
		metrics:    metrics,
	}
}

// Reconcile runs one full rescan. Concurrent calls within the process
// collapse into a single scan.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	_, err, _ := r.group.Do("reconcile", func() (any, error) {
		return nil, r.reconcile(ctx)
	})
	return err
}

func (r *Reconciler) reconcile(ctx context.Context) error {
	// The order payload reflects intent, not post-transaction stock, so
	// the scan always reads the catalog fresh. A scan failure aborts the
	// whole reconciliation before any state is written.
	products, err := r.catalog.ListProducts(ctx, r.pageSize)
	if err != nil {
		return fmt.Errorf("lowstock: scan products: %w", err)
	}

	entries := collectLow(products)
	current := sortedSKUs(entries)

	previous, err := r.readSnapshot(ctx)
	if err != nil {
		return err
	}

	if sameSet(current, previous) {
		r.metrics.ObserveReport("unchanged")
		return nil
	}

	if len(current) == 0 {
		// Everything recovered. Clear tracking state; a recovery is not
		// itself alert-worthy.
		if err := r.store.Delete(ctx, SnapshotKey); err != nil {
			return err
		}
		r.metrics.ObserveReport("recovered")
		r.logger.Info("low-stock set cleared", slog.Int("previous", len(previous)))
		return nil
	}

	if r.cooldown > 0 {
		sentAt := strconv.FormatInt(time.Now().UnixMilli(), 10)
		ok, err := r.store.SetNX(ctx, CooldownKey, sentAt, r.cooldown)
		if err != nil {
			return err
		}
		if !ok {
			// Within the cooldown window. The snapshot stays untouched so
			// the next eligible event compares against the last sent set.
			r.metrics.ObserveReport("suppressed")
			r.logger.Info("low-stock report suppressed by cooldown", slog.Int("skus", len(current)))
			return nil
		}
	}

	msg := buildReport(entries, r.recipients)
	if err := r.sender.Send(ctx, msg); err != nil {
		// Roll back the cooldown marker so the next event may retry.
		if r.cooldown > 0 {
			if delErr := r.store.Delete(ctx, CooldownKey); delErr != nil {
				r.logger.Error("cooldown rollback failed", slog.Any("error", delErr))
			}
		}
		return fmt.Errorf("lowstock: send report: %w", err)
	}

	if err := r.writeSnapshot(ctx, current); err != nil {
		return err
	}
	r.metrics.ObserveReport("sent")
	r.logger.Info("low-stock report sent",
		slog.Int("skus", len(current)),
		slog.Int("recipients", len(r.recipients)))
	return nil
}

func (r *Reconciler) readSnapshot(ctx context.Context) ([]string, error) {
	raw, found, err := r.store.Get(ctx, SnapshotKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var skus []string
	if err := json.Unmarshal([]byte(raw), &skus); err != nil {
		return nil, fmt.Errorf("lowstock: decode snapshot: %w", err)
	}
	return skus, nil
}

func (r *Reconciler) writeSnapshot(ctx context.Context, skus []string) error {
	raw, err := json.Marshal(skus)
	if err != nil {
		return fmt.Errorf("lowstock: encode snapshot: %w", err)
	}
	return r.store.Set(ctx, SnapshotKey, string(raw))
}

// collectLow keeps variants whose parent product has monitoring enabled,
// whose threshold is strictly positive and whose quantity is strictly
// below it. An unset threshold excludes the variant.
func collectLow(products []catalog.Product) []Entry {
	var entries []Entry
	for _, p := range products {
		if !p.MonitoringEnabled {
			continue
		}
		for _, v := range p.Variants {
			if v.AlertThreshold <= 0 {
				continue
			}
			if v.Quantity >= v.AlertThreshold {
				continue
			}
			entries = append(entries, Entry{
				ProductTitle: p.Title,
				SKU:          v.SKU,
				Quantity:     v.Quantity,
				Threshold:    v.AlertThreshold,
				OrderCount:   v.HistoricalOrderCount,
			})
		}
	}
	return entries
}

func sortedSKUs(entries []Entry) []string {
	skus := make([]string, 0, len(entries))
	for _, e := range entries {
		skus = append(skus, e.SKU)
	}
	sort.Strings(skus)
	return skus
}

// sameSet compares as sets, ignoring order.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
