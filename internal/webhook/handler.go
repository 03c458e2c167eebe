package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/demand"
	"github.com/stockpilot/stockpilot/internal/observability"
	"github.com/stockpilot/stockpilot/internal/platform/httpx"
	"github.com/stockpilot/stockpilot/internal/sibling"
)

// maxBodyBytes bounds webhook payload reads.
const maxBodyBytes = 1 << 20

// CatalogPort resolves the variant behind an inventory event.
type CatalogPort interface {
	VariantByInventoryItem(ctx context.Context, inventoryItemID string) (*catalog.Variant, error)
}

// SiblingPort propagates a quantity change across a sync group.
type SiblingPort interface {
	Sync(ctx context.Context, trigger catalog.Variant, target int, locationID string) error
}

// WaitlistPort drains and notifies the waitlist on restock.
type WaitlistPort interface {
	NotifyRestock(ctx context.Context, v catalog.Variant, available int) error
}

// ReconcilerPort recomputes the low-stock report.
type ReconcilerPort interface {
	Reconcile(ctx context.Context) error
}

// LedgerPort updates historical order counters.
type LedgerPort interface {
	Apply(ctx context.Context, kind demand.Kind, items []demand.LineItem) error
}

// Handler is the webhook entry point: verify, classify, dispatch.
type Handler struct {
	secret     string
	catalog    CatalogPort
	siblings   SiblingPort
	waitlist   WaitlistPort
	reconciler ReconcilerPort
	ledger     LedgerPort
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// HandlerConfig groups Handler dependencies.
type HandlerConfig struct {
	Secret     string
	Catalog    CatalogPort
	Siblings   SiblingPort
	Waitlist   WaitlistPort
	Reconciler ReconcilerPort
	Ledger     LedgerPort
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// NewHandler builds a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		secret:     cfg.Secret,
		catalog:    cfg.Catalog,
		siblings:   cfg.Siblings,
		waitlist:   cfg.Waitlist,
		reconciler: cfg.Reconciler,
		ledger:     cfg.Ledger,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Receive processes one delivery. Handled and ignored deliveries both
// answer 200 so the sender never enters a retry storm; only signature
// mismatches (401) and unexpected internal failures (500) differ.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	topic := r.Header.Get(HeaderTopic)
	if err := VerifySignature(body, r.Header.Get(HeaderSignature), h.secret); err != nil {
		h.metrics.ObserveEvent(topic, "unauthorized")
		h.logger.Warn("webhook rejected", slog.String("topic", topic), slog.Any("error", err))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "signature verification failed")
		return
	}

	evt, ok := Classify(topic, body)
	if !ok {
		h.metrics.ObserveEvent(topicLabel(evt.Topic, topic), "ignored")
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	logger := h.logger.With(
		slog.String("delivery_id", uuid.NewString()),
		slog.String("topic", string(evt.Topic)))

	switch {
	case evt.Inventory != nil:
		err = h.handleInventory(r.Context(), logger, *evt.Inventory)
	case evt.Order != nil:
		err = h.handleOrder(r.Context(), logger, *evt.Order)
	}
	if err != nil {
		h.metrics.ObserveEvent(string(evt.Topic), "failed")
		logger.Error("delivery processing failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.metrics.ObserveEvent(string(evt.Topic), "processed")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleInventory(ctx context.Context, logger *slog.Logger, evt InventoryEvent) error {
	trigger, err := h.catalog.VariantByInventoryItem(ctx, evt.InventoryItemID)
	if err != nil {
		return err
	}
	if trigger == nil {
		logger.Info("inventory item unknown to catalog",
			slog.String("inventory_item_id", evt.InventoryItemID))
		return nil
	}

	if err := h.siblings.Sync(ctx, *trigger, evt.Available, evt.LocationID); err != nil {
		if !errors.Is(err, sibling.ErrNoLocation) {
			return err
		}
		// A missing location is a configuration fault of the delivery,
		// not a transient failure: retrying the same payload cannot fix
		// it, so it is surfaced here and the delivery still acknowledged.
		h.metrics.ObserveItemFailure("sibling")
		logger.Error("sibling sync aborted",
			slog.String("inventory_item_id", evt.InventoryItemID),
			slog.Any("error", err))
	}

	return h.waitlist.NotifyRestock(ctx, *trigger, evt.Available)
}

func (h *Handler) handleOrder(ctx context.Context, logger *slog.Logger, evt OrderEvent) error {
	kind := demand.KindCreated
	if evt.Cancelled {
		kind = demand.KindCancelled
	}

	items := make([]demand.LineItem, 0, len(evt.LineItems))
	for _, li := range evt.LineItems {
		items = append(items, demand.LineItem{
			VariantID: li.VariantID,
			SKU:       li.SKU,
			Quantity:  li.Quantity,
		})
	}
	if err := h.ledger.Apply(ctx, kind, items); err != nil {
		return err
	}

	return h.reconciler.Reconcile(ctx)
}

func topicLabel(classified Topic, declared string) string {
	if classified != "" {
		return string(classified)
	}
	if declared != "" {
		return declared
	}
	return "unknown"
}
