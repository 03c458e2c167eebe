// Package catalog wraps the commerce platform's query/mutation API.
package catalog

import "errors"

// Variant is the engine's read model of a catalog variant. Quantity is
// only ever changed through adjustments, never written directly; the
// custom fields (sync key, threshold, order count) are written through
// SetField.
type Variant struct {
	ID              string
	SKU             string
	Title           string
	Quantity        int
	InventoryItemID string

	ProductID    string
	ProductTitle string
	ProductType  string

	// ImageURL is the variant image; ProductImageURL is the fallback.
	ImageURL        string
	ProductImageURL string

	SyncKey string

	// AlertThreshold is the variant-level low-stock threshold. Zero means
	// unset; only strictly positive thresholds participate in reporting.
	AlertThreshold int

	// MonitoringEnabled is inherited from the parent product.
	MonitoringEnabled bool

	HistoricalOrderCount int
}

// Product groups variants for the low-stock scan.
type Product struct {
	ID                string
	Title             string
	MonitoringEnabled bool
	Variants          []Variant
}

// Custom field keys the engine reads and writes. The queries in this
// package alias the same keys; keep them in sync.
const (
	FieldSyncKey           = "sync_key"
	FieldAlertThreshold    = "alert_threshold"
	FieldOrderCount        = "order_count"
	FieldMonitoringEnabled = "monitoring_enabled"
)

// ErrRemoteUnavailable marks transient failures (transport errors, 5xx).
// Callers decide whether to retry; the client never retries internally.
var ErrRemoteUnavailable = errors.New("catalog: remote unavailable")

// ErrRemoteRejected marks permanent failures: 4xx responses, malformed
// payloads and application-level error lists.
var ErrRemoteRejected = errors.New("catalog: remote rejected request")
