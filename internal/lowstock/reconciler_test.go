package lowstock

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/catalog"
	"github.com/stockpilot/stockpilot/internal/mailer"
	"github.com/stockpilot/stockpilot/internal/store"
)

type fakeCatalog struct {
	products []catalog.Product
	err      error
}

func (f *fakeCatalog) ListProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	return f.products, f.err
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestStore(t *testing.T) (*store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return store.New(client), mr
}

func monitored(title string, variants ...catalog.Variant) catalog.Product {
	return catalog.Product{ID: "p-" + title, Title: title, MonitoringEnabled: true, Variants: variants}
}

func lowVariant(sku string, qty, threshold int) catalog.Variant {
	return catalog.Variant{SKU: sku, Quantity: qty, AlertThreshold: threshold}
}

func newReconciler(cat CatalogPort, st StorePort, sender SenderPort, cooldown time.Duration) *Reconciler {
	cfg := Config{Recipients: []string{"ops@example.com"}, Cooldown: cooldown, PageSize: 250}
	return NewReconciler(cat, st, sender, cfg, slog.Default(), nil)
}

func snapshot(t *testing.T, st *store.Store) (string, bool) {
	t.Helper()
	val, found, err := st.Get(context.Background(), SnapshotKey)
	require.NoError(t, err)
	return val, found
}

func TestUnchangedSetSendsNothing(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, SnapshotKey, `["A","B"]`))

	cat := &fakeCatalog{products: []catalog.Product{
		monitored("Tote", lowVariant("B", 1, 5), lowVariant("A", 2, 5)),
	}}
	sender := &fakeSender{}
	r := newReconciler(cat, st, sender, 0)

	require.NoError(t, r.Reconcile(ctx))
	require.Empty(t, sender.sent)

	val, found := snapshot(t, st)
	require.True(t, found)
	require.Equal(t, `["A","B"]`, val)
}

func TestChangedSetSendsAndUpdatesSnapshot(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, SnapshotKey, `["A","B"]`))

	cat := &fakeCatalog{products: []catalog.Product{
		monitored("Tote", lowVariant("A", 1, 5), lowVariant("B", 1, 5), lowVariant("C", 0, 3)),
	}}
	sender := &fakeSender{}
	r := newReconciler(cat, st, sender, 0)

	require.NoError(t, r.Reconcile(ctx))
	require.Len(t, sender.sent, 1)
	require.Equal(t, []string{"ops@example.com"}, sender.sent[0].To)
	require.Contains(t, sender.sent[0].HTML, "Tote")
	require.Contains(t, sender.sent[0].HTML, "C")

	val, _ := snapshot(t, st)
	require.JSONEq(t, `["A","B","C"]`, val)
}

func TestEmptySetDeletesSnapshotWithoutEmail(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, SnapshotKey, `["A"]`))

	cat := &fakeCatalog{products: []catalog.Product{
		monitored("Tote", lowVariant("A", 9, 5)),
	}}
	sender := &fakeSender{}
	r := newReconciler(cat, st, sender, 0)

	require.NoError(t, r.Reconcile(ctx))
	require.Empty(t, sender.sent)

	_, found := snapshot(t, st)
	require.False(t, found)
}

func TestThresholdRules(t *testing.T) {
	products := []catalog.Product{
		monitored("Tote",
			lowVariant("NO-THRESHOLD", 3, 0), // unset threshold is excluded
			lowVariant("BELOW", 3, 5),        // 3 < 5 reported
			lowVariant("AT", 5, 5),           // 5 is not < 5
		),
		{ID: "p-off", Title: "Unmonitored", Variants: []catalog.Variant{lowVariant("OFF", 0, 5)}},
	}
	entries := collectLow(products)
	require.Len(t, entries, 1)
	require.Equal(t, "BELOW", entries[0].SKU)
}

func TestCooldownSuppressesWithoutTouchingSnapshot(t *testing.T) {
	st, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, SnapshotKey, `["A"]`))

	cat := &fakeCatalog{products: []catalog.Product{
		monitored("Tote", lowVariant("A", 1, 5), lowVariant("B", 1, 5)),
	}}
	sender := &fakeSender{}
	r := newReconciler(cat, st, sender, 4*time.Hour)

	// First run takes the cooldown marker and sends.
	require.NoError(t, r.Reconcile(ctx))
	require.Len(t, sender.sent, 1)

	// A further change inside the window is suppressed, snapshot untouched.
	cat.products = []catalog.Product{
		monitored("Tote", lowVariant("A", 1, 5), lowVariant("B", 1, 5), lowVariant("C", 1, 5)),
	}
	require.NoError(t, r.Reconcile(ctx))
	require.Len(t, sender.sent, 1)
	val, _ := snapshot(t, st)
	require.JSONEq(t, `["A","B"]`, val)

	// After the window passes, the same change sends and updates tracking.
	mr.FastForward(5 * time.Hour)
	require.NoError(t, r.Reconcile(ctx))
	require.Len(t, sender.sent, 2)
	val, _ = snapshot(t, st)
	require.JSONEq(t, `["A","B","C"]`, val)
}

func TestScanFailureWritesNoState(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, SnapshotKey, `["A"]`))

	cat := &fakeCatalog{err: catalog.ErrRemoteUnavailable}
	sender := &fakeSender{}
	r := newReconciler(cat, st, sender, 0)

	err := r.Reconcile(ctx)
	require.ErrorIs(t, err, catalog.ErrRemoteUnavailable)
	require.Empty(t, sender.sent)

	val, found := snapshot(t, st)
	require.True(t, found)
	require.Equal(t, `["A"]`, val)
}

func TestSendFailureRollsBackCooldown(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	cat := &fakeCatalog{products: []catalog.Product{
		monitored("Tote", lowVariant("A", 1, 5)),
	}}
	sender := &fakeSender{err: errors.New("smtp down")}
	r := newReconciler(cat, st, sender, 4*time.Hour)

	require.Error(t, r.Reconcile(ctx))

	// Snapshot never written, marker rolled back so a retry can send.
	_, found := snapshot(t, st)
	require.False(t, found)
	_, found, err := st.Get(ctx, CooldownKey)
	require.NoError(t, err)
	require.False(t, found)

	sender.err = nil
	require.NoError(t, r.Reconcile(ctx))
	require.Len(t, sender.sent, 1)
}
