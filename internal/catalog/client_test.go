package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "token", "stockpilot", time.Second)
}

func respond(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestVariantByInventoryItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token", r.Header.Get("X-Access-Token"))
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "inv-1", req.Variables["id"])

		respond(t, w, `{"data":{"inventoryItem":{"variant":{
			"id":"v-1","sku":"SKU-1","title":"Small","quantityAvailable":4,
			"inventoryItemId":"inv-1",
			"image":{"url":"https://img/variant.png"},
			"syncKey":{"value":"bundle-9"},
			"alertThreshold":{"value":"5"},
			"orderCount":{"value":"17"},
			"product":{"id":"p-1","title":"Canvas Tote","productType":"Bags",
				"image":{"url":"https://img/product.png"},
				"monitoring":{"value":"true"}}
		}}}}`)
	})

	v, err := client.VariantByInventoryItem(context.Background(), "inv-1")
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "v-1", v.ID)
	require.Equal(t, 4, v.Quantity)
	require.Equal(t, "bundle-9", v.SyncKey)
	require.Equal(t, 5, v.AlertThreshold)
	require.Equal(t, 17, v.HistoricalOrderCount)
	require.True(t, v.MonitoringEnabled)
	require.Equal(t, "Canvas Tote", v.ProductTitle)
	require.Equal(t, "https://img/variant.png", v.ImageURL)
	require.Equal(t, "https://img/product.png", v.ProductImageURL)
}

func TestVariantByInventoryItemUnknown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, `{"data":{"inventoryItem":null}}`)
	})

	v, err := client.VariantByInventoryItem(context.Background(), "inv-missing")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SearchVariants(context.Background(), "canvas tote", 50)
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestApplicationErrorsAreRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, `{"data":null,"errors":[{"message":"query cost exceeded"}]}`)
	})

	_, err := client.SearchVariants(context.Background(), "canvas tote", 50)
	require.ErrorIs(t, err, ErrRemoteRejected)
	require.Contains(t, err.Error(), "query cost exceeded")
}

func TestUserErrorsAreRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, `{"data":{"inventoryAdjustQuantity":{"userErrors":[{"field":"locationId","message":"location not found"}]}}}`)
	})

	err := client.AdjustQuantity(context.Background(), "inv-1", "loc-404", 3)
	require.ErrorIs(t, err, ErrRemoteRejected)
	require.Contains(t, err.Error(), "location not found")
}

func TestMalformedFieldValuesDefault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, `{"data":{"productVariants":{"nodes":[{
			"id":"v-2","sku":"SKU-2","title":"Large","quantityAvailable":9,
			"alertThreshold":{"value":"not-a-number"},
			"product":{"id":"p-1","title":"Canvas Tote"}
		}]}}}`)
	})

	variants, err := client.SearchVariants(context.Background(), "canvas", 10)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	require.Zero(t, variants[0].AlertThreshold)
	require.False(t, variants[0].MonitoringEnabled)
}
