package webhook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyInventoryByTopic(t *testing.T) {
	evt, ok := Classify(string(TopicInventoryUpdate),
		[]byte(`{"inventory_item_id":42,"location_id":7,"available":-2}`))
	require.True(t, ok)
	require.NotNil(t, evt.Inventory)
	require.Equal(t, "42", evt.Inventory.InventoryItemID)
	require.Equal(t, "7", evt.Inventory.LocationID)
	require.Equal(t, -2, evt.Inventory.Available)
}

func TestClassifyInventoryMissingFieldsIsNoop(t *testing.T) {
	// available absent: recognized shape, still a no-op acknowledgment.
	_, ok := Classify(string(TopicInventoryUpdate), []byte(`{"inventory_item_id":42}`))
	require.False(t, ok)

	_, ok = Classify(string(TopicInventoryUpdate), []byte(`{"available":3}`))
	require.False(t, ok)
}

func TestClassifyOrderByTopic(t *testing.T) {
	body := []byte(`{"id":1001,"line_items":[{"variant_id":5,"sku":"SKU-5","quantity":2,"product_type":"Bags"}]}`)

	evt, ok := Classify(string(TopicOrdersCreate), body)
	require.True(t, ok)
	require.NotNil(t, evt.Order)
	require.False(t, evt.Order.Cancelled)
	require.Equal(t, "1001", evt.Order.OrderID)
	require.Len(t, evt.Order.LineItems, 1)
	require.Equal(t, "5", evt.Order.LineItems[0].VariantID)
	require.Equal(t, 2, evt.Order.LineItems[0].Quantity)

	evt, ok = Classify(string(TopicOrdersCancelled), body)
	require.True(t, ok)
	require.True(t, evt.Order.Cancelled)
}

func TestClassifyByShapeWithoutTopic(t *testing.T) {
	evt, ok := Classify("", []byte(`{"inventory_item_id":42,"available":0}`))
	require.True(t, ok)
	require.NotNil(t, evt.Inventory)

	evt, ok = Classify("", []byte(`{"id":1,"line_items":[]}`))
	require.True(t, ok)
	require.NotNil(t, evt.Order)
	require.False(t, evt.Order.Cancelled)

	evt, ok = Classify("", []byte(`{"id":1,"cancelled_at":"2026-08-30T10:00:00Z","line_items":[]}`))
	require.True(t, ok)
	require.True(t, evt.Order.Cancelled)
}

func TestClassifyNoops(t *testing.T) {
	for name, tc := range map[string]struct {
		topic string
		body  string
	}{
		"unknown topic":     {"customers/create", `{"id":1}`},
		"unparseable body":  {"", `{"broken`},
		"unrecognized body": {"", `{"foo":"bar"}`},
		"null line_items":   {string(TopicOrdersCreate), `{"id":1,"line_items":null}`},
	} {
		_, ok := Classify(tc.topic, []byte(tc.body))
		require.False(t, ok, name)
	}
}
