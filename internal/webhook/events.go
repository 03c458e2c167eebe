package webhook

import (
	"encoding/json"
)

// Request headers set by the upstream platform.
const (
	HeaderTopic     = "X-Webhook-Topic"
	HeaderSignature = "X-Webhook-Signature"
)

// Topic identifies the event kind declared by the sender.
type Topic string

// Recognized topics.
const (
	TopicInventoryUpdate Topic = "inventory_levels/update"
	TopicOrdersCreate    Topic = "orders/create"
	TopicOrdersCancelled Topic = "orders/cancelled"
)

// InventoryEvent is a stock-level change pushed by the platform.
type InventoryEvent struct {
	InventoryItemID string
	LocationID      string
	Available       int
}

// LineItem is one ordered variant within an order event.
type LineItem struct {
	VariantID   string
	SKU         string
	Quantity    int
	ProductType string
}

// OrderEvent is an order creation or cancellation.
type OrderEvent struct {
	OrderID   string
	Cancelled bool
	LineItems []LineItem
}

// Event is a classified delivery. Exactly one of Inventory or Order is
// set when the second return value of Classify is true.
type Event struct {
	Topic     Topic
	Inventory *InventoryEvent
	Order     *OrderEvent
}

type inventoryPayload struct {
	InventoryItemID json.Number `json:"inventory_item_id"`
	LocationID      json.Number `json:"location_id"`
	Available       *int        `json:"available"`
}

type orderPayload struct {
	ID          json.Number `json:"id"`
	CancelledAt string      `json:"cancelled_at"`
	LineItems   []struct {
		VariantID   json.Number `json:"variant_id"`
		SKU         string      `json:"sku"`
		Quantity    int         `json:"quantity"`
		ProductType string      `json:"product_type"`
	} `json:"line_items"`
}

// Classify resolves a verified payload into an event. The second return
// value is false for everything that must be acknowledged as a no-op:
// unknown topics, unparseable bodies and recognized shapes missing
// required fields. None of those are errors; the sender must still see
// success or it retries a permanently-broken delivery forever.
func Classify(topic string, body []byte) (Event, bool) {
	switch Topic(topic) {
	case TopicInventoryUpdate:
		return classifyInventory(body)
	case TopicOrdersCreate:
		return classifyOrder(body, false)
	case TopicOrdersCancelled:
		return classifyOrder(body, true)
	}
	if topic != "" {
		return Event{Topic: Topic(topic)}, false
	}

	// No declared topic: classify by payload shape.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return Event{}, false
	}
	if _, ok := probe["inventory_item_id"]; ok {
		return classifyInventory(body)
	}
	if raw, ok := probe["line_items"]; ok && string(raw) != "null" {
		var p orderPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return Event{}, false
		}
		return classifyOrder(body, p.CancelledAt != "")
	}
	return Event{}, false
}

func classifyInventory(body []byte) (Event, bool) {
	evt := Event{Topic: TopicInventoryUpdate}
	var p inventoryPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return evt, false
	}
	if p.InventoryItemID.String() == "" || p.Available == nil {
		return evt, false
	}
	evt.Inventory = &InventoryEvent{
		InventoryItemID: p.InventoryItemID.String(),
		LocationID:      p.LocationID.String(),
		Available:       *p.Available,
	}
	return evt, true
}

func classifyOrder(body []byte, cancelled bool) (Event, bool) {
	topic := TopicOrdersCreate
	if cancelled {
		topic = TopicOrdersCancelled
	}
	evt := Event{Topic: topic}
	var p orderPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return evt, false
	}
	if p.LineItems == nil {
		return evt, false
	}
	order := &OrderEvent{OrderID: p.ID.String(), Cancelled: cancelled}
	for _, li := range p.LineItems {
		order.LineItems = append(order.LineItems, LineItem{
			VariantID:   li.VariantID.String(),
			SKU:         li.SKU,
			Quantity:    li.Quantity,
			ProductType: li.ProductType,
		})
	}
	evt.Order = order
	return evt, true
}
