package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to the commerce platform's GraphQL endpoint.
type Client struct {
	endpoint   string
	token      string
	namespace  string
	httpClient *http.Client
}

// NewClient constructs a Client. The namespace scopes every custom field
// read or written by the engine.
func NewClient(endpoint, token, namespace string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint:  endpoint,
		token:     token,
		namespace: namespace,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type fieldPayload struct {
	Value string `json:"value"`
}

type imagePayload struct {
	URL string `json:"url"`
}

type productRefPayload struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	ProductType string        `json:"productType"`
	Image       *imagePayload `json:"image"`
	Monitoring  *fieldPayload `json:"monitoring"`
}

type variantPayload struct {
	ID                string            `json:"id"`
	SKU               string            `json:"sku"`
	Title             string            `json:"title"`
	QuantityAvailable int               `json:"quantityAvailable"`
	InventoryItemID   string            `json:"inventoryItemId"`
	Image             *imagePayload     `json:"image"`
	SyncKey           *fieldPayload     `json:"syncKey"`
	AlertThreshold    *fieldPayload     `json:"alertThreshold"`
	OrderCount        *fieldPayload     `json:"orderCount"`
	Product           productRefPayload `json:"product"`
}

type userError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// do executes one GraphQL call and decodes data into out. Application
// errors are failures even when the transport call succeeded.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrRemoteRejected, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRemoteRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrRemoteRejected, resp.StatusCode)
	}

	var envelope gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRemoteRejected, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("%w: %s", ErrRemoteRejected, strings.Join(msgs, "; "))
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", ErrRemoteRejected, err)
		}
	}
	return nil
}

// VariantByInventoryItem resolves the variant owning an inventory item.
// A nil variant with nil error means the item is unknown to the catalog.
func (c *Client) VariantByInventoryItem(ctx context.Context, inventoryItemID string) (*Variant, error) {
	var data struct {
		InventoryItem *struct {
			Variant *variantPayload `json:"variant"`
		} `json:"inventoryItem"`
	}
	vars := map[string]any{"id": inventoryItemID, "ns": c.namespace}
	if err := c.do(ctx, queryVariantByInventoryItem, vars, &data); err != nil {
		return nil, err
	}
	if data.InventoryItem == nil || data.InventoryItem.Variant == nil {
		return nil, nil
	}
	v := toVariant(*data.InventoryItem.Variant)
	return &v, nil
}

// VariantByID fetches one variant by its catalog id. A nil variant with
// nil error means the id is unknown.
func (c *Client) VariantByID(ctx context.Context, id string) (*Variant, error) {
	var data struct {
		ProductVariant *variantPayload `json:"productVariant"`
	}
	vars := map[string]any{"id": id, "ns": c.namespace}
	if err := c.do(ctx, queryVariantByID, vars, &data); err != nil {
		return nil, err
	}
	if data.ProductVariant == nil {
		return nil, nil
	}
	v := toVariant(*data.ProductVariant)
	return &v, nil
}

// SearchVariants runs a free-text variant search bounded by limit.
func (c *Client) SearchVariants(ctx context.Context, query string, limit int) ([]Variant, error) {
	var data struct {
		ProductVariants struct {
			Nodes []variantPayload `json:"nodes"`
		} `json:"productVariants"`
	}
	vars := map[string]any{"query": query, "first": limit, "ns": c.namespace}
	if err := c.do(ctx, querySearchVariants, vars, &data); err != nil {
		return nil, err
	}
	variants := make([]Variant, 0, len(data.ProductVariants.Nodes))
	for _, node := range data.ProductVariants.Nodes {
		variants = append(variants, toVariant(node))
	}
	return variants, nil
}

// ListProducts pages through the catalog for the low-stock scan.
func (c *Client) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	var data struct {
		Products struct {
			Nodes []struct {
				ID         string        `json:"id"`
				Title      string        `json:"title"`
				Monitoring *fieldPayload `json:"monitoring"`
				Variants   struct {
					Nodes []variantPayload `json:"nodes"`
				} `json:"variants"`
			} `json:"nodes"`
		} `json:"products"`
	}
	vars := map[string]any{"first": limit, "ns": c.namespace}
	if err := c.do(ctx, queryListProducts, vars, &data); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(data.Products.Nodes))
	for _, node := range data.Products.Nodes {
		p := Product{
			ID:                node.ID,
			Title:             node.Title,
			MonitoringEnabled: boolField(node.Monitoring),
		}
		for _, vn := range node.Variants.Nodes {
			v := toVariant(vn)
			v.ProductID = p.ID
			v.ProductTitle = p.Title
			v.MonitoringEnabled = p.MonitoringEnabled
			p.Variants = append(p.Variants, v)
		}
		products = append(products, p)
	}
	return products, nil
}

// AdjustQuantity applies a delta to the available quantity of an
// inventory item at a location.
func (c *Client) AdjustQuantity(ctx context.Context, inventoryItemID, locationID string, delta int) error {
	var data struct {
		InventoryAdjustQuantity struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"inventoryAdjustQuantity"`
	}
	vars := map[string]any{
		"inventoryItemId": inventoryItemID,
		"locationId":      locationID,
		"delta":           delta,
	}
	if err := c.do(ctx, mutationAdjustQuantity, vars, &data); err != nil {
		return err
	}
	return checkUserErrors(data.InventoryAdjustQuantity.UserErrors)
}

// SetField writes one custom field on the given owner.
func (c *Client) SetField(ctx context.Context, ownerID, namespace, key, value string) error {
	var data struct {
		CustomFieldSet struct {
			UserErrors []userError `json:"userErrors"`
		} `json:"customFieldSet"`
	}
	vars := map[string]any{
		"ownerId":   ownerID,
		"namespace": namespace,
		"key":       key,
		"value":     value,
	}
	if err := c.do(ctx, mutationSetField, vars, &data); err != nil {
		return err
	}
	return checkUserErrors(data.CustomFieldSet.UserErrors)
}

// Namespace returns the custom-field namespace this client operates in.
func (c *Client) Namespace() string {
	return c.namespace
}

func checkUserErrors(errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return fmt.Errorf("%w: %s", ErrRemoteRejected, strings.Join(msgs, "; "))
}

func toVariant(p variantPayload) Variant {
	v := Variant{
		ID:                   p.ID,
		SKU:                  p.SKU,
		Title:                p.Title,
		Quantity:             p.QuantityAvailable,
		InventoryItemID:      p.InventoryItemID,
		ProductID:            p.Product.ID,
		ProductTitle:         p.Product.Title,
		ProductType:          p.Product.ProductType,
		SyncKey:              stringField(p.SyncKey),
		AlertThreshold:       intField(p.AlertThreshold),
		MonitoringEnabled:    boolField(p.Product.Monitoring),
		HistoricalOrderCount: intField(p.OrderCount),
	}
	if p.Image != nil {
		v.ImageURL = p.Image.URL
	}
	if p.Product.Image != nil {
		v.ProductImageURL = p.Product.Image.URL
	}
	return v
}

func stringField(f *fieldPayload) string {
	if f == nil {
		return ""
	}
	return f.Value
}

func intField(f *fieldPayload) int {
	if f == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(f.Value))
	if err != nil {
		return 0
	}
	return n
}

func boolField(f *fieldPayload) bool {
	if f == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(f.Value), "true")
}
