package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finitefield.org/storefront/internal/catalog"
)

const (
	defaultTimeout    = 8 * time.Second
	idempotencyHeader = "Idempotency-Key"
)

var (
	// ErrInvalidQuantity is returned when a line is added with a quantity below one.
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
	// ErrMissingCartID is returned when no cart identifier is provided.
	ErrMissingCartID = errors.New("cart: missing cart id")
	// ErrMissingCatalogItem is returned when the catalog reference has no item id.
	ErrMissingCatalogItem = errors.New("cart: missing catalog item id")
)

// ReferenceOptions narrows a catalog item to a variant, either by id or by raw option
// values. At most one of the two is set.
type ReferenceOptions struct {
	VariantID string                  `json:"variantId,omitempty"`
	Options   catalog.SelectedOptions `json:"options,omitempty"`
}

// CatalogReference identifies the item the cart service should add.
type CatalogReference struct {
	CatalogItemID string            `json:"catalogItemId"`
	AppID         string            `json:"appId"`
	Options       *ReferenceOptions `json:"options,omitempty"`
}

// VariantID returns the referenced variant id, if any.
func (r CatalogReference) VariantID() string {
	if r.Options == nil {
		return ""
	}
	return r.Options.VariantID
}

// SelectedOptions returns the raw option values, if any.
func (r CatalogReference) SelectedOptions() catalog.SelectedOptions {
	if r.Options == nil {
		return nil
	}
	return r.Options.Options
}

// AddItemRequest adds quantity units of the referenced item to a cart.
type AddItemRequest struct {
	CartID           string
	Quantity         int
	CatalogReference CatalogReference
	IdempotencyKey   string
}

// AddItemResponse reports the line that was created or increased.
type AddItemResponse struct {
	CartID     string
	LineItemID string
	ItemCount  int
}

// Line is a cart line item.
type Line struct {
	ID               string           `json:"id"`
	Quantity         int              `json:"quantity"`
	CatalogReference CatalogReference `json:"catalogReference"`
}

// Cart is a cart snapshot used by the preview drawer.
type Cart struct {
	ID        string `json:"id"`
	Lines     []Line `json:"lineItems"`
	ItemCount int    `json:"itemCount"`
}

// Client talks to the cart service. When baseURL is empty an in-memory cart is used.
type Client struct {
	baseURL string
	http    *http.Client
	memory  *memoryStore
}

// NewClient constructs a cart client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		memory:  newMemoryStore(),
	}
}

// AddItem adds a line to the cart.
func (c *Client) AddItem(ctx context.Context, req AddItemRequest) (AddItemResponse, error) {
	cartID := strings.TrimSpace(req.CartID)
	if cartID == "" {
		return AddItemResponse{}, ErrMissingCartID
	}
	if req.Quantity < 1 {
		return AddItemResponse{}, ErrInvalidQuantity
	}
	if strings.TrimSpace(req.CatalogReference.CatalogItemID) == "" {
		return AddItemResponse{}, ErrMissingCatalogItem
	}
	if c == nil || c.baseURL == "" {
		return c.store().add(cartID, req.Quantity, req.CatalogReference), nil
	}

	endpoint, err := url.JoinPath(c.baseURL, "carts", cartID, "items")
	if err != nil {
		return AddItemResponse{}, err
	}
	payload, err := json.Marshal(map[string]any{
		"quantity":         req.Quantity,
		"catalogReference": req.CatalogReference,
	})
	if err != nil {
		return AddItemResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return AddItemResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(idempotencyHeader, ensureIdempotencyKey(req.IdempotencyKey))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return AddItemResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return AddItemResponse{}, fmt.Errorf("cart: add item status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	var body addItemPayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return AddItemResponse{}, fmt.Errorf("cart: decode add item: %w", err)
	}
	return AddItemResponse{
		CartID:     defaultString(body.CartID, cartID),
		LineItemID: strings.TrimSpace(body.LineItemID),
		ItemCount:  body.ItemCount,
	}, nil
}

// GetCart returns the current cart contents. An unknown cart is returned empty.
func (c *Client) GetCart(ctx context.Context, cartID string) (Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return Cart{}, ErrMissingCartID
	}
	if c == nil || c.baseURL == "" {
		return c.store().get(cartID), nil
	}
	endpoint, err := url.JoinPath(c.baseURL, "carts", cartID)
	if err != nil {
		return Cart{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Cart{}, err
	}
	httpReq.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Cart{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Cart{ID: cartID}, nil
	}
	if resp.StatusCode >= 400 {
		return Cart{}, fmt.Errorf("cart: get status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	var out Cart
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Cart{}, fmt.Errorf("cart: decode cart: %w", err)
	}
	if out.ID == "" {
		out.ID = cartID
	}
	return out, nil
}

func (c *Client) store() *memoryStore {
	if c == nil {
		return sharedMemory
	}
	if c.memory == nil {
		c.memory = newMemoryStore()
	}
	return c.memory
}

type addItemPayload struct {
	CartID     string `json:"cartId"`
	LineItemID string `json:"lineItemId"`
	ItemCount  int    `json:"itemCount"`
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return strings.TrimSpace(val)
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
