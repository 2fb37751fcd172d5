package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront/internal/catalog"
)

func TestMemoryCartMergesLines(t *testing.T) {
	t.Parallel()

	c := NewClient("")
	ctx := context.Background()
	ref := CatalogReference{CatalogItemID: "p1", AppID: "app", Options: &ReferenceOptions{VariantID: "v1"}}

	first, err := c.AddItem(ctx, AddItemRequest{CartID: "cart_1", Quantity: 2, CatalogReference: ref})
	require.NoError(t, err)
	second, err := c.AddItem(ctx, AddItemRequest{CartID: "cart_1", Quantity: 1, CatalogReference: ref})
	require.NoError(t, err)
	require.Equal(t, first.LineItemID, second.LineItemID)
	require.Equal(t, 3, second.ItemCount)

	other := CatalogReference{CatalogItemID: "p1", AppID: "app", Options: &ReferenceOptions{
		Options: catalog.SelectedOptions{"Color": catalog.StringPtr("Blue")},
	}}
	_, err = c.AddItem(ctx, AddItemRequest{CartID: "cart_1", Quantity: 1, CatalogReference: other})
	require.NoError(t, err)

	got, err := c.GetCart(ctx, "cart_1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	require.Equal(t, 4, got.ItemCount)
	require.Equal(t, "v1", got.Lines[0].CatalogReference.VariantID())
	blue, _ := got.Lines[1].CatalogReference.SelectedOptions().Value("Color")
	require.Equal(t, "Blue", blue)

	empty, err := c.GetCart(ctx, "cart_unknown")
	require.NoError(t, err)
	require.Empty(t, empty.Lines)
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()

	c := NewClient("")
	ctx := context.Background()
	ref := CatalogReference{CatalogItemID: "p1"}

	_, err := c.AddItem(ctx, AddItemRequest{CartID: "c", Quantity: 0, CatalogReference: ref})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = c.AddItem(ctx, AddItemRequest{Quantity: 1, CatalogReference: ref})
	require.ErrorIs(t, err, ErrMissingCartID)
	_, err = c.AddItem(ctx, AddItemRequest{CartID: "c", Quantity: 1})
	require.ErrorIs(t, err, ErrMissingCatalogItem)
}

func TestRemoteAddItem(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/carts/cart_9/items", r.URL.Path)
		gotKey = r.Header.Get(idempotencyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"lineItemId":"li_1","itemCount":5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	resp, err := c.AddItem(context.Background(), AddItemRequest{
		CartID:   "cart_9",
		Quantity: 2,
		CatalogReference: CatalogReference{
			CatalogItemID: "p1",
			AppID:         "app",
			Options:       &ReferenceOptions{VariantID: "v1"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "cart_9", resp.CartID)
	require.Equal(t, "li_1", resp.LineItemID)
	require.Equal(t, 5, resp.ItemCount)
	require.NotEmpty(t, gotKey)

	require.EqualValues(t, 2, gotBody["quantity"])
	ref := gotBody["catalogReference"].(map[string]any)
	require.Equal(t, "p1", ref["catalogItemId"])
	require.Equal(t, map[string]any{"variantId": "v1"}, ref["options"])
}

func TestRemoteAddItemFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of stock", http.StatusConflict)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).AddItem(context.Background(), AddItemRequest{
		CartID:           "c",
		Quantity:         1,
		CatalogReference: CatalogReference{CatalogItemID: "p1"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")
}
