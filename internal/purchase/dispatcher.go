package purchase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/cart"
	"finitefield.org/storefront/internal/observability"
)

// CartAdder is the cart mutation collaborator.
type CartAdder interface {
	AddItem(ctx context.Context, req cart.AddItemRequest) (cart.AddItemResponse, error)
}

// Line is one add-to-cart action.
type Line struct {
	CartID    string
	Quantity  int
	Reference cart.CatalogReference
}

// key identifies the action control a line was issued from.
func (l Line) key() string {
	return l.CartID + "|" + l.Reference.CatalogItemID
}

// Dispatcher sends add-to-cart actions to the cart service, allowing one in-flight action per
// cart and product.
type Dispatcher struct {
	cart CartAdder

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewDispatcher returns a dispatcher backed by c.
func NewDispatcher(c CartAdder) *Dispatcher {
	return &Dispatcher{cart: c, inflight: map[string]struct{}{}}
}

// Loading reports whether an add for this cart and product is in flight.
func (d *Dispatcher) Loading(cartID, productID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[Line{CartID: cartID, Reference: cart.CatalogReference{CatalogItemID: productID}}.key()]
	return ok
}

// AddToCart adds the line and, on success, runs onAdded with the cart service's response.
// It reports false when the add failed or another add for the same control is still in
// flight. Failures are not surfaced beyond a debug log entry.
func (d *Dispatcher) AddToCart(ctx context.Context, line Line, onAdded func(cart.AddItemResponse)) bool {
	key := line.key()
	if !d.begin(key) {
		return false
	}
	resp, err := d.add(ctx, key, line)
	if err != nil {
		observability.FromContext(ctx).Debug("add to cart failed",
			zap.String("catalog_item_id", line.Reference.CatalogItemID),
			zap.Int("quantity", line.Quantity),
			zap.Error(err),
		)
		return false
	}
	if onAdded != nil {
		onAdded(resp)
	}
	return true
}

// add calls the cart and clears the in-flight flag before returning, even when the cart panics.
func (d *Dispatcher) add(ctx context.Context, key string, line Line) (cart.AddItemResponse, error) {
	defer d.end(key)
	return d.cart.AddItem(ctx, cart.AddItemRequest{
		CartID:           line.CartID,
		Quantity:         line.Quantity,
		CatalogReference: line.Reference,
	})
}

func (d *Dispatcher) begin(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight == nil {
		d.inflight = map[string]struct{}{}
	}
	if _, busy := d.inflight[key]; busy {
		return false
	}
	d.inflight[key] = struct{}{}
	return true
}

func (d *Dispatcher) end(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, key)
}
