package cart

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// memoryStore backs the client when no cart service is configured.
type memoryStore struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

var sharedMemory = newMemoryStore()

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: map[string]*Cart{}}
}

func (s *memoryStore) add(cartID string, qty int, ref CatalogReference) AddItemResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		c = &Cart{ID: cartID}
		s.carts[cartID] = c
	}
	key := lineKey(ref)
	var lineID string
	for i := range c.Lines {
		if lineKey(c.Lines[i].CatalogReference) == key {
			c.Lines[i].Quantity += qty
			lineID = c.Lines[i].ID
			break
		}
	}
	if lineID == "" {
		lineID = NewID("line")
		c.Lines = append(c.Lines, Line{ID: lineID, Quantity: qty, CatalogReference: cloneReference(ref)})
	}
	c.ItemCount += qty
	return AddItemResponse{CartID: cartID, LineItemID: lineID, ItemCount: c.ItemCount}
}

func (s *memoryStore) get(cartID string) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return Cart{ID: cartID}
	}
	out := *c
	out.Lines = append([]Line(nil), c.Lines...)
	return out
}

// lineKey identifies lines that merge when added twice.
func lineKey(ref CatalogReference) string {
	b, _ := json.Marshal(ref)
	return string(b)
}

func cloneReference(ref CatalogReference) CatalogReference {
	if ref.Options == nil {
		return ref
	}
	opts := *ref.Options
	opts.Options = ref.Options.Options.Clone()
	ref.Options = &opts
	return ref
}

// NewID returns a prefixed, lexically sortable identifier.
func NewID(prefix string) string {
	return strings.TrimSpace(prefix) + "_" + strings.ToLower(ulid.Make().String())
}

func ensureIdempotencyKey(key string) string {
	key = strings.TrimSpace(key)
	if key != "" {
		return key
	}
	return NewID("add")
}
