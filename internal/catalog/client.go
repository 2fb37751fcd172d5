package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when a catalog resource cannot be located.
var ErrNotFound = errors.New("catalog: not found")

const (
	defaultCatalogDir = "catalog"
	defaultCacheTTL   = 2 * time.Minute
	fetchTimeout      = 5 * time.Second
)

// Client reads products and events from the catalog API, falling back to local YAML
// fixtures when no base URL is configured or the remote copy is missing. Lookups by slug
// or id are cached per client.
type Client struct {
	baseURL string
	http    *http.Client
	dir     string

	mu       sync.RWMutex
	ttl      time.Duration
	products map[string]cacheEntry[Product]
	events   map[string]cacheEntry[Event]
	flight   singleflight.Group
}

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// NewClient constructs a Client. When baseURL is empty only local fixtures are served.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     &http.Client{Timeout: fetchTimeout},
		ttl:      defaultCacheTTL,
		products: map[string]cacheEntry[Product]{},
		events:   map[string]cacheEntry[Event]{},
	}
}

// SetCatalogDir configures the fixture directory and drops anything cached from the
// previous one.
func (c *Client) SetCatalogDir(dir string) {
	if c == nil {
		return
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultCatalogDir
	}
	c.mu.Lock()
	c.dir = dir
	c.mu.Unlock()
	c.ResetCache()
}

// CatalogDir returns the configured fixture directory.
func (c *Client) CatalogDir() string {
	if c == nil {
		return defaultCatalogDir
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if strings.TrimSpace(c.dir) == "" {
		return defaultCatalogDir
	}
	return c.dir
}

// SetCacheTTL overrides how long lookups stay cached. Non-positive values restore the default.
func (c *Client) SetCacheTTL(d time.Duration) {
	if d <= 0 {
		d = defaultCacheTTL
	}
	c.mu.Lock()
	c.ttl = d
	c.mu.Unlock()
}

// ResetCache drops every cached product and event.
func (c *Client) ResetCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.products)
	clear(c.events)
}

// GetProduct returns the product with the given slug.
func (c *Client) GetProduct(ctx context.Context, slug string) (Product, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Product{}, ErrNotFound
	}
	return c.product(ctx, "slug|"+slug, func(p Product) bool { return p.Slug == slug }, "products", slug)
}

// GetProductByID returns the product with the given catalog id.
func (c *Client) GetProductByID(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return Product{}, ErrNotFound
	}
	return c.product(ctx, "id|"+id, func(p Product) bool { return p.ID == id }, "products", "id", id)
}

// ListProducts returns every product in catalog order.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	if c != nil && c.baseURL != "" {
		var out []Product
		err := c.getJSON(ctx, &out, "products")
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	set, err := loadFixtures(c.CatalogDir())
	if err != nil {
		return nil, err
	}
	return append([]Product(nil), set.Products...), nil
}

// ListEvents returns every event in catalog order.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	if c != nil && c.baseURL != "" {
		var out []Event
		err := c.getJSON(ctx, &out, "events")
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	set, err := loadFixtures(c.CatalogDir())
	if err != nil {
		return nil, err
	}
	return append([]Event(nil), set.Events...), nil
}

// GetEvent returns the event with the given slug.
func (c *Client) GetEvent(ctx context.Context, slug string) (Event, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Event{}, ErrNotFound
	}
	if ev, ok := cached(c, &c.events, slug); ok {
		return ev, nil
	}
	v, err, _ := c.flight.Do("event|"+slug, func() (any, error) {
		fctx, cancel := detach(ctx)
		defer cancel()
		ev, err := c.fetchEvent(fctx, slug)
		if err != nil {
			return Event{}, err
		}
		store(c, &c.events, slug, ev)
		return ev, nil
	})
	if err != nil {
		return Event{}, err
	}
	return v.(Event), nil
}

func (c *Client) product(ctx context.Context, key string, match func(Product) bool, segments ...string) (Product, error) {
	if p, ok := cached(c, &c.products, key); ok {
		return p, nil
	}
	// concurrent misses for the same key share one fetch
	v, err, _ := c.flight.Do("product|"+key, func() (any, error) {
		fctx, cancel := detach(ctx)
		defer cancel()
		p, err := c.fetchProduct(fctx, match, segments...)
		if err != nil {
			return Product{}, err
		}
		store(c, &c.products, key, p)
		return p, nil
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

func (c *Client) fetchProduct(ctx context.Context, match func(Product) bool, segments ...string) (Product, error) {
	if c != nil && c.baseURL != "" {
		var p Product
		err := c.getJSON(ctx, &p, segments...)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Product{}, err
		}
	}
	set, err := loadFixtures(c.CatalogDir())
	if err != nil {
		return Product{}, err
	}
	for _, p := range set.Products {
		if match(p) {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (c *Client) fetchEvent(ctx context.Context, slug string) (Event, error) {
	if c != nil && c.baseURL != "" {
		var ev Event
		err := c.getJSON(ctx, &ev, "events", slug)
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Event{}, err
		}
	}
	set, err := loadFixtures(c.CatalogDir())
	if err != nil {
		return Event{}, err
	}
	for _, ev := range set.Events {
		if ev.Slug == slug {
			return ev, nil
		}
	}
	return Event{}, ErrNotFound
}

func (c *Client) getJSON(ctx context.Context, dst any, segments ...string) error {
	endpoint, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return err
	}
	hc := c.http
	if hc == nil {
		hc = &http.Client{Timeout: fetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("catalog: remote status %d for %s", resp.StatusCode, strings.Join(segments, "/"))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", strings.Join(segments, "/"), err)
	}
	return nil
}

// detach keeps request values for logging but not its cancellation, since a shared fetch
// serves every waiter.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
}

func cached[T any](c *Client, items *map[string]cacheEntry[T], key string) (T, bool) {
	c.mu.RLock()
	entry, ok := (*items)[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		var zero T
		return zero, false
	}
	return entry.value, true
}

func store[T any](c *Client, items *map[string]cacheEntry[T], key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *items == nil {
		*items = map[string]cacheEntry[T]{}
	}
	ttl := c.ttl
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	(*items)[key] = cacheEntry[T]{value: v, expires: time.Now().Add(ttl)}
}

func sanitizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}
