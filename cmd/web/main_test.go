package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testClient replays cookies between requests like a browser would.
type testClient struct {
	t       *testing.T
	h       http.Handler
	lang    string
	cookies map[string]string
}

// newTestClient wires the app against the repository's templates, locales and fixtures.
func newTestClient(t *testing.T) *testClient {
	t.Helper()
	cfg := defaultConfig()
	cfg.TemplatesDir = "../../templates"
	cfg.PublicDir = "../../public"
	cfg.LocalesDir = "../../locales"
	cfg.CatalogDir = "../../catalog"
	cfg.CheckoutURL = "/checkout"
	// ensure templates reparse each request
	cfg.Dev = true
	require.NoError(t, setup(cfg))
	_, err := parseTemplates()
	require.NoError(t, err, "parseTemplates")
	return &testClient{t: t, h: newRouter(zap.NewNop()), lang: "en", cookies: map[string]string{}}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for name, v := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: v})
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", c.lang)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck.Value
	}
	return rec
}

func (c *testClient) get(path string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return c.do(req)
}

func (c *testClient) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return c.do(req)
}

func parseDoc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func attr(t *testing.T, doc *goquery.Document, selector, name string) string {
	t.Helper()
	sel := doc.Find(selector)
	require.Equal(t, 1, sel.Length(), "expected one %s", selector)
	v, ok := sel.Attr(name)
	require.True(t, ok, "%s has no %s attribute", selector, name)
	return v
}

func TestHealthzOK(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/healthz", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestShopListsProducts(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/shop", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := parseDoc(t, rec)
	require.Equal(t, 3, doc.Find(".product-card").Length())
	require.Equal(t, "$25.00", strings.TrimSpace(doc.Find(".product-card").First().Find(".product-card-price").Text()))
	require.Equal(t, 1, doc.Find(".product-card.is-sold-out").Length())
	require.Equal(t, "Shop", strings.TrimSpace(doc.Find(".site-nav a.active").Text()))
}

func TestProductPageRendersDefaultSelection(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/products/wool-scarf", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := parseDoc(t, rec)
	require.Equal(t, "Wool Scarf", strings.TrimSpace(doc.Find(".product-name").Text()))
	// the default variant has a zero price, so the base price shows
	require.Equal(t, "$25.00", strings.TrimSpace(doc.Find(".product-price").Text()))
	require.Contains(t, doc.Find(".product-sku").Text(), "WS-100-RS")
	require.Equal(t, "Red", attr(t, doc, `select[name="opt.Color"] option[selected]`, "value"))
	require.Equal(t, "S", attr(t, doc, `select[name="opt.Size"] option[selected]`, "value"))
	require.Equal(t, "1", attr(t, doc, `input[name="quantity"]`, "value"))
	require.Equal(t, "3", attr(t, doc, `input[name="quantity"]`, "max"))
	require.Equal(t, 1, doc.Find(`[data-action="add-to-cart"]`).Length())
	require.Equal(t, 0, doc.Find(`[data-action="notify"]`).Length())
	require.Equal(t, "/api/quick-buy/prod-wool-scarf?quantity=1&productOptions=", attr(t, doc, `[data-action="buy-now"]`, "href"))
	require.Equal(t, "merino wool", doc.Find(".product-description strong").Text())
	require.Equal(t, 2, doc.Find(".product-info-section").Length())

	var ld []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		ld = append(ld, s.Text())
	})
	require.Len(t, ld, 2)
	require.Contains(t, ld[1], `"price":"25.00"`)
	require.Contains(t, ld[1], `"availability":"https://schema.org/InStock"`)
}

func TestProductPageLocalizedLabels(t *testing.T) {
	c := newTestClient(t)
	c.lang = "ja"
	doc := parseDoc(t, c.get("/products/wool-scarf", false))
	require.Equal(t, "カートに追加", strings.TrimSpace(doc.Find(`[data-action="add-to-cart"]`).Text()))
}

func TestProductSidebarOptionEditResetsQuantity(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/products/wool-scarf/sidebar?edit=1&opt.Color=Blue&opt.Size=S&quantity=4", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "/products/wool-scarf?opt.Color=Blue&opt.Size=S", rec.Header().Get("HX-Push-Url"))

	doc := parseDoc(t, rec)
	require.Equal(t, "$26.00", strings.TrimSpace(doc.Find(".product-price").Text()))
	require.Equal(t, "1", attr(t, doc, `input[name="quantity"]`, "value"))
	require.Equal(t, "0", attr(t, doc, `input[name="quantity"]`, "max"))
	// out-of-stock variant: cart actions give way to the notify button
	require.Equal(t, 0, doc.Find(`[data-action="add-to-cart"]`).Length())
	require.Equal(t, 0, doc.Find(`[data-action="buy-now"]`).Length())
	require.Equal(t, "/products/wool-scarf/notify?variant=var-blue-s", attr(t, doc, `[data-action="notify"]`, "hx-get"))
}

func TestProductSidebarQuantitySteps(t *testing.T) {
	c := newTestClient(t)

	doc := parseDoc(t, c.get("/products/wool-scarf/sidebar?opt.Color=Red&opt.Size=L&quantity=2&step=inc", true))
	require.Equal(t, "3", attr(t, doc, `input[name="quantity"]`, "value"))
	require.Equal(t, "5", attr(t, doc, `input[name="quantity"]`, "max"))
	require.Equal(t, "$28.00", strings.TrimSpace(doc.Find(".product-price").Text()))
	require.Equal(t, "/api/quick-buy/prod-wool-scarf?quantity=3&productOptions=", attr(t, doc, `[data-action="buy-now"]`, "href"))

	// decrement is not clamped
	doc = parseDoc(t, c.get("/products/wool-scarf/sidebar?quantity=1&step=dec", true))
	require.Equal(t, "0", attr(t, doc, `input[name="quantity"]`, "value"))

	// non-numeric input keeps the previous quantity
	doc = parseDoc(t, c.get("/products/wool-scarf/sidebar?quantity=abc", true))
	require.Equal(t, "1", attr(t, doc, `input[name="quantity"]`, "value"))

	// a tracked-off variant without product quantity is unbounded
	doc = parseDoc(t, c.get("/products/wool-scarf/sidebar?opt.Color=Blue&opt.Size=L", true))
	require.Equal(t, "9999", attr(t, doc, `input[name="quantity"]`, "max"))
}

func TestProductSidebarProductChangeResets(t *testing.T) {
	c := newTestClient(t)
	doc := parseDoc(t, c.get("/products/wool-scarf/sidebar?pid=prod-field-notebook&opt.Color=Blue&quantity=5", true))
	require.Equal(t, "Red", attr(t, doc, `select[name="opt.Color"] option[selected]`, "value"))
	require.Equal(t, "1", attr(t, doc, `input[name="quantity"]`, "value"))
}

func TestProductWithoutVariants(t *testing.T) {
	c := newTestClient(t)

	doc := parseDoc(t, c.get("/products/field-notebook", false))
	require.Equal(t, "$12.00", strings.TrimSpace(doc.Find(".product-price").Text()))
	require.Equal(t, "12", attr(t, doc, `input[name="quantity"]`, "max"))
	require.Equal(t, "48 dot grid pages", doc.Find(".product-description strong").Text())
	require.Equal(t, "/api/quick-buy/prod-field-notebook?quantity=1&productOptions=", attr(t, doc, `[data-action="buy-now"]`, "href"))

	doc = parseDoc(t, c.get("/products/brass-pen", false))
	require.Equal(t, 0, doc.Find(`[data-action="add-to-cart"]`).Length())
	require.Equal(t, "/products/brass-pen/notify", attr(t, doc, `[data-action="notify"]`, "hx-get"))
}

func TestUnknownProductNotFound(t *testing.T) {
	c := newTestClient(t)
	require.Equal(t, http.StatusNotFound, c.get("/products/missing", false).Code)
	require.Equal(t, http.StatusNotFound, c.get("/api/quick-buy/missing", false).Code)
}

func TestAddToCartRequiresCSRF(t *testing.T) {
	c := newTestClient(t)
	require.Equal(t, http.StatusOK, c.get("/products/wool-scarf", false).Code)
	require.NotEmpty(t, c.cookies["csrf_token"])
	require.NotEmpty(t, c.cookies["STOREFRONT_SESSION"])

	rec := c.postForm("/products/wool-scarf/cart", url.Values{"quantity": {"1"}})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestAddToCartOpensPreview(t *testing.T) {
	c := newTestClient(t)
	require.Equal(t, http.StatusOK, c.get("/products/wool-scarf", false).Code)

	rec := c.postForm("/products/wool-scarf/cart", url.Values{
		"csrf_token": {c.cookies["csrf_token"]},
		"pid":        {"prod-wool-scarf"},
		"opt.Color":  {"Red"},
		"opt.Size":   {"L"},
		"quantity":   {"2"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	trigger := rec.Header().Get("HX-Trigger")
	require.Contains(t, trigger, `"cart:open-preview"`)
	require.Contains(t, trigger, `"itemCount":2`)
	doc := parseDoc(t, rec)
	_, disabled := doc.Find(`[data-action="add-to-cart"]`).Attr("disabled")
	require.False(t, disabled)

	preview := parseDoc(t, c.get("/cart/preview", true))
	line := preview.Find(".cart-line")
	require.Equal(t, 1, line.Length())
	require.Equal(t, "Wool Scarf", strings.TrimSpace(line.Find("a").Text()))
	require.Equal(t, "Color: Red / Size: L", strings.TrimSpace(line.Find(".cart-line-detail").Text()))
	require.Equal(t, "×2", strings.TrimSpace(line.Find(".cart-line-qty").Text()))
	require.Equal(t, "/checkout", attr(t, preview, ".cart-preview a.btn", "href"))
}

func TestAddToCartFailureIsSilent(t *testing.T) {
	c := newTestClient(t)
	require.Equal(t, http.StatusOK, c.get("/products/wool-scarf", false).Code)

	rec := c.postForm("/products/wool-scarf/cart", url.Values{
		"csrf_token": {c.cookies["csrf_token"]},
		"quantity":   {"0"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Empty(t, rec.Header().Get("HX-Trigger"))
	require.Equal(t, 1, parseDoc(t, rec).Find("#product-sidebar").Length())

	preview := parseDoc(t, c.get("/cart/preview", true))
	require.Equal(t, 1, preview.Find(".cart-preview .empty").Length())
}

func TestAddToCartSkipsUnavailableSelection(t *testing.T) {
	c := newTestClient(t)
	require.Equal(t, http.StatusOK, c.get("/products/brass-pen", false).Code)

	cases := []struct {
		path string
		form url.Values
	}{
		{"/products/brass-pen/cart", url.Values{"pid": {"prod-brass-pen"}}},
		{"/products/wool-scarf/cart", url.Values{
			"pid":       {"prod-wool-scarf"},
			"opt.Color": {"Blue"},
			"opt.Size":  {"S"},
		}},
	}
	for _, tc := range cases {
		tc.form.Set("csrf_token", c.cookies["csrf_token"])
		tc.form.Set("quantity", "1")
		rec := c.postForm(tc.path, tc.form)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Empty(t, rec.Header().Get("HX-Trigger"), tc.path)
		doc := parseDoc(t, rec)
		require.Equal(t, 0, doc.Find(`[data-action="add-to-cart"]`).Length(), tc.path)
		require.Equal(t, 1, doc.Find(`[data-action="notify"]`).Length(), tc.path)
	}

	preview := parseDoc(t, c.get("/cart/preview", true))
	require.Equal(t, 0, preview.Find(".cart-line").Length())
	require.Equal(t, 1, preview.Find(".cart-preview .empty").Length())
}

func TestQuickBuyAddsRawOptionsAndRedirects(t *testing.T) {
	c := newTestClient(t)
	opts := url.QueryEscape(`{"options":{"Color":"Blue","Size":"L"}}`)
	rec := c.get("/api/quick-buy/prod-wool-scarf?quantity=2&productOptions="+opts, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/checkout", rec.Header().Get("Location"))

	preview := parseDoc(t, c.get("/cart/preview", true))
	require.Equal(t, "Color: Blue / Size: L", strings.TrimSpace(preview.Find(".cart-line-detail").Text()))
	require.Contains(t, preview.Find(".cart-count").Text(), "2")

	// an empty options value adds the plain item
	rec = c.get("/api/quick-buy/prod-field-notebook?quantity=1&productOptions=", false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, 2, parseDoc(t, c.get("/cart/preview", true)).Find(".cart-line").Length())
}

func TestQuickBuyRejectsBadInput(t *testing.T) {
	c := newTestClient(t)
	require.Equal(t, http.StatusBadRequest, c.get("/api/quick-buy/prod-wool-scarf?quantity=x", false).Code)
	require.Equal(t, http.StatusBadRequest, c.get("/api/quick-buy/prod-wool-scarf?productOptions=%7Bnope", false).Code)

	rec := c.get("/api/quick-buy/prod-wool-scarf?quantity=0", false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/products/wool-scarf", rec.Header().Get("Location"))
}

func TestNotifyModal(t *testing.T) {
	c := newTestClient(t)

	doc := parseDoc(t, c.get("/products/wool-scarf/notify?variant=var-blue-s", true))
	require.Equal(t, "var-blue-s", attr(t, doc, `input[name="variant"]`, "value"))
	doc = parseDoc(t, c.get("/products/wool-scarf/notify?variant=bogus", true))
	require.Equal(t, 0, doc.Find(`input[name="variant"]`).Length())

	token := c.cookies["csrf_token"]
	rec := c.postForm("/products/wool-scarf/notify", url.Values{"csrf_token": {token}, "variant": {"var-blue-s"}, "email": {"not-an-email"}})
	require.Equal(t, http.StatusOK, rec.Code)
	doc = parseDoc(t, rec)
	require.Equal(t, 1, doc.Find(".notice.error").Length())
	require.Equal(t, "not-an-email", attr(t, doc, `input[name="email"]`, "value"))

	rec = c.postForm("/products/wool-scarf/notify", url.Values{"csrf_token": {token}, "variant": {"var-blue-s"}, "email": {"ada@example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, parseDoc(t, rec).Find(".notice.success").Length())
}

func TestEventPageImageFetchPriority(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/events/spring-market", false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	require.Contains(t, body, `fetchPriority="high"`)
	require.NotContains(t, body, `fetchpriority="high"`)

	doc := parseDoc(t, rec)
	require.Equal(t, "Spring Market", strings.TrimSpace(doc.Find(".event-title").Text()))
	imgs := doc.Find(".event-body img")
	require.Equal(t, 2, imgs.Length())
	lazy, _ := imgs.Eq(1).Attr("loading")
	require.Equal(t, "lazy", lazy)
	require.Equal(t, "Schedule", doc.Find(".event-body h2").Text())
	require.Equal(t, 1, doc.Find(".event-body hr.rich-content-divider").Length())
}

func TestEventWithoutRichTextRendersNothing(t *testing.T) {
	c := newTestClient(t)
	rec := c.get("/events/studio-visit", false)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseDoc(t, rec)
	require.Equal(t, 0, doc.Find("article.event").Length())
	require.Equal(t, 0, doc.Find(".event-title").Length())
	require.Equal(t, 0, doc.Find(".event-body").Length())

	list := parseDoc(t, c.get("/events", false))
	require.Equal(t, 2, list.Find(".event-list li a").Length())
}
