package main

import (
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/cart"
	"finitefield.org/storefront/internal/catalog"
	"finitefield.org/storefront/internal/format"
	mw "finitefield.org/storefront/internal/middleware"
	"finitefield.org/storefront/internal/observability"
	"finitefield.org/storefront/internal/purchase"
	"finitefield.org/storefront/internal/richtext"
	"finitefield.org/storefront/internal/seo"
	"finitefield.org/storefront/internal/sidebar"
)

// ProductHandler renders the product page with the purchase sidebar.
func ProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := catalogClient.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	state := sidebarState(p, r.URL.Query())
	view := productView(r, state)

	vm := newPageData(r, p.Name, richtext.PlainText(p.Description, p.DescriptionFormat, 160), p.Name)
	vm.SEO.OG.Type = "product"
	vm.SEO.OG.Image = p.Media.URL
	vm.SEO.Twitter.Image = p.Media.URL
	vm.SEO.JSONLD = append(vm.SEO.JSONLD, seo.JSON(productSchema(p, state, vm.SEO.Canonical)))
	vm.Product = view

	renderPage(w, r, "product", vm)
}

// ProductSidebarFrag re-renders the sidebar after an option or quantity edit and pushes the
// resulting selection into the address bar.
func ProductSidebarFrag(w http.ResponseWriter, r *http.Request) {
	p, err := catalogClient.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	state := sidebarState(p, r.URL.Query())
	push := "/products/" + url.PathEscape(p.Slug)
	if q := stateQuery(state).Encode(); q != "" {
		push += "?" + q
	}
	w.Header().Set("HX-Push-Url", push)
	renderTemplate(w, r, "frag_product_sidebar", productView(r, state))
}

// ProductAddToCartHandler adds the current selection to the session's cart. A successful add
// asks the client to open the cart preview; a failed add re-renders the sidebar unchanged.
func ProductAddToCartHandler(w http.ResponseWriter, r *http.Request) {
	p, err := catalogClient.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	state := sidebarState(p, r.PostForm)
	added := false
	// unavailable selections take the same silent path as a failed add
	if state.Purchasable() {
		sess := mw.GetSession(r)
		line := purchase.Line{
			CartID:    sess.EnsureCartID(),
			Quantity:  state.Quantity,
			Reference: purchase.BuildCartReference(p, state.Selected, state.Variant),
		}
		added = dispatcher.AddToCart(r.Context(), line, func(resp cart.AddItemResponse) {
			mw.Trigger(w, "cart:open-preview", map[string]any{
				"cartId":    resp.CartID,
				"lineId":    resp.LineItemID,
				"itemCount": resp.ItemCount,
			})
		})
	} else {
		observability.FromContext(r.Context()).Debug("add to cart skipped for unavailable selection",
			zap.String("product_id", p.ID),
		)
	}

	if !mw.IsHTMX(r.Context()) {
		target := "/products/" + url.PathEscape(p.Slug)
		if added {
			target = "/cart/preview"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "frag_product_sidebar", productView(r, state))
}

// NotifyView is the back-in-stock modal view model.
type NotifyView struct {
	Lang      string
	Slug      string
	Name      string
	VariantID string
	Email     string
	ActionURL string
	CSRFToken string
	CSRFField string
	Done      bool
	Error     string
}

// ProductNotifyModal renders the back-in-stock modal for the selected variant.
func ProductNotifyModal(w http.ResponseWriter, r *http.Request) {
	p, err := catalogClient.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	renderTemplate(w, r, "frag_product_notify", notifyView(r, p, r.URL.Query().Get("variant")))
}

// ProductNotifySubmitHandler records a back-in-stock request and acknowledges it.
func ProductNotifySubmitHandler(w http.ResponseWriter, r *http.Request) {
	p, err := catalogClient.GetProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	view := notifyView(r, p, r.PostFormValue("variant"))
	view.Email = strings.TrimSpace(r.PostFormValue("email"))
	addr, err := mail.ParseAddress(view.Email)
	if err != nil {
		view.Error = i18nOrDefault(view.Lang, "product.notify_invalid", "Enter a valid email address.")
		renderTemplate(w, r, "frag_product_notify", view)
		return
	}
	observability.FromContext(r.Context()).Info("back in stock request",
		zap.String("product_id", p.ID),
		zap.String("variant_id", view.VariantID),
		zap.String("email", addr.Address),
	)
	view.Done = true
	renderTemplate(w, r, "frag_product_notify", view)
}

// QuickBuyHandler consumes buy-now links: it adds the encoded line to the session's cart and
// continues to checkout. When the add fails the shopper is sent back to the product page.
func QuickBuyHandler(w http.ResponseWriter, r *http.Request) {
	p, err := catalogClient.GetProductByID(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	q := r.URL.Query()
	qty := 1
	if raw := strings.TrimSpace(q.Get("quantity")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid quantity", http.StatusBadRequest)
			return
		}
		qty = n
	}
	opts, err := purchase.ParseBuyNowOptions(q.Get("productOptions"))
	if err != nil {
		http.Error(w, "invalid product options", http.StatusBadRequest)
		return
	}
	// the link only carries raw options; an empty value adds the plain item
	ref := purchase.BuildCartReference(p, opts, nil)

	sess := mw.GetSession(r)
	line := purchase.Line{CartID: sess.EnsureCartID(), Quantity: qty, Reference: ref}
	if !dispatcher.AddToCart(r.Context(), line, nil) {
		http.Redirect(w, r, "/products/"+url.PathEscape(p.Slug), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

func productView(r *http.Request, state *sidebar.State) ProductView {
	sess := mw.GetSession(r)
	loading := dispatcher.Loading(sess.CartID, state.Product.ID)
	return buildProductView(mw.Lang(r), state, loading, mw.CSRFToken(r))
}

func notifyView(r *http.Request, p catalog.Product, variantID string) NotifyView {
	variantID = strings.TrimSpace(variantID)
	known := false
	for _, v := range p.Variants {
		if v.ID == variantID {
			known = true
			break
		}
	}
	if !known {
		variantID = ""
	}
	return NotifyView{
		Lang:      mw.Lang(r),
		Slug:      p.Slug,
		Name:      p.Name,
		VariantID: variantID,
		ActionURL: "/products/" + url.PathEscape(p.Slug) + "/notify",
		CSRFToken: mw.CSRFToken(r),
		CSRFField: mw.CSRFFormField,
	}
}

// stateQuery serializes the selection and quantity so the page can be reloaded as is.
func stateQuery(s *sidebar.State) url.Values {
	q := url.Values{}
	for _, opt := range s.Product.Options {
		if v, ok := s.Selected.Value(opt.Name); ok {
			q.Set(optionFieldPrefix+opt.Name, v)
		}
	}
	if s.Quantity != 1 {
		q.Set("quantity", strconv.Itoa(s.Quantity))
	}
	return q
}

func productSchema(p catalog.Product, s *sidebar.State, canonical string) map[string]any {
	offer := seo.Offer{URL: canonical, InStock: s.Purchasable()}
	if price := s.Price(); price.Amount != nil {
		offer.Price = format.Decimal(*price.Amount, price.Currency)
		offer.Currency = price.Currency
	}
	return seo.Product(p.Name, richtext.PlainText(p.Description, p.DescriptionFormat, 0), canonical, p.Media.URL, p.SKU, offer)
}
