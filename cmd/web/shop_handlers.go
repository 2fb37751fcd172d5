package main

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/cart"
	"finitefield.org/storefront/internal/format"
	mw "finitefield.org/storefront/internal/middleware"
	"finitefield.org/storefront/internal/observability"
	"finitefield.org/storefront/internal/sidebar"
)

// ShopView lists products on the shop page.
type ShopView struct {
	Lang     string
	Products []ShopItem
}

// ShopItem is one product card.
type ShopItem struct {
	Href     string
	Name     string
	Price    string
	Image    string
	ImageAlt string
	InStock  bool
}

// ShopHandler renders the product listing.
func ShopHandler(w http.ResponseWriter, r *http.Request) {
	products, err := catalogClient.ListProducts(r.Context())
	if err != nil {
		catalogError(w, r, err)
		return
	}
	lang := mw.Lang(r)
	view := ShopView{Lang: lang}
	for _, p := range products {
		// cards show the default selection's price and availability
		s := sidebar.New(p)
		price := s.Price()
		view.Products = append(view.Products, ShopItem{
			Href:     "/products/" + url.PathEscape(p.Slug),
			Name:     p.Name,
			Price:    format.Price(price.Amount, price.Currency, lang),
			Image:    p.Media.URL,
			ImageAlt: p.Media.AltText,
			InStock:  s.Purchasable(),
		})
	}

	title := i18nOrDefault(lang, "shop.title", "Shop")
	vm := newPageData(r, title, i18nOrDefault(lang, "shop.description", ""), "")
	vm.Shop = view
	renderPage(w, r, "shop", vm)
}

// CartPreviewView is the cart drawer opened after an add.
type CartPreviewView struct {
	Lang        string
	Lines       []CartPreviewLine
	ItemCount   int
	Empty       bool
	CheckoutURL string
}

// CartPreviewLine is one line of the drawer.
type CartPreviewLine struct {
	Name     string
	Href     string
	Detail   string
	Quantity int
}

// CartPreviewFrag renders the session cart's contents.
func CartPreviewFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	view := CartPreviewView{Lang: lang, Empty: true, CheckoutURL: checkoutURL}
	if id := mw.GetSession(r).CartID; id != "" {
		c, err := cartClient.GetCart(r.Context(), id)
		if err != nil {
			observability.FromContext(r.Context()).Warn("load cart preview", zap.String("cart_id", id), zap.Error(err))
		}
		for _, l := range c.Lines {
			view.Lines = append(view.Lines, previewLine(r, l))
		}
		view.ItemCount = c.ItemCount
		view.Empty = len(view.Lines) == 0
	}
	renderTemplate(w, r, "frag_cart_preview", view)
}

func previewLine(r *http.Request, l cart.Line) CartPreviewLine {
	line := CartPreviewLine{Name: l.CatalogReference.CatalogItemID, Quantity: l.Quantity}
	p, err := catalogClient.GetProductByID(r.Context(), l.CatalogReference.CatalogItemID)
	if err != nil {
		return line
	}
	line.Name = p.Name
	line.Href = "/products/" + url.PathEscape(p.Slug)
	if id := l.CatalogReference.VariantID(); id != "" {
		for _, v := range p.Variants {
			if v.ID == id {
				line.Detail = choiceSummary(p.Options, v.Choices)
				break
			}
		}
	} else if opts := l.CatalogReference.SelectedOptions(); len(opts) > 0 {
		choices := map[string]string{}
		for name := range opts {
			if v, ok := opts.Value(name); ok {
				choices[name] = v
			}
		}
		line.Detail = choiceSummary(p.Options, choices)
	}
	return line
}
