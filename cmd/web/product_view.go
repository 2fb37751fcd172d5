package main

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"finitefield.org/storefront/internal/catalog"
	"finitefield.org/storefront/internal/format"
	mw "finitefield.org/storefront/internal/middleware"
	"finitefield.org/storefront/internal/purchase"
	"finitefield.org/storefront/internal/richtext"
	"finitefield.org/storefront/internal/sidebar"
)

// optionFieldPrefix prefixes option selects in the sidebar form, e.g. "opt.Color".
const optionFieldPrefix = "opt."

// ProductView is the view model for the product page and its sidebar fragment.
type ProductView struct {
	Lang string

	ID    string
	Slug  string
	Name  string
	SKU   string
	Price string
	Image catalog.Media

	Options []OptionView

	Quantity    int
	MaxQuantity int
	Unbounded   bool
	Purchasable bool
	Loading     bool
	VariantID   string

	Description  template.HTML
	InfoSections []InfoSectionView

	SidebarURL string
	CartURL    string
	BuyNowURL  string
	NotifyURL  string
	CSRFToken  string
	CSRFField  string
}

// OptionView is one option picker.
type OptionView struct {
	Name    string
	Field   string
	Choices []ChoiceView
}

// ChoiceView is one entry of an option picker.
type ChoiceView struct {
	Value    string
	Label    string
	Swatch   string
	Selected bool
	Disabled bool
}

// InfoSectionView is one additional-info accordion panel.
type InfoSectionView struct {
	Title string
	Body  template.HTML
}

// sidebarState rebuilds the sidebar state from a query or form. Option values are applied
// as edits over the defaults. A request naming a different product (pid) starts over from
// the defaults, as does an option edit (edit) for the quantity. Otherwise the submitted
// quantity is restored and an optional step (inc|dec) applied on top.
func sidebarState(p catalog.Product, v url.Values) *sidebar.State {
	s := sidebar.New(p)
	if pid := strings.TrimSpace(v.Get("pid")); pid != "" && pid != p.ID {
		return s
	}
	for _, opt := range p.Options {
		val := v.Get(optionFieldPrefix + opt.Name)
		if val == "" || !hasChoice(opt, val) {
			continue
		}
		if cur, ok := s.Selected.Value(opt.Name); ok && cur == val {
			continue
		}
		s.SelectOption(opt.Name, val)
	}
	if v.Get("edit") != "" {
		return s
	}
	// non-numeric input keeps the previous quantity
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get("quantity"))); err == nil {
		s.SetQuantity(n)
	}
	switch v.Get("step") {
	case "inc":
		s.Increase()
	case "dec":
		s.Decrease()
	}
	return s
}

func hasChoice(opt catalog.ProductOption, val string) bool {
	for _, c := range opt.Choices {
		if c.Description == val {
			return true
		}
	}
	return false
}

// buildProductView renders the sidebar state into a view model.
func buildProductView(lang string, s *sidebar.State, loading bool, csrf string) ProductView {
	p := s.Product
	price := s.Price()
	ceiling := s.Ceiling()
	base := "/products/" + url.PathEscape(p.Slug)

	view := ProductView{
		Lang:        lang,
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		SKU:         p.SKU,
		Price:       format.Price(price.Amount, price.Currency, lang),
		Image:       p.Media,
		Quantity:    s.Quantity,
		MaxQuantity: ceiling.Max,
		Unbounded:   ceiling.Unbounded,
		Purchasable: s.Purchasable(),
		Loading:     loading,
		Description: richtext.Markup(p.Description, p.DescriptionFormat),
		SidebarURL:  base + "/sidebar",
		CartURL:     base + "/cart",
		BuyNowURL:   purchase.BuyNowLink(p, s.Quantity, s.Selected, s.Variant),
		CSRFToken:   csrf,
		CSRFField:   mw.CSRFFormField,
	}
	if s.Variant != nil {
		view.VariantID = s.Variant.ID
		if s.Variant.SKU != "" {
			view.SKU = s.Variant.SKU
		}
	}

	notify := url.Values{}
	if view.VariantID != "" {
		notify.Set("variant", view.VariantID)
	}
	view.NotifyURL = base + "/notify"
	if len(notify) > 0 {
		view.NotifyURL += "?" + notify.Encode()
	}

	for _, opt := range p.Options {
		ov := OptionView{Name: opt.Name, Field: optionFieldPrefix + opt.Name}
		selected, _ := s.Selected.Value(opt.Name)
		for _, c := range opt.Choices {
			if c.Visible != nil && !*c.Visible {
				continue
			}
			ov.Choices = append(ov.Choices, ChoiceView{
				Value:    c.Description,
				Label:    c.Description,
				Swatch:   swatch(opt, c),
				Selected: c.Description == selected,
				Disabled: c.InStock != nil && !*c.InStock,
			})
		}
		view.Options = append(view.Options, ov)
	}

	for _, sec := range p.AdditionalInfo {
		view.InfoSections = append(view.InfoSections, InfoSectionView{
			Title: sec.Title,
			Body:  richtext.Markup(sec.Description, p.DescriptionFormat),
		})
	}
	return view
}

// swatch returns the color value for color options.
func swatch(opt catalog.ProductOption, c catalog.Choice) string {
	if !strings.EqualFold(opt.OptionType, "color") {
		return ""
	}
	return c.Value
}

// choiceSummary renders "Color: Red / Size: M" in option order.
func choiceSummary(options []catalog.ProductOption, choices map[string]string) string {
	parts := make([]string, 0, len(options))
	for _, opt := range options {
		if v, ok := choices[opt.Name]; ok && v != "" {
			parts = append(parts, opt.Name+": "+v)
		}
	}
	return strings.Join(parts, " / ")
}
