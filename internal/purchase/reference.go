// Package purchase turns a sidebar selection into cart service calls: the catalog reference
// of a line item, the buy-now deep link and the guarded add-to-cart dispatch.
package purchase

import (
	"encoding/json"
	"fmt"
	"net/url"

	"finitefield.org/storefront/internal/cart"
	"finitefield.org/storefront/internal/catalog"
)

// StoresAppID identifies the stores catalog to the cart service.
const StoresAppID = "1380b703-ce81-ff05-f115-39571d94dfcd"

// BuildCartReference returns the catalog reference for p. An empty selection yields a plain
// item; otherwise the resolved variant id is used when there is one, and the raw selection
// when there is not. The reference never carries both.
func BuildCartReference(p catalog.Product, sel catalog.SelectedOptions, v *catalog.Variant) cart.CatalogReference {
	ref := cart.CatalogReference{
		CatalogItemID: p.ID,
		AppID:         StoresAppID,
	}
	ref.Options = referenceOptions(sel, v)
	return ref
}

func referenceOptions(sel catalog.SelectedOptions, v *catalog.Variant) *cart.ReferenceOptions {
	if len(sel) == 0 {
		return nil
	}
	if v != nil && v.ID != "" {
		return &cart.ReferenceOptions{VariantID: v.ID}
	}
	return &cart.ReferenceOptions{Options: sel.Clone()}
}

// optionsPortion is the raw-options shape carried by the buy-now link.
type optionsPortion struct {
	Options catalog.SelectedOptions `json:"options"`
}

// BuyNowLink builds the quick-buy path for the current selection. Only the raw-options
// portion of the reference is encoded; a selection resolved to a variant id leaves the
// productOptions parameter empty.
func BuyNowLink(p catalog.Product, quantity int, sel catalog.SelectedOptions, v *catalog.Variant) string {
	encoded := ""
	if opts := referenceOptions(sel, v); opts != nil && opts.VariantID == "" {
		if b, err := json.Marshal(optionsPortion{Options: opts.Options}); err == nil {
			encoded = url.QueryEscape(string(b))
		}
	}
	return fmt.Sprintf("/api/quick-buy/%s?quantity=%d&productOptions=%s", url.PathEscape(p.ID), quantity, encoded)
}

// ParseBuyNowOptions decodes the productOptions parameter of a quick-buy link. An empty value
// yields nil.
func ParseBuyNowOptions(raw string) (catalog.SelectedOptions, error) {
	if raw == "" {
		return nil, nil
	}
	var portion optionsPortion
	if err := json.Unmarshal([]byte(raw), &portion); err != nil {
		return nil, fmt.Errorf("purchase: decode product options: %w", err)
	}
	return portion.Options, nil
}
