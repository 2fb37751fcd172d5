// Package sidebar derives the purchase sidebar state of a product page: which variant the
// shopper's option choices resolve to, what it costs, how many can be picked and whether it
// can be bought at all.
package sidebar

import "finitefield.org/storefront/internal/catalog"

// UnboundedStock is the quantity ceiling shown when no stock quantity is tracked. It only
// bounds the quantity control and is not a supply constraint.
const UnboundedStock = 9999

// Ceiling is the quantity control's upper bound.
type Ceiling struct {
	Max       int
	Unbounded bool
}

// DefaultSelection picks the first choice of every option, or nil for an option without
// choices.
func DefaultSelection(p catalog.Product) catalog.SelectedOptions {
	sel := make(catalog.SelectedOptions, len(p.Options))
	for _, opt := range p.Options {
		if len(opt.Choices) == 0 {
			sel[opt.Name] = nil
			continue
		}
		v := opt.Choices[0].Description
		sel[opt.Name] = &v
	}
	return sel
}

// MatchVariant returns the first variant, in list order, whose every choice is satisfied by
// sel. Products that do not manage variants never match.
func MatchVariant(p catalog.Product, sel catalog.SelectedOptions) *catalog.Variant {
	if !p.ManageVariants {
		return nil
	}
	for i := range p.Variants {
		if satisfies(p.Variants[i].Choices, sel) {
			return &p.Variants[i]
		}
	}
	return nil
}

func satisfies(choices map[string]string, sel catalog.SelectedOptions) bool {
	for name, want := range choices {
		got, ok := sel.Value(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// EffectivePrice is the variant's price when one is resolved and carries a non-zero amount,
// otherwise the product's base price. The currency is always the product's.
func EffectivePrice(p catalog.Product, v *catalog.Variant) catalog.Money {
	amount := p.Price.Amount
	if v != nil && v.Price.Amount != nil && *v.Price.Amount != 0 {
		amount = v.Price.Amount
	}
	return catalog.Money{Amount: amount, Currency: p.Price.Currency}
}

// StockCeiling bounds the quantity control: the variant's quantity when it tracks stock,
// else the product's quantity, else UnboundedStock.
func StockCeiling(p catalog.Product, v *catalog.Variant) Ceiling {
	var qty *int
	if v != nil && v.Stock.TrackQuantity {
		qty = v.Stock.Quantity
	} else {
		qty = p.Stock.Quantity
	}
	if qty == nil {
		return Ceiling{Max: UnboundedStock, Unbounded: true}
	}
	return Ceiling{Max: *qty}
}

// IsPurchasable reports whether the add-to-cart actions are offered. Without managed variants
// the product's stock flag decides; with them a resolved, in-stock variant is required.
func IsPurchasable(p catalog.Product, v *catalog.Variant) bool {
	if !p.ManageVariants {
		return p.Stock.Available()
	}
	return v != nil && v.Stock.Available()
}
