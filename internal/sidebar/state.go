package sidebar

import "finitefield.org/storefront/internal/catalog"

// State is the sidebar's per-render selection state.
type State struct {
	Product  catalog.Product
	Selected catalog.SelectedOptions
	Variant  *catalog.Variant
	Quantity int
}

// New seeds a state from the product's default selection.
func New(p catalog.Product) *State {
	s := &State{}
	s.SetProduct(p)
	return s
}

// SetProduct switches to p and resets selection, variant and quantity.
func (s *State) SetProduct(p catalog.Product) {
	s.Product = p
	s.Selected = DefaultSelection(p)
	s.Variant = MatchVariant(p, s.Selected)
	s.Quantity = 1
}

// SelectOption sets one option's value, re-resolves the variant and resets the quantity.
func (s *State) SelectOption(name, value string) {
	if s.Selected == nil {
		s.Selected = catalog.SelectedOptions{}
	}
	v := value
	s.Selected[name] = &v
	s.Variant = MatchVariant(s.Product, s.Selected)
	s.Quantity = 1
}

// Increase adds one to the quantity.
func (s *State) Increase() { s.Quantity++ }

// Decrease subtracts one from the quantity. It does not stop at 1.
// TODO: clamp once product decides whether zero or negative quantities are valid input.
func (s *State) Decrease() { s.Quantity-- }

// SetQuantity sets the quantity as typed into the control.
func (s *State) SetQuantity(n int) { s.Quantity = n }

// Price is the effective price of the current selection.
func (s *State) Price() catalog.Money { return EffectivePrice(s.Product, s.Variant) }

// Ceiling is the quantity ceiling of the current selection.
func (s *State) Ceiling() Ceiling { return StockCeiling(s.Product, s.Variant) }

// Purchasable reports whether the current selection can be added to the cart.
func (s *State) Purchasable() bool { return IsPurchasable(s.Product, s.Variant) }
