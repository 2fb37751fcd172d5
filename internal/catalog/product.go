package catalog

import "finitefield.org/storefront/internal/richtext"

// Money is an amount in minor units. A nil Amount means the source carried no price.
type Money struct {
	Amount   *int64 `json:"amount,omitempty" yaml:"amount"`
	Currency string `json:"currency,omitempty" yaml:"currency"`
}

// Stock describes availability. Nil pointers mean the source did not report the value.
type Stock struct {
	InStock       *bool `json:"inStock,omitempty" yaml:"inStock"`
	TrackQuantity bool  `json:"trackQuantity,omitempty" yaml:"trackQuantity"`
	Quantity      *int  `json:"quantity,omitempty" yaml:"quantity"`
}

// Available reports the in-stock flag, treating a missing flag as out of stock.
func (s Stock) Available() bool {
	return s.InStock != nil && *s.InStock
}

// Choice is one selectable value of an option. Description doubles as the selection value.
type Choice struct {
	Description string `json:"description" yaml:"description"`
	Value       string `json:"value,omitempty" yaml:"value"`
	InStock     *bool  `json:"inStock,omitempty" yaml:"inStock"`
	Visible     *bool  `json:"visible,omitempty" yaml:"visible"`
}

// ProductOption is a named option with ordered choices.
type ProductOption struct {
	Name       string   `json:"name" yaml:"name"`
	OptionType string   `json:"optionType,omitempty" yaml:"optionType"`
	Choices    []Choice `json:"choices" yaml:"choices"`
}

// Variant is a concrete purchasable configuration bound to one choice per option.
type Variant struct {
	ID      string            `json:"id" yaml:"id"`
	Choices map[string]string `json:"choices" yaml:"choices"`
	Price   Money             `json:"price" yaml:"price"`
	Stock   Stock             `json:"stock" yaml:"stock"`
	SKU     string            `json:"sku,omitempty" yaml:"sku"`
}

// InfoSection is an additional-info panel shown under the description.
type InfoSection struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Media is the product's main image.
type Media struct {
	URL     string `json:"url,omitempty" yaml:"url"`
	AltText string `json:"altText,omitempty" yaml:"altText"`
}

// Product is the storefront view of a catalog item.
type Product struct {
	ID                string          `json:"id" yaml:"id"`
	Slug              string          `json:"slug" yaml:"slug"`
	Name              string          `json:"name" yaml:"name"`
	Description       string          `json:"description,omitempty" yaml:"description"`
	DescriptionFormat string          `json:"descriptionFormat,omitempty" yaml:"descriptionFormat"`
	SKU               string          `json:"sku,omitempty" yaml:"sku"`
	Price             Money           `json:"price" yaml:"price"`
	Stock             Stock           `json:"stock" yaml:"stock"`
	ManageVariants    bool            `json:"manageVariants" yaml:"manageVariants"`
	Options           []ProductOption `json:"productOptions,omitempty" yaml:"productOptions"`
	Variants          []Variant       `json:"variants,omitempty" yaml:"variants"`
	AdditionalInfo    []InfoSection   `json:"additionalInfoSections,omitempty" yaml:"additionalInfoSections"`
	Media             Media           `json:"media,omitempty" yaml:"media"`
}

// SelectedOptions maps option name to the selected choice value, nil when unresolved.
type SelectedOptions map[string]*string

// Value returns the selected value for name and whether one is set.
func (s SelectedOptions) Value(name string) (string, bool) {
	v, ok := s[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Clone copies the map and the pointed-to values.
func (s SelectedOptions) Clone() SelectedOptions {
	if s == nil {
		return nil
	}
	out := make(SelectedOptions, len(s))
	for k, v := range s {
		if v == nil {
			out[k] = nil
			continue
		}
		val := *v
		out[k] = &val
	}
	return out
}

// Event is a storefront event page.
type Event struct {
	ID       string             `json:"id" yaml:"id"`
	Slug     string             `json:"slug" yaml:"slug"`
	Title    string             `json:"title" yaml:"title"`
	Summary  string             `json:"shortDescription,omitempty" yaml:"shortDescription"`
	RichText *richtext.Document `json:"richText,omitempty" yaml:"richText"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// AmountPtr returns a pointer to n.
func AmountPtr(n int64) *int64 { return &n }
