package seo

import (
	"encoding/json"
	"html/template"
)

// JSON marshals v to a compact JSON string for a ld+json script tag. It returns an empty
// string on error.
func JSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Offer is the purchasable part of a Product schema.
type Offer struct {
	// Price is the decimal price string, e.g. "25.50". Empty omits the offer.
	Price    string
	Currency string
	InStock  bool
	URL      string
}

// Product returns a product schema payload with an optional offer.
func Product(name, description, url, imageURL, sku string, offer Offer) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Product",
		"name":     name,
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if sku != "" {
		m["sku"] = sku
	}
	if offer.Price != "" {
		availability := "https://schema.org/OutOfStock"
		if offer.InStock {
			availability = "https://schema.org/InStock"
		}
		o := map[string]any{
			"@type":         "Offer",
			"price":         offer.Price,
			"priceCurrency": offer.Currency,
			"availability":  availability,
		}
		if offer.URL != "" {
			o["url"] = offer.URL
		}
		m["offers"] = o
	}
	return m
}

// Event returns a minimal Event schema payload.
func Event(name, description, url string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Event",
		"name":     name,
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	return m
}
