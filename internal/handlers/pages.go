package handlers

import (
	"finitefield.org/storefront/internal/nav"
	"finitefield.org/storefront/internal/seo"
)

// PageData is the view model for pages using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	SEO       seo.Meta
	Analytics Analytics
	CSRFToken string

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	// Optional per-page view model payloads
	Shop    any
	Product any
	Event   any
}
