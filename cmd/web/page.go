package main

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/storefront/internal/catalog"
	handlersPkg "finitefield.org/storefront/internal/handlers"
	mw "finitefield.org/storefront/internal/middleware"
	"finitefield.org/storefront/internal/nav"
	"finitefield.org/storefront/internal/observability"
	"finitefield.org/storefront/internal/seo"
)

// i18nOrDefault translates key, falling back to def when the bundle has no entry.
func i18nOrDefault(lang, key, def string) string {
	if i18nBundle == nil {
		return def
	}
	if v := i18nBundle.T(lang, key); v != "" && v != key {
		return v
	}
	return def
}

// absoluteURL reconstructs the request URL for canonical links.
func absoluteURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

// newPageData fills the layout fields shared by every page.
func newPageData(r *http.Request, title, desc, leaf string) handlersPkg.PageData {
	lang := mw.Lang(r)
	brand := i18nOrDefault(lang, "brand.name", "Finite Field Store")
	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path, leaf),
		Analytics:   handlersPkg.LoadAnalyticsFromEnv(),
		CSRFToken:   mw.CSRFToken(r),
	}
	vm.SEO.Title = title + " | " + brand
	vm.SEO.Description = desc
	vm.SEO.Canonical = absoluteURL(r)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = brand
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "website"
	vm.SEO.Twitter.Card = "summary_large_image"
	if crumbs := breadcrumbSchema(r, lang, vm.Breadcrumbs); crumbs != nil {
		vm.SEO.JSONLD = append(vm.SEO.JSONLD, seo.JSON(crumbs))
	}
	return vm
}

func breadcrumbSchema(r *http.Request, lang string, crumbs []nav.Crumb) map[string]any {
	if len(crumbs) == 0 {
		return nil
	}
	origin := strings.TrimSuffix(absoluteURL(r), r.URL.Path)
	items := make([]seo.BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		label := c.Label
		if c.LabelKey != "" {
			label = i18nOrDefault(lang, c.LabelKey, c.Href)
		}
		items = append(items, seo.BreadcrumbItem{Name: label, Item: origin + c.Href})
	}
	return seo.BreadcrumbList(items)
}

// catalogError maps a catalog lookup failure to a response.
func catalogError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		mw.WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	observability.FromContext(r.Context()).Error("catalog lookup", zap.String("path", r.URL.Path), zap.Error(err))
	mw.WriteError(w, r, http.StatusBadGateway, "catalog unavailable")
}
