package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/shop"
	LabelKey string // i18n key, e.g. "nav.shop"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/shop", LabelKey: "nav.shop"},
	{Path: "/events", LabelKey: "nav.events"},
}

// sections maps detail routes to the listing they belong to.
var sections = map[string]string{
	"products": "/shop",
	"events":   "/events",
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	section := sectionOf(currentPath)
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   it.Path == section,
		})
	}
	return items
}

// Breadcrumbs returns the section crumb plus, for detail pages, a final crumb labelled leaf.
func Breadcrumbs(currentPath, leaf string) []Crumb {
	section := sectionOf(currentPath)
	if section == "" {
		return nil
	}
	var crumbs []Crumb
	for _, it := range Main {
		if it.Path == section {
			crumbs = append(crumbs, Crumb{Href: it.Path, LabelKey: it.LabelKey, Active: path.Clean(currentPath) == section})
		}
	}
	if leaf != "" && path.Clean(currentPath) != section {
		crumbs = append(crumbs, Crumb{Href: path.Clean(currentPath), Label: leaf, Active: true})
	}
	return crumbs
}

func sectionOf(currentPath string) string {
	clean := path.Clean("/" + strings.TrimSpace(currentPath))
	first := strings.SplitN(strings.TrimPrefix(clean, "/"), "/", 2)[0]
	if s, ok := sections[first]; ok {
		return s
	}
	for _, it := range Main {
		if it.Path == "/"+first {
			return it.Path
		}
	}
	return ""
}
