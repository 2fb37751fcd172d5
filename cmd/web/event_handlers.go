package main

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mw "finitefield.org/storefront/internal/middleware"
	"finitefield.org/storefront/internal/observability"
	"finitefield.org/storefront/internal/seo"
)

// EventView is the event detail view model. Body is empty when the event has no rich text.
type EventView struct {
	Lang    string
	Title   string
	Summary string
	Body    template.HTML
}

// EventListView lists upcoming events.
type EventListView struct {
	Lang   string
	Events []EventListItem
}

// EventListItem is one event link.
type EventListItem struct {
	Href    string
	Title   string
	Summary string
}

// EventsHandler renders the event listing.
func EventsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := catalogClient.ListEvents(r.Context())
	if err != nil {
		catalogError(w, r, err)
		return
	}
	lang := mw.Lang(r)
	view := EventListView{Lang: lang}
	for _, ev := range events {
		view.Events = append(view.Events, EventListItem{
			Href:    "/events/" + url.PathEscape(ev.Slug),
			Title:   ev.Title,
			Summary: ev.Summary,
		})
	}
	title := i18nOrDefault(lang, "events.title", "Events")
	vm := newPageData(r, title, "", "")
	vm.Event = view
	renderPage(w, r, "events", vm)
}

// EventHandler renders an event page. The rich-text body goes through the patched viewer
// so lead images carry fetchPriority.
func EventHandler(w http.ResponseWriter, r *http.Request) {
	ev, err := catalogClient.GetEvent(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		catalogError(w, r, err)
		return
	}
	body, err := eventViewer.RenderHTML(ev.RichText)
	if err != nil {
		observability.FromContext(r.Context()).Error("render event body", zap.String("event_id", ev.ID), zap.Error(err))
		body = ""
	}
	view := EventView{
		Lang:    mw.Lang(r),
		Title:   ev.Title,
		Summary: ev.Summary,
		Body:    body,
	}

	vm := newPageData(r, ev.Title, ev.Summary, ev.Title)
	vm.SEO.OG.Type = "article"
	vm.SEO.JSONLD = append(vm.SEO.JSONLD, seo.JSON(seo.Event(ev.Title, ev.Summary, vm.SEO.Canonical)))
	vm.Event = view
	renderPage(w, r, "event", vm)
}
