package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/cart"
	"finitefield.org/storefront/internal/catalog"
	"finitefield.org/storefront/internal/format"
	"finitefield.org/storefront/internal/i18n"
	mw "finitefield.org/storefront/internal/middleware"
	"finitefield.org/storefront/internal/observability"
	"finitefield.org/storefront/internal/purchase"
	"finitefield.org/storefront/internal/richtext"
)

var (
	templatesDir = "templates"
	publicDir    = "public"
	// devMode is set in main() from STOREFRONT_DEV (preferred) or DEV (fallback)
	devMode   bool
	tmplCache *template.Template

	i18nBundle    *i18n.Bundle
	catalogClient *catalog.Client
	cartClient    *cart.Client
	dispatcher    *purchase.Dispatcher
	eventViewer   *richtext.Viewer
	checkoutURL   = "/checkout"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := setup(cfg); err != nil {
		logger.Fatal("setup", zap.Error(err))
	}

	if !devMode {
		// Parse templates once in production
		tc, err := parseTemplates()
		if err != nil {
			logger.Fatal("parse templates", zap.Error(err))
		}
		tmplCache = tc
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("web listening", zap.String("addr", cfg.Addr), zap.Bool("dev_mode", devMode))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
}

// setup wires the package-level collaborators from cfg.
func setup(cfg Config) error {
	templatesDir = cfg.TemplatesDir
	publicDir = cfg.PublicDir
	devMode = cfg.Dev
	if strings.TrimSpace(cfg.CheckoutURL) != "" {
		checkoutURL = cfg.CheckoutURL
	}

	bundle, err := i18n.Load(cfg.LocalesDir, cfg.DefaultLang, nil)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	i18nBundle = bundle

	catalogClient = catalog.NewClient(cfg.CatalogAPIURL)
	catalogClient.SetCatalogDir(cfg.CatalogDir)
	cartClient = cart.NewClient(cfg.CartAPIURL)
	dispatcher = purchase.NewDispatcher(cartClient)
	eventViewer = richtext.NewViewer(richtext.PatchImageRenderer(richtext.QuickStartPlugins()))

	mw.ConfigureSession(cfg.SessionKey, cfg.Production())
	return nil
}

func newRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP. Ensure only trusted proxies
	// can set these headers in production environments.
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Static assets under /assets/
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(publicDir, "assets"), devMode)))

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(mw.Session)
		r.Use(mw.Locale(i18nBundle))
		r.Use(mw.CSRF)
		r.Use(mw.VaryLocale)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/shop", http.StatusFound)
		})
		r.Get("/shop", ShopHandler)

		r.Route("/products/{slug}", func(r chi.Router) {
			r.Get("/", ProductHandler)
			r.Get("/sidebar", ProductSidebarFrag)
			r.Post("/cart", ProductAddToCartHandler)
			r.Get("/notify", ProductNotifyModal)
			r.Post("/notify", ProductNotifySubmitHandler)
		})

		r.Get("/cart/preview", CartPreviewFrag)
		r.Get("/api/quick-buy/{productId}", QuickBuyHandler)

		r.Get("/events", EventsHandler)
		r.Get("/events/{slug}", EventHandler)
	})
	return r
}

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			if i18nBundle == nil {
				return key
			}
			return i18nBundle.T(lang, key)
		},
		"price": format.Price,
	}
	// Recursively discover and parse all .tmpl files. Note: ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

func templates() (*template.Template, error) {
	if devMode {
		return parseTemplates()
	}
	if tmplCache == nil {
		return nil, fmt.Errorf("template not initialized")
	}
	return tmplCache, nil
}

// renderPage executes the page template "page_<page>", which wraps its content in the shared
// layout. In dev mode, templates are reparsed on each request.
func renderPage(w http.ResponseWriter, r *http.Request, page string, data any) {
	renderTemplate(w, r, "page_"+page, data)
}

// renderTemplate executes a single named template, typically an htmx fragment.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, err := templates()
	if err != nil {
		http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, fmt.Sprintf("template exec error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
