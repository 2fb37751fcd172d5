package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries the server settings. Values are resolved in order: built-in defaults, the
// optional YAML file, environment variables, then command-line flags.
type Config struct {
	Addr          string `yaml:"addr"`
	TemplatesDir  string `yaml:"templates"`
	PublicDir     string `yaml:"public"`
	LocalesDir    string `yaml:"locales"`
	DefaultLang   string `yaml:"default_lang"`
	CatalogDir    string `yaml:"catalog_dir"`
	CatalogAPIURL string `yaml:"catalog_api_url"`
	CartAPIURL    string `yaml:"cart_api_url"`
	CheckoutURL   string `yaml:"checkout_url"`
	SessionKey    string `yaml:"session_signing_key"`
	Env           string `yaml:"env"`
	Dev           bool   `yaml:"dev"`
}

func defaultConfig() Config {
	return Config{
		Addr:         ":8080",
		TemplatesDir: "templates",
		PublicDir:    "public",
		LocalesDir:   "locales",
		DefaultLang:  "en",
		CatalogDir:   "catalog",
		CheckoutURL:  "/checkout",
	}
}

// Production reports whether cookies should be marked Secure.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "prod")
}

// loadConfig resolves the configuration for args (without the program name).
func loadConfig(args []string) (Config, error) {
	cfg := defaultConfig()

	fset := flag.NewFlagSet("web", flag.ContinueOnError)
	configPath := fset.String("config", os.Getenv("STOREFRONT_CONFIG"), "optional YAML config file")
	addr := fset.String("addr", "", "HTTP listen address")
	tmpl := fset.String("templates", "", "templates directory")
	pub := fset.String("public", "", "public assets directory")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if p := strings.TrimSpace(*configPath); p != "" {
		if err := readConfigFile(p, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *tmpl != "" {
		cfg.TemplatesDir = *tmpl
	}
	if *pub != "" {
		cfg.PublicDir = *pub
	}
	return cfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: %s does not exist", path)
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	// Port resolution: prefer STOREFRONT_PORT, then Cloud Run's PORT
	port := os.Getenv("STOREFRONT_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port != "" {
		cfg.Addr = ":" + port
	}
	setString(&cfg.LocalesDir, "STOREFRONT_LOCALES_DIR")
	setString(&cfg.DefaultLang, "STOREFRONT_DEFAULT_LANG")
	setString(&cfg.CatalogDir, "STOREFRONT_CATALOG_DIR")
	setString(&cfg.CatalogAPIURL, "STOREFRONT_CATALOG_API_URL")
	setString(&cfg.CartAPIURL, "STOREFRONT_CART_API_URL")
	setString(&cfg.CheckoutURL, "STOREFRONT_CHECKOUT_URL")
	setString(&cfg.SessionKey, "STOREFRONT_SESSION_SIGNING_KEY")
	setString(&cfg.Env, "STOREFRONT_ENV")
	// dev mode: prefer STOREFRONT_DEV, fallback to DEV
	if os.Getenv("STOREFRONT_DEV") != "" || os.Getenv("DEV") != "" {
		cfg.Dev = true
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
