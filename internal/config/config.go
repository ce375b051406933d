// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Services holds the base URLs of the three backend services.
type Services struct {
	AuthURL    string `yaml:"auth_url"`
	CatalogURL string `yaml:"catalog_url"`
	OrderURL   string `yaml:"order_url"`
	DefaultURL string `yaml:"default_url"`
}

// Storage selects and configures the durable key-value store.
type Storage struct {
	Driver string `yaml:"driver"` // memory, sqlite, postgres, redis
	DSN    string `yaml:"dsn"`
	Secret string `yaml:"secret"`
}

// Events configures the optional broker that UI events are published to.
type Events struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

// Config is the storefront configuration.
type Config struct {
	Port            string        `yaml:"port"`
	Services        Services      `yaml:"services"`
	Storage         Storage       `yaml:"storage"`
	Events          Events        `yaml:"events"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ClientRateLimit float64       `yaml:"client_rate_limit"`
	BreakerEnabled  bool          `yaml:"breaker_enabled"`
	OTLPEndpoint    string        `yaml:"otlp_endpoint"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	CatalogCache    int           `yaml:"catalog_cache_size"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"`
	PageSize        int           `yaml:"page_size"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

const (
	defaultAuthURL = "https://auth-service-production-744b.up.railway.app/api"
	defaultBookURL = "https://book-service-production-4444.up.railway.app/api"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port: "8080",
		Services: Services{
			AuthURL:    defaultAuthURL,
			CatalogURL: defaultBookURL,
			OrderURL:   defaultBookURL,
			DefaultURL: defaultAuthURL,
		},
		Storage: Storage{
			Driver: "sqlite",
			DSN:    "./data/bookvault.db",
		},
		Events: Events{
			Exchange: "storefront_events",
		},
		RequestTimeout:  15 * time.Second,
		BreakerEnabled:  true,
		LogLevel:        "info",
		LogFormat:       "json",
		CatalogCache:    256,
		CatalogCacheTTL: 2 * time.Minute,
		PageSize:        12,
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and finally the environment. An empty path falls back to
// BOOKVAULT_CONFIG.
func Load(path string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("BOOKVAULT_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Services.AuthURL = getEnv("AUTH_SERVICE_URL", cfg.Services.AuthURL)
	cfg.Services.CatalogURL = getEnv("BOOK_SERVICE_URL", cfg.Services.CatalogURL)
	// Orders are served by the book service unless told otherwise.
	cfg.Services.OrderURL = getEnv("ORDER_SERVICE_URL", getEnv("BOOK_SERVICE_URL", cfg.Services.OrderURL))
	cfg.Services.DefaultURL = getEnv("BASE_URL", cfg.Services.DefaultURL)
	if cfg.Services.DefaultURL == "" {
		cfg.Services.DefaultURL = cfg.Services.AuthURL
	}

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv("STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.Secret = getEnv("STORAGE_SECRET", cfg.Storage.Secret)

	cfg.Events.AMQPURL = getEnv("AMQP_URL", cfg.Events.AMQPURL)
	cfg.Events.Exchange = getEnv("AMQP_EXCHANGE", cfg.Events.Exchange)

	cfg.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.CatalogCacheTTL, err = getDuration("CATALOG_CACHE_TTL", cfg.CatalogCacheTTL); err != nil {
		return err
	}
	if cfg.CatalogCache, err = getInt("CATALOG_CACHE_SIZE", cfg.CatalogCache); err != nil {
		return err
	}
	if cfg.PageSize, err = getInt("PAGE_SIZE", cfg.PageSize); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("CLIENT_RATE_LIMIT"); ok {
		if cfg.ClientRateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("CLIENT_RATE_LIMIT: %w", err)
		}
	}
	if v, ok := os.LookupEnv("BREAKER_ENABLED"); ok {
		if cfg.BreakerEnabled, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("BREAKER_ENABLED: %w", err)
		}
	}
	return nil
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	if c.Services.AuthURL == "" || c.Services.CatalogURL == "" || c.Services.OrderURL == "" {
		return errors.New("config: auth, catalog and order service URLs are required")
	}
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage driver %q needs a DSN", c.Storage.Driver)
	}
	if c.PageSize <= 0 {
		return errors.New("config: page size must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
