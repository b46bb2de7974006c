// Package config loads storefront client settings from defaults, an optional
// YAML file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Store    StoreConfig    `yaml:"store"`
	Notify   NotifyConfig   `yaml:"notify"`
	Checkout CheckoutConfig `yaml:"checkout"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig holds the per-service base URLs. In the default gateway
// deployment all three point at the same host.
type APIConfig struct {
	AuthURL    string        `yaml:"auth_url"`
	ProductURL string        `yaml:"product_url"`
	OrderURL   string        `yaml:"order_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	// Backend is one of sqlite, redis, mongo, memory.
	Backend       string        `yaml:"backend"`
	Namespace     string        `yaml:"namespace"`
	SQLitePath    string        `yaml:"sqlite_path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisTTL      time.Duration `yaml:"redis_ttl"`
	MongoURI      string        `yaml:"mongo_uri"`
	MongoDB       string        `yaml:"mongo_db"`
}

type NotifyConfig struct {
	// Transport is one of hub, kafka, none.
	Transport    string          `yaml:"transport"`
	HubURL       string          `yaml:"hub_url"`
	KafkaBrokers []string        `yaml:"kafka_brokers"`
	KafkaTopic   string          `yaml:"kafka_topic"`
	// KafkaGroup is the consumer group; empty picks one per process.
	KafkaGroup string `yaml:"kafka_group"`
	RetryDelays  []time.Duration `yaml:"retry_delays"`
	ToastLife    time.Duration   `yaml:"toast_life"`
}

type CheckoutConfig struct {
	TaxRate          string `yaml:"tax_rate"`
	ShippingFee      string `yaml:"shipping_fee"`
	FreeShippingOver string `yaml:"free_shipping_over"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			AuthURL:    "http://localhost:5000",
			ProductURL: "http://localhost:5000",
			OrderURL:   "http://localhost:5000",
			Timeout:    30 * time.Second,
		},
		Store: StoreConfig{
			Backend:    "sqlite",
			Namespace:  "default",
			SQLitePath: "storefront.db",
			RedisAddr:  "localhost:6379",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "storefront",
		},
		Notify: NotifyConfig{
			Transport:    "hub",
			HubURL:       "ws://localhost:5000/hub/notifications",
			KafkaBrokers: []string{"localhost:9092"},
			KafkaTopic:   "order-status-updates",
			RetryDelays:  []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second},
			ToastLife:    5 * time.Second,
		},
		Checkout: CheckoutConfig{
			TaxRate:          "0.08",
			ShippingFee:      "5.99",
			FreeShippingOver: "50",
		},
		HTTP: HTTPConfig{
			Port:            "8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if not empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.API.AuthURL = getEnv("STOREFRONT_AUTH_API", c.API.AuthURL)
	c.API.ProductURL = getEnv("STOREFRONT_PRODUCT_API", c.API.ProductURL)
	c.API.OrderURL = getEnv("STOREFRONT_ORDER_API", c.API.OrderURL)

	c.Store.Backend = getEnv("STOREFRONT_STORE", c.Store.Backend)
	c.Store.Namespace = getEnv("STOREFRONT_NAMESPACE", c.Store.Namespace)
	c.Store.SQLitePath = getEnv("STOREFRONT_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.RedisAddr = getEnv("REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = getEnv("REDIS_PASSWORD", c.Store.RedisPassword)
	c.Store.MongoURI = getEnv("MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDB = getEnv("MONGO_DB_NAME", c.Store.MongoDB)

	c.Notify.Transport = getEnv("STOREFRONT_NOTIFY", c.Notify.Transport)
	c.Notify.HubURL = getEnv("STOREFRONT_HUB_URL", c.Notify.HubURL)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Notify.KafkaBrokers = strings.Split(brokers, ",")
	}
	c.Notify.KafkaGroup = getEnv("KAFKA_GROUP_ID", c.Notify.KafkaGroup)

	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("STOREFRONT_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STOREFRONT_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.Store.RedisDB = db
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.API.AuthURL == "" || c.API.ProductURL == "" || c.API.OrderURL == "" {
		errs = append(errs, errors.New("api urls are required"))
	}
	switch c.Store.Backend {
	case "sqlite", "redis", "mongo", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Store.Namespace == "" {
		errs = append(errs, errors.New("store.namespace is required"))
	}
	switch c.Notify.Transport {
	case "hub", "kafka", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown notify transport %q", c.Notify.Transport))
	}
	if _, err := c.Pricing(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Pricing parses the checkout charges.
func (c *Config) Pricing() (domain.Pricing, error) {
	tax, err := decimal.NewFromString(c.Checkout.TaxRate)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("invalid checkout.tax_rate: %w", err)
	}
	fee, err := decimal.NewFromString(c.Checkout.ShippingFee)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("invalid checkout.shipping_fee: %w", err)
	}
	over, err := decimal.NewFromString(c.Checkout.FreeShippingOver)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("invalid checkout.free_shipping_over: %w", err)
	}
	return domain.Pricing{TaxRate: tax, ShippingFee: fee, FreeShippingOver: over}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
