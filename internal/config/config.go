package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values come from defaults, an optional config file and the environment,
// in increasing order of precedence.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Store    StoreConfig
	Cache    CacheConfig
	Events   EventsConfig
	Owner    OwnerConfig
	LogLevel string
	// LogFormat is text or json
	LogFormat string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	CORSOrigins     []string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Driver        string // memory, mongo, postgres or sqlite
	DSN           string
	MongoURI      string
	MongoDatabase string
}

// CacheConfig enables redis when Addr is set
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
}

// EventsConfig enables kafka when Brokers is set
type EventsConfig struct {
	KafkaBrokers string
	KafkaTopic   string
}

type OwnerConfig struct {
	OrderScope string
}

const defaultJWTSecret = "dev-secret-change-me"

// bindings maps config keys to their environment variables
var bindings = map[string]string{
	"server.port":             "PORT",
	"server.host":             "HOST",
	"server.read_timeout":     "READ_TIMEOUT",
	"server.write_timeout":    "WRITE_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"server.cors_origins":     "CORS_ORIGINS",
	"log.level":               "LOG_LEVEL",
	"log.format":              "LOG_FORMAT",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.token_ttl":          "TOKEN_TTL",
	"store.driver":            "STORE_DRIVER",
	"store.dsn":               "DATABASE_DSN",
	"store.mongo_uri":         "MONGO_URI",
	"store.mongo_database":    "MONGO_DATABASE",
	"cache.redis_addr":        "REDIS_ADDR",
	"cache.redis_password":    "REDIS_PASSWORD",
	"cache.ttl":               "CACHE_TTL",
	"events.kafka_brokers":    "KAFKA_BROKERS",
	"events.kafka_topic":      "KAFKA_TOPIC",
	"owner.order_scope":       "OWNER_ORDER_SCOPE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15)
	// streams are long-lived, so writes are not capped by default
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 30)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "foodorder")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("events.kafka_brokers", "")
	v.SetDefault("events.kafka_topic", "orders")
	v.SetDefault("owner.order_scope", "all")
}

// Load reads configuration. path may be empty; when set the file must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			Host:            v.GetString("server.host"),
			ReadTimeout:     v.GetInt("server.read_timeout"),
			WriteTimeout:    v.GetInt("server.write_timeout"),
			ShutdownTimeout: v.GetInt("server.shutdown_timeout"),
			CORSOrigins:     splitList(v.GetString("server.cors_origins")),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store.driver")),
			DSN:           v.GetString("store.dsn"),
			MongoURI:      v.GetString("store.mongo_uri"),
			MongoDatabase: v.GetString("store.mongo_database"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			TTL:           v.GetDuration("cache.ttl"),
		},
		Events: EventsConfig{
			KafkaBrokers: v.GetString("events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
		Owner: OwnerConfig{
			OrderScope: strings.ToLower(v.GetString("owner.order_scope")),
		},
		LogLevel:  v.GetString("log.level"),
		LogFormat: strings.ToLower(v.GetString("log.format")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	switch c.Store.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres store")
		}
	case "mongo":
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo store")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory, mongo, postgres, or sqlite)", c.Store.Driver)
	}

	if c.Events.KafkaBrokers != "" && c.Events.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	if c.Owner.OrderScope != "all" && c.Owner.OrderScope != "restaurant" {
		return fmt.Errorf("invalid owner order scope: %s (must be all or restaurant)", c.Owner.OrderScope)
	}

	return nil
}

// UsesDefaultSecret reports whether the development JWT secret is in use
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}

// EphemeralStore reports whether the store lives only in process memory,
// so anything written to it is gone when the process exits.
func (c *Config) EphemeralStore() bool {
	switch c.Store.Driver {
	case "memory":
		return true
	case "sqlite":
		dsn := c.Store.DSN
		return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	default:
		return false
	}
}
