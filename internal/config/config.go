package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the storefront service.
type Config struct {
	AppPort           string
	DatabaseDriver    string // "sqlite" or "postgres"
	DatabaseDSN       string
	MongoURI          string // empty selects the in-memory document stores
	MongoDatabase     string
	RabbitMQURL       string // empty disables mutation events
	JWTSecret         string
	TokenTTL          time.Duration
	StoreTimeout      time.Duration
	AnalyticsLocation *time.Location
	SeedCatalog       bool
	// AdminUsername and AdminPassword seed an admin account when both are set and none exists.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:outfitter.db?cache=shared")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "outfitter")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "dev_jwt_secret")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("ANALYTICS_TIMEZONE", "Local")
	v.SetDefault("SEED_CATALOG", true)
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Load reads an optional .env file, then environment variables, on top of the defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		MongoURI:       v.GetString("MONGO_URI"),
		MongoDatabase:  v.GetString("MONGO_DATABASE"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		StoreTimeout:   v.GetDuration("STORE_TIMEOUT"),
		SeedCatalog:    v.GetBool("SEED_CATALOG"),
		AdminUsername:  v.GetString("ADMIN_USERNAME"),
		AdminEmail:     v.GetString("ADMIN_EMAIL"),
		AdminPassword:  v.GetString("ADMIN_PASSWORD"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.StoreTimeout <= 0 {
		return Config{}, fmt.Errorf("STORE_TIMEOUT must be positive, got %s", cfg.StoreTimeout)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be empty")
	}

	loc, err := time.LoadLocation(v.GetString("ANALYTICS_TIMEZONE"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ANALYTICS_TIMEZONE: %w", err)
	}
	cfg.AnalyticsLocation = loc

	return cfg, nil
}
