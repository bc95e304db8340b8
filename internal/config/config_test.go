package config_test

import (
	"testing"
	"time"

	"outfitter/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Empty(t, cfg.MongoURI)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Local, cfg.AnalyticsLocation)
	assert.True(t, cfg.SeedCatalog)
	assert.Empty(t, cfg.AdminUsername)
	assert.Empty(t, cfg.AdminPassword)
}

func TestFromViper_Overrides(t *testing.T) {
	v := newViper()
	v.Set("DATABASE_DRIVER", "postgres")
	v.Set("STORE_TIMEOUT", "750ms")
	v.Set("ANALYTICS_TIMEZONE", "UTC")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, "UTC", cfg.AnalyticsLocation.String())
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"unknown driver", "DATABASE_DRIVER", "oracle"},
		{"zero timeout", "STORE_TIMEOUT", "0s"},
		{"empty secret", "JWT_SECRET", ""},
		{"bad timezone", "ANALYTICS_TIMEZONE", "Mars/Olympus_Mons"},
		{"admin without password", "ADMIN_USERNAME", "admin"},
		{"admin password without username", "ADMIN_PASSWORD", "s3cret-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := config.FromViper(v)
			assert.Error(t, err)
		})
	}
}
