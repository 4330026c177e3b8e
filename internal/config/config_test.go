package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-secret-that-is-at-least-32-characters")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "service/wawashopservice", cfg.Gateway.ServicePath)
	assert.Equal(t, "MQT", cfg.Cart.OrderNumberPrefix)
	assert.Equal(t, "ชิ้น", cfg.Cart.DefaultUnitCode)
	assert.Equal(t, "MMA01", cfg.Cart.DefaultWarehouseCode)
	assert.Equal(t, "SH101", cfg.Cart.DefaultShelfCode)
	assert.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, 120, cfg.Security.RateLimitPerMinute)
	assert.Equal(t, "Asia/Bangkok", cfg.Location().String())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-secret-that-is-at-least-32-characters")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("GATEWAY_TIMEOUT", "7s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example,https://admin.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, 120, cfg.Security.RateLimitPerMinute)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "short secret",
			env:    map[string]string{"JWT_SECRET": "short"},
			errMsg: "JWT_SECRET",
		},
		{
			name:   "bad time zone",
			env:    map[string]string{"STORE_TIME_ZONE": "Mars/Olympus"},
			errMsg: "STORE_TIME_ZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "a-secret-that-is-at-least-32-characters")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "journal", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=journal sslmode=disable", cfg.GetDatabaseDSN())
}
