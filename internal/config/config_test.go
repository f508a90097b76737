package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_auth/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, config.DriverMySQL, cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "wallet_auth", cfg.JWTIssuer)
	assert.Equal(t, "Login to Lukman the defi", cfg.LoginMessage)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("IS_PROD", "true")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.AppPort)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, config.DriverPostgres, cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": " "}, "JWT_SECRET"},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "oracle"}, "DB_DRIVER"},
		{"non-positive ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "0s"}, "TOKEN_TTL"},
		{"unparseable ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "soon"}, "TokenTTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	mysql := &config.Config{DBDriver: config.DriverMySQL, DBUser: "u", DBPassword: "p", DBHost: "db", DBName: "auth"}
	assert.Equal(t, "u:p@tcp(db:3306)/auth?charset=utf8mb4&parseTime=true", mysql.DSN())

	pg := &config.Config{DBDriver: config.DriverPostgres, DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "6432", DBName: "auth", DBSSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:6432/auth?sslmode=require", pg.DSN())
}
