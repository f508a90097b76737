package config

import (
	"fmt"     // For DSN formatting
	"strings" // For validation
	"time"    // For token lifetime

	"github.com/caarlos0/env/v11" // Typed environment parsing
	"github.com/joho/godotenv"    // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	AppPort        string        `env:"APP_PORT" envDefault:"8080"`                                                                // Application port
	IsProd         bool          `env:"IS_PROD"`                                                                                   // Is production environment
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1"`                                   // Proxies gin trusts for client IP
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"` // CORS allow-list
	DBDriver       string        `env:"DB_DRIVER" envDefault:"mysql"`                                                              // mysql, postgres or memory
	DBUser         string        `env:"DB_USER"`                                                                                   // Database user
	DBPassword     string        `env:"DB_PASSWORD"`                                                                               // Database password
	DBHost         string        `env:"DB_HOST" envDefault:"127.0.0.1"`                                                            // Database host
	DBPort         string        `env:"DB_PORT"`                                                                                   // Database port
	DBName         string        `env:"DB_NAME"`                                                                                   // Database name
	DBSSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`                                                           // Postgres sslmode
	JWTSecret      string        `env:"JWT_SECRET"`                                                                                // JWT secret key
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"wallet_auth"`                                                       // JWT "iss" claim
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"1h"`                                                                 // Session token lifetime
	LoginMessage   string        `env:"LOGIN_MESSAGE" envDefault:"Login to Lukman the defi"`                                       // Fixed wallet challenge
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`                                                               // Password hashing cost
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`                                                    // Redis server address
	RedisPass      string        `env:"REDIS_PASS"`                                                                                // Redis password
	RedisDB        int           `env:"REDIS_DB"`                                                                                  // Redis database number
}

// LoadConfig loads configuration from the environment, reading .env first if present
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no safe default
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be one of mysql, postgres, memory, got %q", c.DBDriver)
	}
	return nil
}

// DSN returns the Data Source Name for the configured SQL driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, port, c.DBName, c.DBSSLMode)
	default:
		port := c.DBPort
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?charset=utf8mb4&parseTime=true"
	}
}
