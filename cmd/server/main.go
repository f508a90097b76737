package main

import (
	"context" // context package is needed for Redis and DB startup

	"wallet_auth/internal/api"            // Custom package for API handlers
	"wallet_auth/internal/auth"           // Authentication service
	"wallet_auth/internal/config"         // Custom package for configuration
	"wallet_auth/internal/db"             // Database connection
	"wallet_auth/internal/metrics"        // Prometheus metrics
	"wallet_auth/internal/store"          // GORM user store
	"wallet_auth/internal/store/memstore" // In-memory user store
	"wallet_auth/internal/utils"          // Redis-backed caches

	"github.com/gin-gonic/gin"                                  // Gin web framework
	"github.com/prometheus/client_golang/prometheus"            // Metrics registry
	"github.com/prometheus/client_golang/prometheus/collectors" // Runtime collectors
	"github.com/redis/go-redis/v9"                              // Redis client
	"github.com/sirupsen/logrus"                                // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	log := logrus.StandardLogger()
	ctx := context.Background()

	// Setup the user store
	var users auth.UserStore
	if cfg.DBDriver == config.DriverMemory {
		logrus.Warn("Using in-memory user store; accounts are lost on restart")
		users = memstore.New()
	} else {
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
		}
		users = store.NewUserStore(conn)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Setup metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Setup authentication
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		logrus.Fatalf("failed to create token issuer: %v", err)
	}
	svc, err := auth.NewService(users,
		auth.NewBcryptHasher(cfg.BcryptCost),
		auth.NewSignatureVerifier(cfg.LoginMessage),
		tokens,
		auth.WithLogger(log),
		auth.WithMetrics(m),
	)
	if err != nil {
		logrus.Fatalf("failed to create auth service: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.NewRouter(api.RouterDeps{
		Service:        svc,
		Profiles:       utils.NewProfileCache(redisClient),
		Denylist:       utils.NewTokenDenylist(redisClient),
		Gatherer:       registry,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         log,
	})
	if err != nil {
		logrus.Fatalf("failed to set up router: %v", err)
	}

	logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
