package main

import (
	"context" // Context for connect retries

	"wallet_auth/internal/config" // Custom import path (Config)
	"wallet_auth/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if cfg.DBDriver == config.DriverMemory {
		logrus.Info("DB_DRIVER=memory has no schema to migrate")
		return
	}

	conn, err := db.Open(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("failed to migrate database: %v", err)
	}
}
