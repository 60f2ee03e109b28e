package database

import (
	"context"
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/config"
)

// Initialize creates a connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("database is disabled in configuration")
	}

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
