package repository

import (
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Draw    DrawRepository
	Summary SummaryRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Draw:    NewPostgresDrawRepository(db),
		Summary: NewPostgresSummaryRepository(db),
	}, nil
}
