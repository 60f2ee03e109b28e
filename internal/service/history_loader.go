package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/repository"
)

// HistoryLoader assembles a draw history from storage, falling back to the
// remote source when storage is absent or holds nothing for the game.
// Either collaborator may be nil.
type HistoryLoader struct {
	drawRepo repository.DrawRepository
	source   datasource.DataSource
	maxPages int
	logger   *logrus.Logger
}

// NewHistoryLoader creates a new history loader
func NewHistoryLoader(drawRepo repository.DrawRepository, source datasource.DataSource, maxPages int, logger *logrus.Logger) *HistoryLoader {
	return &HistoryLoader{
		drawRepo: drawRepo,
		source:   source,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Load returns the most recent limit draws for game, indexed oldest first.
// limit <= 0 loads everything available.
func (l *HistoryLoader) Load(ctx context.Context, game models.Game, limit int) (*history.History, error) {
	if l.drawRepo != nil {
		draws, err := l.drawRepo.ListByGame(ctx, game.Code, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load draws from storage: %w", err)
		}
		if len(draws) > 0 {
			l.logger.WithFields(logrus.Fields{
				"game":  game.Code,
				"draws": len(draws),
			}).Info("Loaded history from storage")
			return history.New(game, draws)
		}
	}

	if l.source == nil || !l.source.IsEnabled() {
		return nil, fmt.Errorf("%w: no stored draws for %s and no enabled data source", models.ErrInsufficientHistory, game.Code)
	}

	notices, err := l.source.FetchNotices(ctx, game, limit, l.maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	draws, err := datasource.ToDraws(game, notices)
	if err != nil {
		return nil, err
	}
	l.logger.WithFields(logrus.Fields{
		"game":   game.Code,
		"draws":  len(draws),
		"source": l.source.Name(),
	}).Info("Loaded history from data source")

	return history.New(game, draws)
}

// LoadFile reads a JSON array of draws. Index values in the file are kept
// when present; a file with every Index at zero is renumbered in file order.
func LoadFile(game models.Game, path string) (*history.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var draws []models.Draw
	if err := json.Unmarshal(data, &draws); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	indexed := false
	for _, d := range draws {
		if d.Index != 0 {
			indexed = true
			break
		}
	}
	if !indexed {
		for i := range draws {
			draws[i].Index = i
		}
	}

	return history.New(game, draws)
}
