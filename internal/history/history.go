// Package history holds the immutable, index-ordered draw store and the
// causal windowing the backtest relies on.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// History is an ordered, read-only sequence of draws for one game.
// It is safe for concurrent readers once constructed. Every accessor returns
// copies, including the number slices.
type History struct {
	game  models.Game
	draws []models.Draw
}

// New validates the draws against the game contract and returns them ordered by Index.
func New(game models.Game, draws []models.Draw) (*History, error) {
	sorted := make([]models.Draw, 0, len(draws))
	seen := make(map[int]struct{}, len(draws))
	for _, d := range draws {
		if err := d.Validate(game); err != nil {
			return nil, err
		}
		if _, dup := seen[d.Index]; dup {
			return nil, fmt.Errorf("%w: duplicate index %d", models.ErrInvalidDraw, d.Index)
		}
		seen[d.Index] = struct{}{}
		sorted = append(sorted, models.NewDraw(d.Index, d.Period, d.Date, d.Primary, d.Secondary))
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	return &History{game: game, draws: sorted}, nil
}

// Game returns the game the history belongs to
func (h *History) Game() models.Game {
	return h.game
}

// Len returns the number of draws
func (h *History) Len() int {
	return len(h.draws)
}

// At returns a copy of the i-th draw in index order
func (h *History) At(i int) models.Draw {
	return cloneDraw(h.draws[i])
}

// Draws returns a deep copy of the full sequence
func (h *History) Draws() []models.Draw {
	return cloneDraws(h.draws)
}

// FirstIndex and LastIndex return the sequence index bounds, or 0 for an empty history.
func (h *History) FirstIndex() int {
	if len(h.draws) == 0 {
		return 0
	}
	return h.draws[0].Index
}

func (h *History) LastIndex() int {
	if len(h.draws) == 0 {
		return 0
	}
	return h.draws[len(h.draws)-1].Index
}

// ByIndex looks up a draw by its sequence index
func (h *History) ByIndex(index int) (models.Draw, bool) {
	pos := h.position(index)
	if pos < len(h.draws) && h.draws[pos].Index == index {
		return cloneDraw(h.draws[pos]), true
	}
	return models.Draw{}, false
}

// position returns the number of draws with Index strictly below index.
func (h *History) position(index int) int {
	return sort.Search(len(h.draws), func(i int) bool { return h.draws[i].Index >= index })
}

// WindowBefore returns a deep copy of up to maxLength draws with Index < index,
// most recent last.
// maxLength <= 0 means the whole prefix. When fewer than minLength draws are
// available it fails with models.ErrInsufficientHistory and returns no draws.
func (h *History) WindowBefore(index, maxLength, minLength int) ([]models.Draw, error) {
	end := h.position(index)
	start := 0
	if maxLength > 0 && end > maxLength {
		start = end - maxLength
	}
	if end-start < minLength {
		return nil, fmt.Errorf("%w: %d draws before index %d, need %d",
			models.ErrInsufficientHistory, end-start, index, minLength)
	}

	return cloneDraws(h.draws[start:end]), nil
}

// cloneDraws copies draws together with their number slices, so callers can
// never write through to the store.
func cloneDraws(draws []models.Draw) []models.Draw {
	out := make([]models.Draw, len(draws))
	for i, d := range draws {
		out[i] = cloneDraw(d)
	}
	return out
}

func cloneDraw(d models.Draw) models.Draw {
	return models.NewDraw(d.Index, d.Period, d.Date, d.Primary, d.Secondary)
}

// WeekdaySubset returns the draws of WindowBefore(index, maxLength) whose own
// date falls on weekday.
func (h *History) WeekdaySubset(index int, weekday time.Weekday, maxLength int) []models.Draw {
	window, err := h.WindowBefore(index, maxLength, 0)
	if err != nil {
		return nil
	}
	return FilterWeekday(window, weekday)
}

// FilterWeekday keeps the draws whose date falls on weekday
func FilterWeekday(draws []models.Draw, weekday time.Weekday) []models.Draw {
	out := make([]models.Draw, 0, len(draws)/3+1)
	for _, d := range draws {
		if d.Weekday() == weekday {
			out = append(out, d)
		}
	}
	return out
}

// TargetWeekday returns the weekday of the draw that follows the window,
// derived from the game schedule and the window's last date. The target draw
// itself is never consulted.
func TargetWeekday(game models.Game, window []models.Draw) time.Weekday {
	if len(window) == 0 {
		return time.Sunday
	}
	return game.NextDrawWeekday(window[len(window)-1].Date)
}
