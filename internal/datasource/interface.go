package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// DataSource fetches published draw results for a game
type DataSource interface {
	// FetchNotices retrieves draw notices newest first. limit <= 0 pages
	// until the source runs dry or maxPages is reached.
	FetchNotices(ctx context.Context, game models.Game, limit, maxPages int) ([]DrawNotice, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// DrawNotice is one published result, normalized from the provider payload
type DrawNotice struct {
	Period    string          `json:"period"`
	Date      time.Time       `json:"date"`
	Week      string          `json:"week"`
	Primary   []int           `json:"primary"`
	Secondary []int           `json:"secondary,omitempty"`
	Sales     decimal.Decimal `json:"sales"`
	PoolMoney decimal.Decimal `json:"pool_money"`
}

// ToDraws orders notices oldest first and assigns sequence indices from 0.
// Duplicate periods keep the first occurrence.
func ToDraws(game models.Game, notices []DrawNotice) ([]models.Draw, error) {
	ordered := make([]DrawNotice, 0, len(notices))
	seen := make(map[string]struct{}, len(notices))
	for _, n := range notices {
		if _, dup := seen[n.Period]; dup {
			continue
		}
		seen[n.Period] = struct{}{}
		ordered = append(ordered, n)
	}
	sortNotices(ordered)

	draws := make([]models.Draw, len(ordered))
	for i, n := range ordered {
		d := models.NewDraw(i, n.Period, n.Date, n.Primary, n.Secondary)
		if err := d.Validate(game); err != nil {
			return nil, err
		}
		draws[i] = d
	}
	return draws, nil
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeDisabled          = "disabled"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeAPIError          = "api_error"
)

// Error sentinels wrapped by DataSourceError
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrDisabled          = errors.New("data source disabled")
	ErrInvalidData       = errors.New("invalid data format")
	ErrServerError       = errors.New("server error")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
