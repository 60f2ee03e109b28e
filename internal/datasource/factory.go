package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// CWLSourceType is the China Welfare Lottery draw notice API
	CWLSourceType SourceType = "cwl"
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// NewDataSource creates a DataSource for cfg using httpClient, or a client
// built from cfg when httpClient is nil.
func (f *Factory) NewDataSource(cfg config.DataSourceConfig, httpClient *RateLimitedHTTPClient) (DataSource, error) {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg), f.logger)
	}

	switch SourceType(cfg.Name) {
	case CWLSourceType:
		return NewCWLClient(httpClient, cfg.BaseURL, cfg.PageSize, true, f.logger), nil
	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}
}

// Create builds the configured source, wrapped in a history cache when the
// cache TTL is positive.
func (f *Factory) Create() (DataSource, error) {
	if f.config == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	source, err := f.NewDataSource(f.config.DataSource, nil)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"source":   source.Name(),
		"base_url": f.config.DataSource.BaseURL,
	}).Info("Created data source")

	if ttl := f.config.HistoryCacheTTL(); ttl > 0 {
		return NewCachedSource(source, ttl), nil
	}
	return source, nil
}

// ListAvailableSources returns the supported source types
func (f *Factory) ListAvailableSources() []SourceType {
	return []SourceType{CWLSourceType}
}
