// Package config provides configuration management for the lotto-backtest binaries.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	DataSource DataSourceConfig `mapstructure:"data_source" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	AWS        AWSConfig        `mapstructure:"aws"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration. Storage is
// optional: the backtest runs from fetched or file data when Enabled is false.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// DataSourceConfig configures the CWL draw notice endpoint
type DataSourceConfig struct {
	Name              string  `mapstructure:"name" validate:"required,oneof=cwl"`
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	PageSize          int     `mapstructure:"page_size" validate:"required,gt=0,lte=100"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
	UserAgent         string  `mapstructure:"user_agent"`
	Referer           string  `mapstructure:"referer"`
}

// BacktestConfig represents rolling backtest configuration
type BacktestConfig struct {
	Game               string        `mapstructure:"game" validate:"required,game_code"`
	SeqLen             int           `mapstructure:"seq_len" validate:"gt=0"`
	Epochs             int           `mapstructure:"epochs" validate:"gt=0"`
	HiddenSize         int           `mapstructure:"hidden_size" validate:"gt=0"`
	LearningRate       float64       `mapstructure:"learning_rate" validate:"gt=0"`
	BatchSize          int           `mapstructure:"batch_size" validate:"gte=0"`
	KValues            []int         `mapstructure:"k_values" validate:"required,min=1,dive,gt=0"`
	BlueKValues        []int         `mapstructure:"blue_k_values" validate:"dive,gt=0"`
	HalfLife           float64       `mapstructure:"half_life" validate:"gte=0"`
	ShortWindow        int           `mapstructure:"short_window" validate:"gt=0"`
	LongWindow         int           `mapstructure:"long_window" validate:"gt=0"`
	MixBetas           []float64     `mapstructure:"mix_betas" validate:"dive,gte=0,lte=1"`
	AlphaFixed         float64       `mapstructure:"alpha_fixed" validate:"gte=0,lte=1"`
	StrictTraining     bool          `mapstructure:"strict_training"`
	StartIndex         int           `mapstructure:"start_index" validate:"gte=-1"`
	EndIndex           int           `mapstructure:"end_index" validate:"gte=-1"`
	MaxWindow          int           `mapstructure:"max_window" validate:"gte=0"`
	MinWindow          int           `mapstructure:"min_window" validate:"gte=0"`
	ShrinkBeta         float64       `mapstructure:"shrink_beta" validate:"gte=0"`
	BaselineShrinkBeta float64       `mapstructure:"baseline_shrink_beta" validate:"gte=0"`
	TauPrimary         float64       `mapstructure:"tau_primary" validate:"gte=0"`
	TauSecondary       float64       `mapstructure:"tau_secondary" validate:"gte=0"`
	EMAAlpha           float64       `mapstructure:"ema_alpha" validate:"gte=0,lte=1"`
	Seed               int64         `mapstructure:"seed"`
	Workers            int           `mapstructure:"workers" validate:"gte=0"`
	Strategies         []string      `mapstructure:"strategies"`
	OutputPath         string        `mapstructure:"output_path"`
	PersistSummary     bool          `mapstructure:"persist_summary"`
	Overlap            OverlapConfig `mapstructure:"overlap"`
}

// OverlapConfig configures the KL8 overlap backtest
type OverlapConfig struct {
	Window       int `mapstructure:"window" validate:"gte=0"`
	Sets         int `mapstructure:"sets" validate:"gte=0"`
	RandomTrials int `mapstructure:"random_trials" validate:"gte=0"`
}

// RecommendConfig configures next-draw ticket generation
type RecommendConfig struct {
	Sets            int     `mapstructure:"sets" validate:"gte=0"`
	Candidates      int     `mapstructure:"candidates" validate:"gte=0"`
	Pick            int     `mapstructure:"pick" validate:"gte=0"`
	PayoutTable     string  `mapstructure:"payout_table"`
	Budget          float64 `mapstructure:"budget" validate:"gte=0"`
	FractionOfKelly float64 `mapstructure:"fraction_of_kelly" validate:"gte=0,lte=1"`
}

// IngestionConfig configures which games are fetched and when
type IngestionConfig struct {
	Games     []string `mapstructure:"games" validate:"dive,game_code"`
	Schedule  string   `mapstructure:"schedule" validate:"omitempty,cron"`
	MaxPages  int      `mapstructure:"max_pages" validate:"gte=0"`
	BatchSize int      `mapstructure:"batch_size" validate:"gte=0"`
}

// CacheConfig configures the in-process caches
type CacheConfig struct {
	ModelTTLSeconds   int `mapstructure:"model_ttl_seconds" validate:"gte=0"`
	ModelMaxSize      int `mapstructure:"model_max_size" validate:"gte=0"`
	HistoryTTLSeconds int `mapstructure:"history_ttl_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// HealthConfig configures the ingestion daemon health server
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// AWSConfig enables the Secrets Manager overlay
type AWSConfig struct {
	SecretsEnabled bool   `mapstructure:"secrets_enabled"`
	Region         string `mapstructure:"region" validate:"required_if=SecretsEnabled true"`
	SecretName     string `mapstructure:"secret_name" validate:"required_if=SecretsEnabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ModelCacheTTL returns the sequence model cache lifetime
func (c *Config) ModelCacheTTL() time.Duration {
	return time.Duration(c.Cache.ModelTTLSeconds) * time.Second
}

// HistoryCacheTTL returns the fetched history cache lifetime
func (c *Config) HistoryCacheTTL() time.Duration {
	return time.Duration(c.Cache.HistoryTTLSeconds) * time.Second
}
