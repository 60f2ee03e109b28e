package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. LOTTO_BACKTEST_BACKTEST_GAME
const EnvPrefix = "LOTTO_BACKTEST"

const defaultConfigPath = "config/config.yaml"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()

	// Read the expanded configuration
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)

	// Enable automatic binding of environment variables
	v.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults mirrors the stock options of the original analysis scripts.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "lotto-backtest")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("data_source.name", "cwl")
	v.SetDefault("data_source.base_url", "https://www.cwl.gov.cn")
	v.SetDefault("data_source.page_size", 30)
	v.SetDefault("data_source.timeout_seconds", 15)
	v.SetDefault("data_source.retry_attempts", 3)
	v.SetDefault("data_source.requests_per_second", 2.0)
	v.SetDefault("data_source.burst", 1)
	v.SetDefault("data_source.user_agent", "Mozilla/5.0 (compatible; lotto-backtest)")
	v.SetDefault("data_source.referer", "https://www.cwl.gov.cn/ygkj/wqkjgg/")

	v.SetDefault("backtest.game", "ssq")
	v.SetDefault("backtest.seq_len", 10)
	v.SetDefault("backtest.epochs", 3)
	v.SetDefault("backtest.hidden_size", 64)
	v.SetDefault("backtest.learning_rate", 1e-3)
	v.SetDefault("backtest.batch_size", 128)
	v.SetDefault("backtest.k_values", []int{6, 10, 12, 16})
	v.SetDefault("backtest.blue_k_values", []int{1, 2, 3, 4})
	v.SetDefault("backtest.half_life", 60)
	v.SetDefault("backtest.short_window", 30)
	v.SetDefault("backtest.long_window", 180)
	v.SetDefault("backtest.mix_betas", []float64{0.20, 0.35, 0.50})
	v.SetDefault("backtest.alpha_fixed", 0.40)
	v.SetDefault("backtest.strict_training", false)
	v.SetDefault("backtest.min_window", 1)
	v.SetDefault("backtest.shrink_beta", 40)
	v.SetDefault("backtest.baseline_shrink_beta", 20)
	v.SetDefault("backtest.start_index", -1)
	v.SetDefault("backtest.end_index", -1)
	v.SetDefault("backtest.tau_primary", 1.3)
	v.SetDefault("backtest.tau_secondary", 1.5)
	v.SetDefault("backtest.ema_alpha", 0.25)
	v.SetDefault("backtest.seed", 42)
	v.SetDefault("backtest.workers", 1)
	v.SetDefault("backtest.overlap.window", 200)
	v.SetDefault("backtest.overlap.sets", 5)
	v.SetDefault("backtest.overlap.random_trials", 2000)

	v.SetDefault("recommend.sets", 5)
	v.SetDefault("recommend.candidates", 2500)
	v.SetDefault("recommend.fraction_of_kelly", 1.0)

	v.SetDefault("ingestion.games", []string{"ssq", "kl8"})
	v.SetDefault("ingestion.schedule", "0 22 * * *")
	v.SetDefault("ingestion.max_pages", 0)
	v.SetDefault("ingestion.batch_size", 100)

	v.SetDefault("cache.model_ttl_seconds", 3600)
	v.SetDefault("cache.model_max_size", 5000)
	v.SetDefault("cache.history_ttl_seconds", 600)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("health.port", 8080)
}
