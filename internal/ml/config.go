// Package ml implements the in-process sequence model: per-draw feature
// engineering, a small multi-head network on gonum matrices, its Adam trainer,
// and a cache of trained outputs.
package ml

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Config holds the hyper-parameters of one training run.
type Config struct {
	SeqLen       int     `json:"seq_len"`
	Epochs       int     `json:"epochs"`
	HiddenSize   int     `json:"hidden_size"`
	LearningRate float64 `json:"learning_rate"`
	BatchSize    int     `json:"batch_size"`
	Seed         int64   `json:"seed"`
}

// DefaultConfig returns the stock hyper-parameters
func DefaultConfig() Config {
	return Config{
		SeqLen:       10,
		Epochs:       3,
		HiddenSize:   64,
		LearningRate: 1e-3,
		BatchSize:    128,
		Seed:         42,
	}
}

// Validate checks the hyper-parameters
func (c Config) Validate() error {
	if c.SeqLen <= 0 {
		return fmt.Errorf("seq_len must be positive, got %d", c.SeqLen)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be positive, got %d", c.HiddenSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive, got %f", c.LearningRate)
	}
	return nil
}

// Hash identifies the hyper-parameter set for cache keys
func (c Config) Hash() string {
	data, _ := json.Marshal(c)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
