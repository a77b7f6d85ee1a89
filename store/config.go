package store

import "time"

// Config holds configuration for the Store.
type Config struct {
	// Table is the name of the main reservation table.
	// Default: "corral_main"
	Table string

	// ChunkSize is the maximum number of operations submitted in one
	// store-level transaction. DynamoDB caps TransactWriteItems at 100.
	// Default and max: 100
	ChunkSize int

	// MaxAttempts bounds retries on identifier allocation conflicts.
	// Default: 3
	MaxAttempts int

	// RetryBase is the base delay between attempts; attempt n waits
	// n * RetryBase.
	// Default: 100ms
	RetryBase time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Table:       "corral_main",
		ChunkSize:   100,
		MaxAttempts: 3,
		RetryBase:   100 * time.Millisecond,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "corral_main"
	}
	if c.ChunkSize < 1 || c.ChunkSize > 100 {
		c.ChunkSize = 100
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 100 * time.Millisecond
	}
}
