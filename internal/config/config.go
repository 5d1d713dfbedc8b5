// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AdminKey gates the daily override, manual owner sync and store reset.
	AdminKey string `koanf:"admin_key"`

	// CatalogPath points at the static item catalog JSON. When empty a
	// synthetic catalog of CatalogSize items is used.
	CatalogPath string `koanf:"catalog_path"`

	// CatalogSize sets the synthetic catalog size used when no file is given.
	CatalogSize int `koanf:"catalog_size"`

	// VoteRateLimit and VoteRateWindowSec configure the per-IP fixed window
	// limiter on the main vote endpoint.
	VoteRateLimit     int `koanf:"vote_rate_limit"`
	VoteRateWindowSec int `koanf:"vote_rate_window_sec"`

	// DuoDailyLimit caps Duo votes per device per game day.
	DuoDailyLimit int `koanf:"duo_daily_limit"`

	// WeightCacheTTLSec bounds the selector weight table staleness.
	WeightCacheTTLSec int `koanf:"weight_cache_ttl_sec"`

	// PairQueueSize sets the matchup lookahead queue length.
	PairQueueSize int `koanf:"pair_queue_size"`

	// Owner sync settings.
	OwnerIndexerURL      string `koanf:"owner_indexer_url"`
	OwnerIndexerKey      string `koanf:"owner_indexer_key"`
	OwnerContract        string `koanf:"owner_contract"`
	OwnerSyncBatchSize   int    `koanf:"owner_sync_batch_size"`
	OwnerSyncDelayMS     int    `koanf:"owner_sync_delay_ms"`
	OwnerSyncEveryHours  int    `koanf:"owner_sync_every_hours"`

	// BlacklistWallets are excluded from collector rankings.
	BlacklistWallets []string `koanf:"blacklist_wallets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		AdminKey:            "",
		CatalogPath:         "",
		CatalogSize:         6969,
		VoteRateLimit:       30,
		VoteRateWindowSec:   60,
		DuoDailyLimit:       10,
		WeightCacheTTLSec:   300,
		PairQueueSize:       12,
		OwnerIndexerURL:     "https://api.opensea.io/api/v2",
		OwnerIndexerKey:     "",
		OwnerContract:       "0xB8Ea78fcaCEf50d41375E44E6814ebbA36Bb33c4",
		OwnerSyncBatchSize:  50,
		OwnerSyncDelayMS:    1000,
		OwnerSyncEveryHours: 24,
		BlacklistWallets:    nil,
	}
}
