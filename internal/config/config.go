package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yourusername/neoflow/campaign-service/pkg/logger"
)

type Config struct {
	// Server Configuration
	Port string `mapstructure:"port"`

	// Logging
	LogFile string `mapstructure:"log_file"`

	// Database Configuration
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`

	// Blockchain Configuration
	EthereumRPC     string `mapstructure:"ethereum_rpc_url"`
	PrivateKey      string `mapstructure:"private_key"`
	ContractAddress string `mapstructure:"contract_address"`

	// Provider Configuration
	UseMockData bool `mapstructure:"use_mock_data"`

	// Pinata / IPFS Configuration
	PinataAPIKey    string `mapstructure:"pinata_api_key"`
	PinataSecretKey string `mapstructure:"pinata_secret_api_key"`
	PinataBaseURL   string `mapstructure:"pinata_base_url"`
	IPFSGateway     string `mapstructure:"ipfs_gateway"`

	// Enrichment
	MetadataFetchTimeout time.Duration `mapstructure:"metadata_fetch_timeout"`
	MetadataConcurrency  int           `mapstructure:"metadata_concurrency"`
	MetadataCacheTTL     time.Duration `mapstructure:"metadata_cache_ttl"`

	// Background refresh of the campaign snapshot, 0 disables it
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	LeaderboardLimit int `mapstructure:"leaderboard_limit"`
}

var defaults = map[string]interface{}{
	"port":                   "8080",
	"log_file":               "",
	"database_url":           "",
	"redis_url":              "",
	"ethereum_rpc_url":       "",
	"private_key":            "",
	"contract_address":       "",
	"use_mock_data":          false,
	"pinata_api_key":         "",
	"pinata_secret_api_key":  "",
	"pinata_base_url":        "https://api.pinata.cloud",
	"ipfs_gateway":           "https://gateway.pinata.cloud/ipfs/",
	"metadata_fetch_timeout": "10s",
	"metadata_concurrency":   0,
	"metadata_cache_ttl":     "24h",
	"refresh_interval":       "1m",
	"leaderboard_limit":      10,
}

// Load reads defaults, an optional config.yaml and the environment, in that
// order of precedence (environment wins).
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warn("Could not read config file", zap.Error(err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logger.Fatal("Unable to decode config", zap.Error(err))
	}

	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = 10
	}
	if cfg.MetadataFetchTimeout <= 0 {
		cfg.MetadataFetchTimeout = 10 * time.Second
	}

	return &cfg
}

// DemoMode reports whether IPFS pinning should be simulated locally.
func (c *Config) DemoMode() bool {
	return c.UseMockData || c.PinataAPIKey == "" || c.PinataSecretKey == ""
}
