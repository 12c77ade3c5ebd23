package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete daemon configuration
type Config struct {
	Daemon   DaemonConfig   `yaml:"daemon"`
	API      APIConfig      `yaml:"api"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Wallet   WalletConfig   `yaml:"wallet"`
}

// DaemonConfig contains daemon settings
type DaemonConfig struct {
	DataDir   string `yaml:"data_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" or "text"
}

// APIConfig contains API server settings
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"` // e.g., ":8480"

	// Rate limiting
	RateLimitRequests   int `yaml:"rate_limit_requests"`    // Max requests per window (default: 100)
	RateLimitWindowSecs int `yaml:"rate_limit_window_secs"` // Window duration in seconds (default: 60)

	// Timeouts
	ReadTimeoutSecs  int `yaml:"read_timeout_secs"`  // Read timeout (default: 30)
	WriteTimeoutSecs int `yaml:"write_timeout_secs"` // Write timeout (default: 30)
	IdleTimeoutSecs  int `yaml:"idle_timeout_secs"`  // Idle connection timeout (default: 120)

	MaxRequestSize int `yaml:"max_request_size"` // Max request body size in bytes (default: 1MB)
}

// ProtocolConfig contains the board's protocol parameters
type ProtocolConfig struct {
	ReplicationFactor uint64 `yaml:"replication_factor"`  // Target reporters elected per round (default: 10)
	ClaimExpiryBlocks uint64 `yaml:"claim_expiry_blocks"` // Claim exclusivity window in host blocks (default: 256)
}

// WalletConfig contains reporter wallet settings
type WalletConfig struct {
	KeystoreDir  string `yaml:"keystore_dir"`
	PasswordFile string `yaml:"password_file"` // Path to file containing the keystore password
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			DataDir:   "~/.bridgeboard",
			LogLevel:  "info",
			LogFormat: "json",
		},
		API: APIConfig{
			ListenAddr:          ":8480",
			RateLimitRequests:   100,
			RateLimitWindowSecs: 60,
			ReadTimeoutSecs:     30,
			WriteTimeoutSecs:    30,
			IdleTimeoutSecs:     120,
			MaxRequestSize:      1024 * 1024,
		},
		Protocol: ProtocolConfig{
			ReplicationFactor: 10,
			ClaimExpiryBlocks: 256,
		},
		Wallet: WalletConfig{
			KeystoreDir: "~/.bridgeboard/keystore",
		},
	}
}

// Load reads a YAML config file, overlaying it on the defaults. A missing
// file is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch c.Daemon.LogFormat {
	case "", "json", "text":
	default:
		return fmt.Errorf("invalid log_format %q (want json or text)", c.Daemon.LogFormat)
	}

	if c.Protocol.ReplicationFactor == 0 {
		return fmt.Errorf("replication_factor must be positive")
	}
	if c.Protocol.ClaimExpiryBlocks == 0 {
		return fmt.Errorf("claim_expiry_blocks must be positive")
	}
	if c.API.RateLimitRequests < 0 || c.API.RateLimitWindowSecs < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
