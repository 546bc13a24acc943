// Package config resolves wcpair settings from defaults, the environment and
// an optional TOML file in the wcpair home directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix  = "WCPAIR"
	configName = "config"
	configType = "toml"
	homeDirMod = 0o700
)

// Setting keys as they appear in config.toml. The matching environment
// variable is the upper-cased key with a WCPAIR_ prefix.
const (
	KeyHome            = "home"
	KeyLogLevel        = "log_level"
	KeyBridgeURL       = "bridge_url"
	KeyAssetAPIURL     = "asset_api_url"
	KeyAssetAPIKey     = "asset_api_key"
	KeyAssetRateLimit  = "asset_rate_limit"
	KeyProviderTimeout = "provider_timeout"
	KeyMetricsAddr     = "metrics_addr"
)

// Defaults applied when a setting is not configured. The asset rate limit is
// in requests per second.
const (
	DefaultLogLevel        = "info"
	DefaultBridgeURL       = "https://bridge.walletconnect.org"
	DefaultAssetAPIURL     = "https://api.opensea.io/api/"
	DefaultAssetRateLimit  = 2.0
	DefaultProviderTimeout = 30 * time.Second
)

// Config is the resolved wcpair configuration.
type Config struct {
	// Home is the directory where wcpair keeps local state and its config
	// file.
	Home string
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string
	// BridgeURL is embedded in pairing URIs handed to the remote peer.
	BridgeURL string
	// AssetAPIURL is the base URL of the asset listing API.
	AssetAPIURL string
	// AssetAPIKey is sent with asset requests when set.
	AssetAPIKey string
	// AssetRateLimit caps asset requests per second. Zero disables the cap.
	AssetRateLimit float64
	// ProviderTimeout bounds each session and asset provider call.
	ProviderTimeout time.Duration
	// MetricsAddr is the listen address of the /metrics endpoint. Empty
	// disables it.
	MetricsAddr string
}

// Load resolves configuration from defaults, WCPAIR_* environment variables,
// and $WCPAIR_HOME/config.toml when present.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyHome, filepath.Join(homeDir, ".wcpair"))
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyBridgeURL, DefaultBridgeURL)
	v.SetDefault(KeyAssetAPIURL, DefaultAssetAPIURL)
	v.SetDefault(KeyAssetAPIKey, "")
	v.SetDefault(KeyAssetRateLimit, DefaultAssetRateLimit)
	v.SetDefault(KeyProviderTimeout, DefaultProviderTimeout)
	v.SetDefault(KeyMetricsAddr, "")

	home := v.GetString(KeyHome)
	if home == "" {
		return nil, errors.New("home directory is empty")
	}
	if err := os.MkdirAll(home, homeDirMod); err != nil {
		return nil, fmt.Errorf("failed to create wcpair home: %w", err)
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(home)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Home:            home,
		LogLevel:        v.GetString(KeyLogLevel),
		BridgeURL:       v.GetString(KeyBridgeURL),
		AssetAPIURL:     v.GetString(KeyAssetAPIURL),
		AssetAPIKey:     v.GetString(KeyAssetAPIKey),
		AssetRateLimit:  v.GetFloat64(KeyAssetRateLimit),
		ProviderTimeout: v.GetDuration(KeyProviderTimeout),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and URL shapes.
func (c *Config) Validate() error {
	if err := checkURL(KeyBridgeURL, c.BridgeURL); err != nil {
		return err
	}
	if err := checkURL(KeyAssetAPIURL, c.AssetAPIURL); err != nil {
		return err
	}
	if c.AssetRateLimit < 0 {
		return fmt.Errorf("invalid %s %v: must not be negative", KeyAssetRateLimit, c.AssetRateLimit)
	}
	if c.ProviderTimeout < 0 {
		return fmt.Errorf("invalid %s %v: must not be negative", KeyProviderTimeout, c.ProviderTimeout)
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: expected an http(s) url", key, raw)
	}
	return nil
}
