package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hedns/certbot-he-hook/internal/constants"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Built-in defaults
const (
	// DefaultTXTValue is written back to the record during cleanup
	DefaultTXTValue = "Acme challenge key"

	// DefaultRetryInterval is the delay between propagation checks (seconds)
	DefaultRetryInterval = 5

	// DefaultRetryTimeout is the total propagation wait budget (seconds)
	DefaultRetryTimeout = 300
)

// Config holds all configuration for certbot-he-hook
type Config struct {
	DefaultValue  string            // default_value: TXT value written during cleanup
	Password      string            // password: shared dynamic DNS password for single-domain use
	AuthMap       map[string]string // auth_map: per-record passwords, keyed by challenge record name
	RetryInterval int               // retry_interval: seconds between propagation checks
	RetryTimeout  int               // retry_timeout: total polling budget in seconds, 0 disables the wait
	StrictExit    bool              // strict_exit: exit non-zero when the provider rejects an update
}

// Load reads configuration from file and environment.
// Precedence, highest first: environment variables, config file, defaults.
func Load() (*Config, error) {
	// Check if using secure config (from either viper or flag)
	configFile := viper.ConfigFileUsed()
	if configFile == "" && viper.IsSet("config") {
		configFile = viper.GetString("config")
	}
	if configFile != "" && strings.HasSuffix(configFile, ".secure") {
		if _, err := os.Stat(configFile); err == nil {
			// Load encrypted config; already-set environment
			// variables and flags still win over the decrypted
			// file values
			cfg, err := LoadSecure(configFile)
			if err != nil {
				return nil, err
			}
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			applyFlagOverrides(cfg)
			return cfg, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot stat config file: %w", err)
		}
		// A missing secure config is not an error, fall through to
		// environment and defaults
	}

	viper.SetDefault("default_value", DefaultTXTValue)
	viper.SetDefault("password", "")
	viper.SetDefault("retry_interval", DefaultRetryInterval)
	viper.SetDefault("retry_timeout", DefaultRetryTimeout)
	viper.SetDefault("strict_exit", false)

	// Already-set environment variables win over file values
	_ = viper.BindEnv("default_value", "HE_DDNS_DEFAULT")
	_ = viper.BindEnv("password", "HE_DDNS_PASSWORD")
	_ = viper.BindEnv("retry_interval", "HE_DDNS_RETRY_INTERVAL")
	_ = viper.BindEnv("retry_timeout", "HE_DDNS_RETRY_TIMEOUT")
	_ = viper.BindEnv("strict_exit", "HE_DDNS_STRICT_EXIT")

	cfg := &Config{
		DefaultValue:  viper.GetString("default_value"),
		Password:      viper.GetString("password"),
		AuthMap:       viper.GetStringMapString("auth_map"),
		RetryInterval: viper.GetInt("retry_interval"),
		RetryTimeout:  viper.GetInt("retry_timeout"),
		StrictExit:    viper.GetBool("strict_exit"),
	}

	// HE_DDNS_AUTH carries a whole mapping in one value, viper cannot
	// bind that directly
	if raw := os.Getenv("HE_DDNS_AUTH"); raw != "" {
		authMap, err := ParseAuthMap(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HE_DDNS_AUTH: %w", err)
		}
		cfg.AuthMap = authMap
	}

	applyFlagOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides merges HE_DDNS_* values onto cfg. The secure-config
// path bypasses viper, so the env-over-file precedence is enforced here
// for every recognized option.
func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv("HE_DDNS_DEFAULT"); ok {
		cfg.DefaultValue = v
	}
	if v, ok := os.LookupEnv("HE_DDNS_PASSWORD"); ok {
		cfg.Password = v
	}
	if raw := os.Getenv("HE_DDNS_AUTH"); raw != "" {
		authMap, err := ParseAuthMap(raw)
		if err != nil {
			return fmt.Errorf("invalid HE_DDNS_AUTH: %w", err)
		}
		cfg.AuthMap = authMap
	}
	if v, ok := os.LookupEnv("HE_DDNS_RETRY_INTERVAL"); ok {
		cfg.RetryInterval = cast.ToInt(v)
	}
	if v, ok := os.LookupEnv("HE_DDNS_RETRY_TIMEOUT"); ok {
		cfg.RetryTimeout = cast.ToInt(v)
	}
	if v, ok := os.LookupEnv("HE_DDNS_STRICT_EXIT"); ok {
		cfg.StrictExit = cast.ToBool(v)
	}
	return nil
}

// applyFlagOverrides applies command-line flags, which win over any
// config source
func applyFlagOverrides(cfg *Config) {
	if viper.IsSet("strict-exit") {
		cfg.StrictExit = viper.GetBool("strict-exit")
	}
}

// loadFile reads one plaintext config file in isolation, without
// consulting the process environment or the global viper state.
// Migration to secure storage uses it so the vault captures exactly
// what is on disk.
func loadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("default_value", DefaultTXTValue)
	v.SetDefault("password", "")
	v.SetDefault("retry_interval", DefaultRetryInterval)
	v.SetDefault("retry_timeout", DefaultRetryTimeout)
	v.SetDefault("strict_exit", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &Config{
		DefaultValue:  v.GetString("default_value"),
		Password:      v.GetString("password"),
		AuthMap:       v.GetStringMapString("auth_map"),
		RetryInterval: v.GetInt("retry_interval"),
		RetryTimeout:  v.GetInt("retry_timeout"),
		StrictExit:    v.GetBool("strict_exit"),
	}, nil
}

// ParseAuthMap parses the HE_DDNS_AUTH environment value. Accepted
// forms: an inline YAML mapping ("{_acme-challenge.example.com: pw}")
// or a comma-separated list of record=password pairs.
func ParseAuthMap(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		m := map[string]string{}
		if err := yaml.Unmarshal([]byte(trimmed), &m); err != nil {
			return nil, fmt.Errorf("not a YAML mapping: %w", err)
		}
		return m, nil
	}

	m := make(map[string]string)
	for _, pair := range strings.Split(trimmed, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		record, password, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed entry %q, want record=password", pair)
		}
		m[strings.TrimSpace(record)] = strings.TrimSpace(password)
	}
	return m, nil
}

// PasswordFor resolves the password for a challenge record name.
// A per-record entry in auth_map wins over the shared password. When
// neither is set the empty string is returned and the provider will
// reject the update; there is no local credential validation.
func (c *Config) PasswordFor(record string) string {
	if password, ok := c.AuthMap[record]; ok {
		return password
	}
	return c.Password
}

// Interval returns the propagation check delay
func (c *Config) Interval() time.Duration {
	return time.Duration(c.RetryInterval) * time.Second
}

// Timeout returns the total propagation wait budget
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RetryTimeout) * time.Second
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RetryInterval <= 0 {
		return fmt.Errorf("retry_interval must be positive")
	}
	if c.RetryTimeout < 0 {
		return fmt.Errorf("retry_timeout must not be negative")
	}
	return nil
}

// CreateDefault creates a default configuration file
func CreateDefault(path string) error {
	defaultConfig := `# certbot-he-hook Configuration

# TXT value written back to the record during cleanup
default_value: "Acme challenge key"

# Shared dynamic DNS password for single-domain use
password: ""

# Per-record passwords, required when one certificate request covers
# more than one domain. Keys are full challenge record names.
#auth_map:
#  _acme-challenge.example.com: "secret-for-example"
#  _acme-challenge.www.example.com: "secret-for-www"

# Seconds between propagation checks
retry_interval: 5

# Total seconds to wait for propagation, 0 disables the wait
retry_timeout: 300

# Exit non-zero when the provider rejects an update, so certbot
# aborts issuance instead of continuing with an unconfirmed record
strict_exit: false
`

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(path, []byte(defaultConfig), constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
