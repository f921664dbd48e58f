package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hedns/certbot-he-hook/internal/constants"
	"github.com/hedns/certbot-he-hook/internal/crypto"
	"gopkg.in/yaml.v3"
)

// SecureConfig stores password material in encrypted form
type SecureConfig struct {
	// Operational settings (not sensitive)
	DefaultValue  string `yaml:"default_value"`
	RetryInterval int    `yaml:"retry_interval"`
	RetryTimeout  int    `yaml:"retry_timeout"`
	StrictExit    bool   `yaml:"strict_exit"`

	// PasswordVault is the encrypted password and auth_map blob
	PasswordVault string `yaml:"password_vault"`
}

// credentials is the sensitive part that goes into the vault
type credentials struct {
	Password string            `yaml:"password"`
	AuthMap  map[string]string `yaml:"auth_map,omitempty"`
}

// SaveSecure saves config with encrypted password material
func SaveSecure(cfg *Config, path string) error {
	creds, err := yaml.Marshal(&credentials{
		Password: cfg.Password,
		AuthMap:  cfg.AuthMap,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	vault, err := crypto.EncryptSecret(string(creds))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	secureCfg := &SecureConfig{
		DefaultValue:  cfg.DefaultValue,
		RetryInterval: cfg.RetryInterval,
		RetryTimeout:  cfg.RetryTimeout,
		StrictExit:    cfg.StrictExit,
		PasswordVault: vault,
	}

	data, err := yaml.Marshal(secureCfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write with secure permissions (read-only)
	if err := os.WriteFile(path, data, constants.SecureConfigPerm); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// LoadSecure loads config with decrypted password material
func LoadSecure(path string) (*Config, error) {
	// Check permissions
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat config file: %w", err)
	}

	mode := info.Mode().Perm()
	if mode != constants.ConfigFilePerm && mode != constants.SecureConfigPerm {
		return nil, fmt.Errorf("insecure permissions %04o (must be %04o or %04o)", mode, constants.ConfigFilePerm, constants.SecureConfigPerm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var secureCfg SecureConfig
	if err := yaml.Unmarshal(data, &secureCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	plaintext, err := crypto.DecryptSecret(secureCfg.PasswordVault)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds credentials
	if err := yaml.Unmarshal([]byte(plaintext), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &Config{
		DefaultValue:  secureCfg.DefaultValue,
		Password:      creds.Password,
		AuthMap:       creds.AuthMap,
		RetryInterval: secureCfg.RetryInterval,
		RetryTimeout:  secureCfg.RetryTimeout,
		StrictExit:    secureCfg.StrictExit,
	}, nil
}

// MigrateToSecure converts plaintext config to encrypted. The file is
// read in isolation so the vault captures what is on disk, not values
// from the process environment.
func MigrateToSecure(plaintextPath, securePath string) error {
	cfg, err := loadFile(plaintextPath)
	if err != nil {
		return fmt.Errorf("failed to load plaintext config: %w", err)
	}

	// Save as encrypted
	if err := SaveSecure(cfg, securePath); err != nil {
		return fmt.Errorf("failed to save secure config: %w", err)
	}

	// Securely wipe plaintext file
	info, _ := os.Stat(plaintextPath)
	if info != nil {
		// Overwrite with zeros
		zeros := make([]byte, info.Size())
		_ = os.WriteFile(plaintextPath, zeros, constants.ConfigFilePerm)
		// Remove file
		_ = os.Remove(plaintextPath)
	}

	fmt.Printf("✓ Migrated config to secure storage at %s\n", securePath)
	fmt.Println("✓ Original plaintext config has been securely wiped")

	return nil
}
