package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hedns/certbot-he-hook/internal/config"
	"github.com/hedns/certbot-he-hook/internal/constants"
	"github.com/hedns/certbot-he-hook/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration command flags.
var (
	forceInit   bool // forceInit overwrites existing configuration
	interactive bool // interactive enables interactive configuration setup
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Initialize and check configuration for certbot-he-hook.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update configuration file",
	Long:  `Create a new configuration file or interactively update an existing one.`,
	RunE:  runConfigInit,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration",
	Long:  `Check if the configuration file is valid and show the effective settings.`,
	RunE:  runConfigCheck,
}

// init registers the config command and its subcommands.
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(checkCmd)

	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing configuration")
	initCmd.Flags().BoolVarP(&interactive, "interactive", "i", true, "Interactive configuration setup")
}

// runConfigInit creates or updates the configuration file.
// It supports both interactive and non-interactive modes.
func runConfigInit(_ *cobra.Command, _ []string) error {
	// Determine config path
	var configPath string
	if cfgFile != "" {
		configPath = cfgFile
	} else {
		// Use profile system for consistent path resolution
		profile.Init()
		configPath = profile.Current.GetConfigPath()
	}

	// Check if file already exists
	fileExists := false
	if _, err := os.Stat(configPath); err == nil {
		fileExists = true
		if !forceInit && !interactive {
			return fmt.Errorf("config file already exists at %s\nUse --force to overwrite or --interactive to update", configPath)
		}
	}

	// Interactive setup
	if interactive {
		return runInteractiveConfig(configPath, fileExists)
	}

	// Non-interactive: create default config
	if err := config.CreateDefault(configPath); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("Please edit this file with your dynamic DNS password(s).")

	return nil
}

// maskKey masks sensitive keys for display
func maskKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// runInteractiveConfig provides an interactive configuration wizard.
// The auth_map for multi-domain certificates has to be edited into the
// file by hand; the wizard only covers the scalar settings.
func runInteractiveConfig(configPath string, exists bool) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== certbot-he-hook Configuration Setup ===")
	fmt.Println()

	// Load existing config if it exists
	var cfg config.Config
	if exists {
		fmt.Printf("Found existing configuration at: %s\n", configPath)
		fmt.Println("Press Enter to keep current values, or type new ones.")
		fmt.Println()

		// Try to load existing config
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err == nil {
			if loaded, err := config.Load(); err == nil {
				cfg = *loaded
			}
		}
	}

	// Dynamic DNS password
	fmt.Println("Hurricane Electric dynamic DNS password (per-record key from dns.he.net):")
	fmt.Printf("Password [%s]: ", maskKey(cfg.Password))
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)
	if password == "" && exists {
		password = cfg.Password
	}

	// Cleanup value
	defaultValue := cfg.DefaultValue
	if defaultValue == "" {
		defaultValue = config.DefaultTXTValue
	}
	fmt.Printf("TXT value written during cleanup [%s]: ", defaultValue)
	cleanupValue, _ := reader.ReadString('\n')
	cleanupValue = strings.TrimSpace(cleanupValue)
	if cleanupValue == "" {
		cleanupValue = defaultValue
	}

	// Retry interval
	defaultInterval := cfg.RetryInterval
	if defaultInterval == 0 {
		defaultInterval = config.DefaultRetryInterval
	}
	fmt.Printf("Seconds between propagation checks [%d]: ", defaultInterval)
	intervalStr, _ := reader.ReadString('\n')
	intervalStr = strings.TrimSpace(intervalStr)
	interval := defaultInterval
	if intervalStr != "" {
		_, _ = fmt.Sscanf(intervalStr, "%d", &interval)
	}

	// Retry timeout
	defaultTimeout := cfg.RetryTimeout
	if defaultTimeout == 0 && !exists {
		defaultTimeout = config.DefaultRetryTimeout
	}
	fmt.Printf("Total seconds to wait for propagation, 0 disables [%d]: ", defaultTimeout)
	timeoutStr, _ := reader.ReadString('\n')
	timeoutStr = strings.TrimSpace(timeoutStr)
	timeout := defaultTimeout
	if timeoutStr != "" {
		_, _ = fmt.Sscanf(timeoutStr, "%d", &timeout)
	}

	// Strict exit
	strictDefault := "no"
	if cfg.StrictExit {
		strictDefault = "yes"
	}
	fmt.Printf("Exit non-zero when the provider rejects an update? (yes/no) [%s]: ", strictDefault)
	strictStr, _ := reader.ReadString('\n')
	strictStr = strings.TrimSpace(strings.ToLower(strictStr))
	if strictStr == "" {
		strictStr = strictDefault
	}
	strict := strictStr == "yes" || strictStr == "y"

	// Create config content
	configContent := fmt.Sprintf(`# certbot-he-hook Configuration

# TXT value written back to the record during cleanup
default_value: "%s"

# Shared dynamic DNS password for single-domain use
password: "%s"

# Per-record passwords, required when one certificate request covers
# more than one domain. Keys are full challenge record names.
#auth_map:
#  _acme-challenge.example.com: "secret-for-example"
#  _acme-challenge.www.example.com: "secret-for-www"

# Seconds between propagation checks
retry_interval: %d

# Total seconds to wait for propagation, 0 disables the wait
retry_timeout: %d

# Exit non-zero when the provider rejects an update
strict_exit: %t
`, cleanupValue, password, interval, timeout, strict)

	// Show summary
	fmt.Println()
	fmt.Println("=== Configuration Summary ===")
	fmt.Printf("Password: %s\n", maskKey(password))
	fmt.Printf("Cleanup TXT value: %s\n", cleanupValue)
	fmt.Printf("Retry interval: %d seconds\n", interval)
	fmt.Printf("Retry timeout: %d seconds\n", timeout)
	fmt.Printf("Strict exit: %t\n", strict)
	fmt.Println()

	// Confirm
	fmt.Print("Save this configuration? (yes/no) [yes]: ")
	confirm, _ := reader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "" {
		confirm = "yes"
	}

	if confirm != "yes" && confirm != "y" {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	// Create directory if needed
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(configPath, []byte(configContent), constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("\n✓ Configuration saved to: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Add per-record passwords under auth_map for multi-domain certificates")
	fmt.Println("  2. Check the configuration: certbot-he-hook config check")
	fmt.Println("  3. Point certbot at the hook:")
	fmt.Println("       certbot certonly --manual --preferred-challenges dns \\")
	fmt.Println("         --manual-auth-hook certbot-he-hook --manual-cleanup-hook certbot-he-hook")

	return nil
}

// runConfigCheck validates the configuration file and prints the
// effective settings with password material masked.
func runConfigCheck(_ *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Println("✓ Configuration is valid")
	fmt.Printf("  Cleanup TXT value: %s\n", cfg.DefaultValue)
	fmt.Printf("  Shared password: %s\n", maskKey(cfg.Password))
	fmt.Printf("  Retry interval: %d seconds\n", cfg.RetryInterval)
	if cfg.RetryTimeout == 0 {
		fmt.Println("  Retry timeout: 0 (propagation wait disabled)")
	} else {
		fmt.Printf("  Retry timeout: %d seconds\n", cfg.RetryTimeout)
	}
	fmt.Printf("  Strict exit: %t\n", cfg.StrictExit)

	if len(cfg.AuthMap) > 0 {
		fmt.Printf("  Per-record passwords (%d):\n", len(cfg.AuthMap))
		records := make([]string, 0, len(cfg.AuthMap))
		for record := range cfg.AuthMap {
			records = append(records, record)
		}
		sort.Strings(records)
		for _, record := range records {
			fmt.Printf("    %s: %s\n", record, maskKey(cfg.AuthMap[record]))
		}
	}

	if cfg.Password == "" && len(cfg.AuthMap) == 0 {
		fmt.Println()
		fmt.Println("Warning: no password configured, updates will be rejected by the provider.")
	}

	return nil
}
