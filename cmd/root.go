package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hedns/certbot-he-hook/internal/constants"
	"github.com/hedns/certbot-he-hook/internal/profile"
	"github.com/hedns/certbot-he-hook/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "certbot-he-hook",
		Short: "ACME DNS-01 hook for Hurricane Electric dynamic DNS",
		Long: `certbot-he-hook publishes and resets ACME DNS-01 challenge TXT records
through Hurricane Electric's dynamic DNS update endpoint.

certbot invokes it twice per domain: as --manual-auth-hook to publish
the challenge value, and as --manual-cleanup-hook to reset the record.
The cleanup call is recognized by the CERTBOT_AUTH_OUTPUT variable that
certbot sets only on cleanup.`,
		Version:      version.GetFullVersion(),
		SilenceUsage: true,
		RunE:         runHook,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.he-ddns/config.yaml, or $HE_DDNS_CONF)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

// checkConfigPermissions ensures config file has secure permissions (600 or 400)
func checkConfigPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat config file: %w", err)
	}

	mode := info.Mode().Perm()
	// Accept only standard or secure config permissions
	if mode != constants.ConfigFilePerm && mode != constants.SecureConfigPerm {
		return fmt.Errorf("config file %s has insecure permissions %04o (must be %04o or %04o)", path, mode, constants.ConfigFilePerm, constants.SecureConfigPerm)
	}

	return nil
}

func initConfig() {
	if cfgFile == "" {
		// HE_DDNS_CONF overrides the default location
		cfgFile = os.Getenv("HE_DDNS_CONF")
	}

	if cfgFile != "" {
		// Resolve to an absolute path before use
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
		}
		viper.SetConfigFile(cfgFile)

		// Handle .secure files specially
		if strings.HasSuffix(cfgFile, ".secure") {
			// For secure files, we just need to track the path
			// The actual loading will be handled by LoadSecure in config package
			viper.SetConfigType("yaml") // Set type to avoid "unsupported" error
		}
	} else {
		// Initialize profile system
		profile.Init()
		p := profile.Current

		// Check for secure config first (prefer encrypted over plaintext)
		securePath := p.GetSecurePath()
		if _, err := os.Stat(securePath); err == nil {
			// Found secure config, use it
			cfgFile = securePath
			viper.SetConfigFile(securePath)
			viper.SetConfigType("yaml")
		} else {
			// Fall back to regular config search
			viper.AddConfigPath(p.GetDataDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Read config file if it exists (skip for .secure files)
	if cfgFile != "" && strings.HasSuffix(cfgFile, ".secure") {
		// Don't try to read .secure files with viper; decryption is
		// handled later in the config package. A missing file is fine
		// here too, the loader falls back to environment and defaults.
		if _, err := os.Stat(cfgFile); err != nil && !os.IsNotExist(err) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: cannot read config file: %v\n", err)
			os.Exit(1)
		}
	} else if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, the feature is optional.
		// A malformed one is fatal before any network call is made.
		var configNotFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFoundErr) && !os.IsNotExist(err) {
			_, _ = fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	// Check config file permissions for security
	configFile := viper.ConfigFileUsed()
	if configFile == "" && cfgFile != "" {
		configFile = cfgFile // Use the flag value for .secure files
	}
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := checkConfigPermissions(configFile); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Security warning: %v\n", err)
				os.Exit(1)
			}
		}
	}
}
