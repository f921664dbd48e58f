package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hedns/certbot-he-hook/internal/certbot"
	"github.com/hedns/certbot-he-hook/internal/config"
	"github.com/hedns/certbot-he-hook/internal/dyndns"
	"github.com/hedns/certbot-he-hook/internal/propagation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	quiet      bool
	strictExit bool
)

func init() {
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.Flags().BoolVar(&strictExit, "strict-exit", false, "Exit non-zero when the provider rejects an update")

	_ = viper.BindPFlag("strict-exit", rootCmd.Flags().Lookup("strict-exit"))
}

// logInfo logs only if not in quiet mode
func logInfo(format string, args ...interface{}) {
	if !quiet {
		log.Printf(format, args...)
	}
}

// runHook is the root command: one auth or cleanup call from certbot
func runHook(_ *cobra.Command, _ []string) error {
	// Read certbot's invocation context
	inv, err := certbot.FromEnv()
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return executeHook(inv, cfg, dyndns.NewClient(), propagation.NewResolver())
}

// executeHook updates the challenge record and, on the publish path,
// waits for the change to become visible in public DNS.
func executeHook(inv *certbot.Invocation, cfg *config.Config, client *dyndns.Client, resolver propagation.Resolver) error {
	record := inv.ChallengeRecord()

	// Resolve the dynamic DNS password for this record. An empty
	// password is sent as-is; the provider enforces credentials.
	password := cfg.PasswordFor(record)
	if password == "" {
		logInfo("No password configured for %s, the provider will reject the update", record)
	}

	// Cleanup resets the record to the configured placeholder value
	value := inv.Validation
	mode := "publish"
	if inv.Cleanup {
		value = cfg.DefaultValue
		mode = "cleanup"
	}

	ctx := context.Background()

	logInfo("[%s] Updating TXT record %s (%s)", time.Now().Format("2006-01-02 15:04:05"), record, mode)

	result, err := client.Update(ctx, record, password, value)
	if err != nil {
		return fmt.Errorf("update failed for %s: %w", record, err)
	}

	if !result.OK {
		// Always report rejections, even in quiet mode
		log.Printf("Update rejected for %s: %s", record, result.Status())
		if cfg.StrictExit {
			return fmt.Errorf("provider rejected update for %s: %s", record, result.Status())
		}
		// Legacy contract: provider rejection is a diagnostic, not a failure
		return nil
	}

	logInfo("Update accepted for %s: %s", record, result.Status())

	// Only the publish path waits for propagation
	if !inv.Cleanup {
		if propagation.Wait(ctx, resolver, record, inv.Validation, cfg.Interval(), cfg.Timeout()) {
			logInfo("TXT record for %s confirmed in DNS", record)
		} else {
			logInfo("TXT record for %s not confirmed before timeout, continuing anyway", record)
		}
	}

	return nil
}
