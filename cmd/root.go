package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fiscal/internal/config"
	"fiscal/internal/logger"
)

var version = "1.0.0"

var (
	cfg    *config.Config
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "fiscal",
	Short: "Decode and catalog Brazilian NF-e and CT-e documents",
	Long: `fiscal decodes authorized Brazilian electronic fiscal documents (NF-e goods
invoices and CT-e transport waybills) from their XML form, projects them into
a uniform summary and filters, aggregates or exports the result.

Configuration is read from the environment (a .env file is loaded when
present). See the individual commands for the variables they use.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command. c is nil when configuration failed to load;
// commands that need it report loadErr.
func Execute(c *config.Config, loadErr error) {
	cfg, cfgErr = c, loadErr

	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}
