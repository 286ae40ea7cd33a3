package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flucianomsft/aks-assessment/pkg/config"
	"github.com/flucianomsft/aks-assessment/pkg/logger"
)

var (
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aks-assessment",
		Short: "AKS best-practice assessment",
		Long:  "Audits Azure Kubernetes Service clusters across all visible subscriptions against a fixed set of best-practice checks and writes a CSV report per run",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to optional configuration JSON file")

	rootCmd.AddCommand(NewAuditCommand())
	rootCmd.AddCommand(NewVersionCommand())

	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Set up persistent pre-run to initialize config and logger
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Version needs neither config nor logger
		if cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := applyFlagOverrides(cmd, cfg); err != nil {
			return err
		}
		setRunConfig(cfg)

		ctx := logger.SetupLogger(cmd.Context(), cfg.Agent.LogLevel)
		cmd.SetContext(ctx)
		return nil
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		os.Exit(1)
	}
}
