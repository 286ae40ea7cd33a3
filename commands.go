package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/flucianomsft/aks-assessment/pkg/audit"
	"github.com/flucianomsft/aks-assessment/pkg/auth"
	"github.com/flucianomsft/aks-assessment/pkg/azure"
	"github.com/flucianomsft/aks-assessment/pkg/config"
	"github.com/flucianomsft/aks-assessment/pkg/logger"
	"github.com/flucianomsft/aks-assessment/pkg/report"
)

// Version information variables (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// runConfig is the configuration resolved by the persistent pre-run hook.
var runConfig *config.Config

func setRunConfig(cfg *config.Config) {
	runConfig = cfg
}

// NewAuditCommand creates the audit command
func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Assess all visible AKS clusters and write a CSV report",
		Long:  "Enumerates every subscription the credential can see, evaluates each AKS cluster against the fixed best-practice checks and appends one CSV row per cluster to a timestamped report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context())
		},
	}

	cmd.Flags().String("output-dir", "", "Directory for run output (defaults to the executable's directory)")
	cmd.Flags().String("delimiter", "", "CSV field delimiter, a single character (default \";\")")
	cmd.Flags().String("log-level", "", "Logging level: debug, info, warning, error (default \"info\")")
	cmd.Flags().StringSlice("subscription", nil, "Restrict the run to this subscription ID (repeatable)")

	return cmd
}

// NewVersionCommand creates a new version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build commit, and build time information",
		Run: func(cmd *cobra.Command, args []string) {
			runVersion()
		},
	}

	return cmd
}

// applyFlagOverrides layers explicitly-set command flags over the loaded
// configuration, then re-validates it.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("delimiter") {
		cfg.Output.Delimiter, _ = flags.GetString("delimiter")
	}
	if flags.Changed("log-level") {
		cfg.Agent.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("subscription") {
		cfg.Azure.Subscriptions, _ = flags.GetStringSlice("subscription")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// runAudit performs one assessment run end to end. Setup failures (run
// directory, report file, credential) abort before any cluster is touched;
// per-cluster problems stay inside the report.
func runAudit(ctx context.Context) error {
	log := logger.GetLoggerFromContext(ctx)
	cfg := runConfig

	base := report.ResolveOutputDir(cfg.Output.Dir)
	if cfg.Output.Dir != "" && base != cfg.Output.Dir {
		log.Warnf("Output directory %s is not usable, falling back to %s", cfg.Output.Dir, base)
	}

	runPaths, err := report.CreateRunDir(base, time.Now())
	if err != nil {
		return err
	}

	transcript, err := logger.AttachFile(log, runPaths.LogFile)
	if err != nil {
		return err
	}
	defer transcript.Close()

	log.Infof("Run output directory: %s", runPaths.Dir)

	authProvider := auth.NewAuthProvider()
	if !cfg.IsSPConfigured() {
		if err := authProvider.CheckCLIAuthStatus(ctx); err != nil {
			return fmt.Errorf("no service principal configured and Azure CLI is not logged in: %w", err)
		}
	}
	cred, err := authProvider.UserCredential(cfg)
	if err != nil {
		return fmt.Errorf("failed to build credential: %w", err)
	}

	sink, err := report.NewFileSink(runPaths.ReportFile, cfg.DelimiterRune())
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Errorf("Failed to close report file: %v", err)
		}
	}()

	provider := azure.NewProvider(cred, log, nil)
	orchestrator := audit.NewOrchestrator(provider, sink, log,
		audit.WithSubscriptionFilter(cfg.Azure.Subscriptions))

	result, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	log.Infof("Report written to %s (%d rows, %d clusters could not be assessed)",
		runPaths.ReportFile, result.RecordsEmitted, result.ClustersFailed)
	return nil
}

// runVersion displays version information
func runVersion() {
	fmt.Printf("AKS Assessment\n")
	fmt.Printf("Version: %s\n", Version)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Build Time: %s\n", BuildTime)
}
