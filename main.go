package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/daysleft/pkg/auth"
	"github.com/harrisonrobin/daysleft/pkg/config"
	"github.com/harrisonrobin/daysleft/pkg/logx"
	"github.com/harrisonrobin/daysleft/pkg/runner"
	"github.com/harrisonrobin/daysleft/pkg/schedule"
	"github.com/harrisonrobin/daysleft/pkg/store"
)

var (
	configPath   string
	dryRun       bool
	logLevel     string
	runOnStartup bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "daysleft",
		Short: "Keep a \"days remaining\" marker on due tasks",
		Long: `daysleft appends " [N days remaining]" to tasks with a due date in the
configured projects and keeps it current, optionally completing tasks whose
due date has passed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/daysleft/config.yaml)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log decisions without writing to the task service")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run passes on the configured cron schedule",
		RunE:  runServe,
	}
	serveCmd.Flags().BoolVar(&runOnStartup, "run-on-start", false, "run one pass immediately")

	root.AddCommand(
		&cobra.Command{Use: "run", Short: "Run a single pass", RunE: runOnce},
		serveCmd,
		&cobra.Command{Use: "auth", Short: "Authorize access to Google Tasks", RunE: runAuth},
		newConfigCmd(),
	)
	return root
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, logx.New(os.Stderr, logLevel, ""), err
	}
	if dryRun {
		cfg.DryRun = true
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, logx.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

func pass(ctx context.Context, cfg *config.Config, log zerolog.Logger) (runner.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return runner.Summary{}, err
	}
	s, err := store.Open(ctx, cfg, log)
	if err != nil {
		return runner.Summary{}, err
	}
	return runner.New(s, cfg, log).Run(ctx)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	sum, err := pass(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", sum.Failed, sum.Considered)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := schedule.Options{Location: cfg.Location, RunOnStart: runOnStartup}
	return schedule.Run(cmd.Context(), cfg.Schedule, log, opts, func(ctx context.Context) {
		// Each pass re-reads the configuration so changes apply without a restart.
		cfg, log, err := loadConfig()
		if err != nil {
			log.Error().Err(err).Msg("could not load config, skipping pass")
			return
		}
		if _, err := pass(ctx, cfg, log); err != nil {
			log.Error().Err(err).Msg("pass failed")
		}
	})
}

func runAuth(cmd *cobra.Command, args []string) error {
	_, log, err := loadConfig()
	if err != nil {
		return err
	}
	tokenFile, err := auth.RemoveToken()
	if err != nil {
		return fmt.Errorf("%w. Please delete it manually", err)
	}
	if _, err := auth.GetTasksService(cmd.Context(), log); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	log.Info().Str("path", tokenFile).Msg("authentication successful, token saved")
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect or write the configuration file"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "projects:            %s\n", strings.Join(cfg.ProjectNames(), ", "))
				fmt.Fprintf(out, "workweek:            %s\n", cfg.Mode)
				fmt.Fprintf(out, "force_write:         %t\n", cfg.ForceWrite)
				fmt.Fprintf(out, "complete_past_items: %t\n", cfg.CompletePastItems)
				fmt.Fprintf(out, "backend:             %s\n", cfg.Backend)
				fmt.Fprintf(out, "todoist_api_key:     %s\n", mask(cfg.TodoistAPIKey))
				fmt.Fprintf(out, "timezone:            %s\n", cfg.Location)
				fmt.Fprintf(out, "schedule:            %s\n", cfg.Schedule)
				fmt.Fprintf(out, "workers:             %d\n", cfg.Workers)
				fmt.Fprintf(out, "dry_run:             %t\n", cfg.DryRun)
				if err := cfg.Validate(); err != nil {
					fmt.Fprintf(out, "\ninvalid: %v\n", err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the effective configuration to the config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := loadConfig()
				if err != nil {
					return err
				}
				if err := config.Save(cfg, configPath); err != nil {
					return err
				}
				log.Info().Msg("configuration saved")
				return nil
			},
		},
	)
	return cmd
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
