// Package cmd implements the routerctl CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plexsphere/routerctl/internal/command"
)

var (
	userScope    bool
	force        bool
	binaryPath   string
	workerConfig string
	settingsPath string
	logLevel     string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("routerctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "routerctl",
	Short: "routerctl manages the vllm-router systemd service",
	Long: "routerctl installs the vllm-router worker as a systemd service and drives its\n" +
		"lifecycle, either system-wide (requires root) or for the invoking user (--user).",
	Args:          rejectArgs,
	RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&userScope, "user", false, "operate on the per-user service manager")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "skip install preflight checks")
	rootCmd.PersistentFlags().StringVar(&binaryPath, "binary", "", "worker binary path (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&workerConfig, "config", "", "worker config file passed to the service (overrides settings)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "routerctl settings file (default depends on scope)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &command.UsageError{Msg: err.Error()}
	})

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("routerctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// rejectArgs turns stray root arguments into a usage error instead of help output.
func rejectArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return command.Usagef("unknown command %q", args[0])
	}
	return nil
}

// maxArgs is cobra.MaximumNArgs reporting a *command.UsageError.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &command.UsageError{Msg: cmd.Name() + ": " + err.Error()}
		}
		return nil
	}
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
