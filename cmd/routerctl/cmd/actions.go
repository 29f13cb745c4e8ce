package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plexsphere/routerctl/internal/command"
	"github.com/plexsphere/routerctl/internal/config"
	"github.com/plexsphere/routerctl/internal/lifecycle"
	"github.com/plexsphere/routerctl/internal/scope"
	"github.com/plexsphere/routerctl/internal/systemd"
)

// defaultSystemSettings is the settings file consulted in system scope.
const defaultSystemSettings = "/etc/routerctl/config.yaml"

// Host bindings, replaced in tests.
var (
	newIdentitySource = scope.NewIdentitySource
	newConnector      = systemd.NewConnector
)

var actionShort = map[command.Action]string{
	command.ActionInstall:   "Install the service unit and reload systemd",
	command.ActionUninstall: "Stop, disable and remove the service unit",
	command.ActionEnable:    "Enable the service at boot or login",
	command.ActionDisable:   "Disable the service at boot or login",
	command.ActionStart:     "Start the service",
	command.ActionStop:      "Stop the service",
	command.ActionRestart:   "Restart the service",
	command.ActionStatus:    "Show the live service state",
}

func init() {
	for _, action := range command.Actions {
		rootCmd.AddCommand(newActionCmd(action))
	}
}

func newActionCmd(action command.Action) *cobra.Command {
	use := string(action)
	if action == command.ActionInstall {
		use += " [binary] [config]"
	}
	return &cobra.Command{
		Use:   use,
		Short: actionShort[action],
		// Positional arguments are validated by command.New.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, action, args)
		},
	}
}

func runAction(cmd *cobra.Command, action command.Action, args []string) error {
	desc, err := command.New(action,
		command.Flags{User: userScope, Force: force},
		args,
		command.Overrides{BinaryPath: binaryPath, ConfigPath: workerConfig},
	)
	if err != nil {
		return err
	}

	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctrl := lifecycle.NewController(*cfg, newIdentitySource(), newConnector(logger), cmd.OutOrStdout(), logger)
	return ctrl.Run(cmd.Context(), desc)
}

// loadSettings reads the settings file for the selected scope and builds the
// logger. An explicit --log-level beats the settings file.
func loadSettings(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, err := resolveSettingsPath()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, nil, command.Usagef("invalid log level %q", level)
	}

	logger := setupLogger(cmd.ErrOrStderr(), level)
	logger.Debug("settings loaded", "path", path, "service", cfg.ServiceName)
	return cfg, logger, nil
}

func resolveSettingsPath() (string, error) {
	if settingsPath != "" {
		return settingsPath, nil
	}
	if !userScope {
		return defaultSystemSettings, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("routerctl: locate user config directory: %w", err)
	}
	return filepath.Join(dir, "routerctl", "config.yaml"), nil
}

func setupLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
