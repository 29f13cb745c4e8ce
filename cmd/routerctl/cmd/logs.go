package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Stream service logs",
	Long:  "Stream the service's logs from journald. Pass --user for the per-user unit.",
	Args:  maxArgs(0),
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	journalctl, err := exec.LookPath("journalctl")
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "journalctl not found; logs may be available on stdout of the vllm-router process")
		return nil
	}

	c := exec.CommandContext(cmd.Context(), journalctl, journalArgs(cfg.ServiceName+".service", userScope, logsFollow)...)
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()

	if err := c.Run(); err != nil {
		return fmt.Errorf("routerctl logs: %w", err)
	}
	return nil
}

func journalArgs(unitName string, user, follow bool) []string {
	args := []string{"-u", unitName, "--no-pager"}
	if user {
		args = []string{"--user-unit", unitName, "--no-pager"}
	}
	if follow {
		args = append(args, "-f")
	}
	return args
}
