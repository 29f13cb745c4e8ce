package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/plexsphere/routerctl/internal/command"
	"github.com/plexsphere/routerctl/internal/lifecycle"
	"github.com/plexsphere/routerctl/internal/scope"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitPrivilege   = 3
	ExitFilesystem  = 4
	ExitInitService = 5
)

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	var (
		usageErr *command.UsageError
		privErr  *scope.PrivilegeError
		fsErr    *lifecycle.FilesystemError
		initErr  *lifecycle.InitSubsystemError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.As(err, &privErr):
		return ExitPrivilege
	case errors.As(err, &fsErr):
		return ExitFilesystem
	case errors.As(err, &initErr):
		return ExitInitService
	default:
		return ExitFailure
	}
}

// PrintError writes the single-line diagnostic for err to w. Usage errors
// are followed by a hint pointing at --help.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "routerctl: %v\n", err)
	var usageErr *command.UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(w, "Run 'routerctl --help' for usage.")
	}
}
