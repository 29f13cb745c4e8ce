// Package command turns parsed CLI input into an immutable Command Descriptor.
package command

import (
	"fmt"
	"strings"
)

// Action is a lifecycle action requested on the command line.
type Action string

// Supported actions.
const (
	ActionInstall   Action = "install"
	ActionUninstall Action = "uninstall"
	ActionEnable    Action = "enable"
	ActionDisable   Action = "disable"
	ActionStart     Action = "start"
	ActionStop      Action = "stop"
	ActionRestart   Action = "restart"
	ActionStatus    Action = "status"
	ActionHelp      Action = "help"
)

// Actions lists the lifecycle actions in the order they are presented in usage output.
var Actions = []Action{
	ActionInstall,
	ActionUninstall,
	ActionEnable,
	ActionDisable,
	ActionStart,
	ActionStop,
	ActionRestart,
	ActionStatus,
}

// Mutating reports whether the action changes init subsystem or filesystem state.
func (a Action) Mutating() bool {
	switch a {
	case ActionStatus, ActionHelp:
		return false
	}
	return true
}

// ParseAction returns the Action named by s.
func ParseAction(s string) (Action, error) {
	a := Action(strings.TrimSpace(s))
	if a == ActionHelp {
		return a, nil
	}
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	if a == "" {
		return "", Usagef("missing action")
	}
	return "", Usagef("unknown action %q", s)
}

// Flags holds the boolean switches that modify an action.
type Flags struct {
	// User selects the per-user scope.
	User bool

	// Force skips install preflight checks on the binary and config file.
	Force bool
}

// Overrides holds path overrides given as flags.
type Overrides struct {
	BinaryPath string
	ConfigPath string
}

// Descriptor is a validated command. It is passed by value and never mutated
// after New returns.
type Descriptor struct {
	Action     Action
	Flags      Flags
	BinaryPath string
	ConfigPath string
}

// New validates an action with its flags, positional arguments and flag
// overrides. Only install accepts positional arguments: [binary] [config].
func New(action Action, flags Flags, args []string, overrides Overrides) (Descriptor, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return Descriptor{}, err
	}

	maxArgs := 0
	if action == ActionInstall {
		maxArgs = 2
	}
	if len(args) > maxArgs {
		return Descriptor{}, Usagef("%s: accepts at most %d argument(s), received %d", action, maxArgs, len(args))
	}

	binaryPath, err := pick("binary path", overrides.BinaryPath, argAt(args, 0))
	if err != nil {
		return Descriptor{}, err
	}
	configPath, err := pick("config path", overrides.ConfigPath, argAt(args, 1))
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{
		Action:     action,
		Flags:      flags,
		BinaryPath: binaryPath,
		ConfigPath: configPath,
	}, nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// pick reconciles a flag override with its positional counterpart.
func pick(name, flagValue, positional string) (string, error) {
	switch {
	case flagValue == "":
		return positional, nil
	case positional == "" || positional == flagValue:
		return flagValue, nil
	default:
		return "", Usagef("conflicting %s: flag %q and argument %q", name, flagValue, positional)
	}
}

// UsageError reports a malformed or missing command.
type UsageError struct {
	Msg string
}

// Error returns the formatted error string.
func (e *UsageError) Error() string {
	return "command: " + e.Msg
}

// Usagef returns a *UsageError with a formatted message.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
