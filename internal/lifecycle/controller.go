// Package lifecycle dispatches routerctl actions onto systemd and the unit file.
//
// Every action re-reads the invoking identity, re-resolves the scope and
// queries the live unit state before it mutates anything. Actions are
// idempotent: reaching a state the unit is already in is a no-op.
//
// During uninstall, failures to stop or disable the unit are logged as
// warnings and do not prevent the unit file from being removed.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/plexsphere/routerctl/internal/command"
	"github.com/plexsphere/routerctl/internal/config"
	"github.com/plexsphere/routerctl/internal/scope"
	"github.com/plexsphere/routerctl/internal/systemd"
)

// handler executes one action against a resolved invocation.
type handler func(ctx context.Context, inv *invocation) error

// invocation is the per-command state handed to a handler.
type invocation struct {
	desc     command.Descriptor
	identity scope.Identity
	scope    scope.Scope
	init     systemd.Controller
	logger   *slog.Logger
}

func (inv *invocation) initErr(op string, err error) error {
	return &InitSubsystemError{Op: op, Unit: inv.scope.UnitName(), Err: err}
}

// Controller runs lifecycle actions.
type Controller struct {
	cfg       config.Config
	identity  scope.IdentitySource
	connector systemd.Connector
	out       io.Writer
	logger    *slog.Logger
	handlers  map[command.Action]handler
}

// NewController creates a Controller. cfg must already have defaults applied.
// Human-readable results are written to out.
func NewController(cfg config.Config, identity scope.IdentitySource, connector systemd.Connector, out io.Writer, logger *slog.Logger) *Controller {
	c := &Controller{
		cfg:       cfg,
		identity:  identity,
		connector: connector,
		out:       out,
		logger:    logger.With("component", "lifecycle"),
	}
	c.handlers = map[command.Action]handler{
		command.ActionInstall:   c.install,
		command.ActionUninstall: c.uninstall,
		command.ActionEnable:    c.enable,
		command.ActionDisable:   c.disable,
		command.ActionStart:     c.start,
		command.ActionStop:      c.stop,
		command.ActionRestart:   c.restart,
		command.ActionStatus:    c.status,
	}
	return c
}

// Run executes desc. Scope and privilege are resolved before systemd is
// contacted, so a PrivilegeError never follows a partial mutation.
func (c *Controller) Run(ctx context.Context, desc command.Descriptor) error {
	h, ok := c.handlers[desc.Action]
	if !ok {
		return command.Usagef("action %q cannot be executed", desc.Action)
	}

	id, err := c.identity.Current()
	if err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	resolver := scope.Resolver{
		ServiceName:   c.cfg.ServiceName,
		SystemUnitDir: c.cfg.SystemUnitDir,
		SystemUser:    c.cfg.SystemUser,
	}
	sc, err := resolver.Resolve(desc, id)
	if err != nil {
		return err
	}

	init, err := c.connector.Connect(ctx, sc.Mode == scope.User)
	if err != nil {
		return &InitSubsystemError{Op: "connect", Err: err}
	}
	defer init.Close()

	inv := &invocation{
		desc:     desc,
		identity: id,
		scope:    sc,
		init:     init,
		logger:   c.logger.With("action", string(desc.Action), "scope", sc.Mode.String(), "unit", sc.UnitName()),
	}
	return h(ctx, inv)
}

// params assembles the render parameters from the descriptor, the settings
// and the scope, in that order of precedence.
func (c *Controller) params(inv *invocation) (paramSet, error) {
	binary := firstNonEmpty(inv.desc.BinaryPath, c.cfg.BinaryPath)
	cfgPath := firstNonEmpty(inv.desc.ConfigPath, c.cfg.ConfigPath, filepath.Join(inv.scope.ConfigDir, config.DefaultConfigFileName))
	workDir := firstNonEmpty(c.cfg.WorkingDir, inv.scope.StateDir)

	var err error
	if binary, err = filepath.Abs(binary); err != nil {
		return paramSet{}, fmt.Errorf("lifecycle: resolve binary path: %w", err)
	}
	if cfgPath, err = filepath.Abs(cfgPath); err != nil {
		return paramSet{}, fmt.Errorf("lifecycle: resolve config path: %w", err)
	}
	if workDir, err = filepath.Abs(workDir); err != nil {
		return paramSet{}, fmt.Errorf("lifecycle: resolve working directory: %w", err)
	}

	return paramSet{
		binaryPath: binary,
		configPath: cfgPath,
		workDir:    workDir,
	}, nil
}

type paramSet struct {
	binaryPath string
	configPath string
	workDir    string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Controller) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
