package lifecycle

import (
	"context"

	"github.com/plexsphere/routerctl/internal/fsutil"
	"github.com/plexsphere/routerctl/internal/systemd"
)

// query fetches the live unit status. Nothing is cached between calls.
func (inv *invocation) query(ctx context.Context) (systemd.Status, error) {
	st, err := inv.init.Status(ctx, inv.scope.UnitName())
	if err != nil {
		return systemd.Status{}, inv.initErr("status", err)
	}
	return st, nil
}

// uninstall stops and disables the unit, then removes the unit file.
// Stop and disable are best effort; removing the file is not.
func (c *Controller) uninstall(ctx context.Context, inv *invocation) error {
	unitName := inv.scope.UnitName()
	unitPath := inv.scope.UnitPath()

	// 1. Check current state
	st, statusErr := inv.query(ctx)
	if statusErr != nil {
		inv.logger.Warn("query status before uninstall", "error", statusErr)
	}
	exists, err := fsutil.Exists(unitPath)
	if err != nil {
		return &FilesystemError{Op: "stat unit file", Path: unitPath, Err: err}
	}
	if statusErr == nil && !st.Installed() && !st.Active() && !exists {
		inv.logger.Info("service is not installed, nothing to do")
		c.printf("%s is not installed\n", unitName)
		return nil
	}

	// 2. Stop service (errors are logged, not fatal)
	if statusErr != nil || st.Active() {
		if err := inv.init.Stop(ctx, unitName); err != nil {
			inv.logger.Warn("stop service", "error", err)
		}
	}

	// 3. Disable service (errors are logged, not fatal)
	if statusErr != nil || st.Enabled() {
		if err := inv.init.Disable(ctx, unitName); err != nil {
			inv.logger.Warn("disable service", "error", err)
		}
	}

	// 4. Remove unit file
	removed, err := fsutil.RemoveIfExists(unitPath)
	if err != nil {
		return &FilesystemError{Op: "remove unit file", Path: unitPath, Err: err}
	}
	if removed {
		inv.logger.Info("unit file removed", "path", unitPath)
	}

	// 5. Daemon reload
	if err := inv.init.DaemonReload(ctx); err != nil {
		return inv.initErr("daemon-reload", err)
	}

	c.printf("%s uninstalled (%s scope)\n", unitName, inv.scope.Mode)
	return nil
}

func (c *Controller) enable(ctx context.Context, inv *invocation) error {
	st, err := inv.query(ctx)
	if err != nil {
		return err
	}
	if !st.Installed() {
		return inv.initErr("enable", ErrNotInstalled)
	}
	if st.Enabled() {
		c.printf("%s is already enabled\n", inv.scope.UnitName())
		return nil
	}
	if err := inv.init.Enable(ctx, inv.scope.UnitName()); err != nil {
		return inv.initErr("enable", err)
	}
	inv.logger.Info("service enabled")
	c.printf("%s enabled\n", inv.scope.UnitName())
	return nil
}

func (c *Controller) disable(ctx context.Context, inv *invocation) error {
	st, err := inv.query(ctx)
	if err != nil {
		return err
	}
	if !st.Installed() || !st.Enabled() {
		c.printf("%s is already disabled\n", inv.scope.UnitName())
		return nil
	}
	if err := inv.init.Disable(ctx, inv.scope.UnitName()); err != nil {
		return inv.initErr("disable", err)
	}
	inv.logger.Info("service disabled")
	c.printf("%s disabled\n", inv.scope.UnitName())
	return nil
}

func (c *Controller) start(ctx context.Context, inv *invocation) error {
	st, err := inv.query(ctx)
	if err != nil {
		return err
	}
	if !st.Installed() {
		return inv.initErr("start", ErrNotInstalled)
	}
	if st.Active() {
		c.printf("%s is already running\n", inv.scope.UnitName())
		return nil
	}
	if err := inv.init.Start(ctx, inv.scope.UnitName()); err != nil {
		return inv.initErr("start", err)
	}
	inv.logger.Info("service started")
	c.printf("%s started\n", inv.scope.UnitName())
	return nil
}

func (c *Controller) stop(ctx context.Context, inv *invocation) error {
	st, err := inv.query(ctx)
	if err != nil {
		return err
	}
	if !st.Active() {
		c.printf("%s is not running\n", inv.scope.UnitName())
		return nil
	}
	if err := inv.init.Stop(ctx, inv.scope.UnitName()); err != nil {
		return inv.initErr("stop", err)
	}
	inv.logger.Info("service stopped")
	c.printf("%s stopped\n", inv.scope.UnitName())
	return nil
}

// restart stops a running unit and starts it again. A failed stop aborts
// the restart before start is attempted.
func (c *Controller) restart(ctx context.Context, inv *invocation) error {
	st, err := inv.query(ctx)
	if err != nil {
		return err
	}
	if !st.Installed() {
		return inv.initErr("restart", ErrNotInstalled)
	}
	if st.Active() {
		if err := inv.init.Stop(ctx, inv.scope.UnitName()); err != nil {
			return inv.initErr("stop", err)
		}
		inv.logger.Info("service stopped for restart")
	}
	if err := inv.init.Start(ctx, inv.scope.UnitName()); err != nil {
		return inv.initErr("start", err)
	}
	inv.logger.Info("service restarted")
	c.printf("%s restarted\n", inv.scope.UnitName())
	return nil
}

// status reports the live registration state. It never mutates.
func (c *Controller) status(ctx context.Context, inv *invocation) error {
	st, err := inv.query(ctx)
	if err != nil {
		return err
	}
	unitPath := inv.scope.UnitPath()
	onDisk, err := fsutil.Exists(unitPath)
	if err != nil {
		return &FilesystemError{Op: "stat unit file", Path: unitPath, Err: err}
	}
	version, err := inv.init.Version(ctx)
	if err != nil {
		inv.logger.Debug("query systemd version", "error", err)
		version = "unknown"
	}

	c.printf("Unit:      %s\n", inv.scope.UnitName())
	c.printf("Scope:     %s\n", inv.scope.Mode)
	c.printf("State:     %s\n", st.State())
	c.printf("Unit file: %s (%s)\n", unitPath, presence(onDisk))
	if st.MainPID != 0 {
		c.printf("Main PID:  %d\n", st.MainPID)
	}
	c.printf("systemd:   %s\n", version)
	return nil
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}
