package systemd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
)

// errNoSuchUnit is the D-Bus error name systemd returns for unknown units.
const errNoSuchUnit = "org.freedesktop.systemd1.NoSuchUnit"

// jobDone is the job result systemd reports on success.
const jobDone = "done"

// busController implements Controller over the systemd D-Bus API.
type busController struct {
	conn *sdbus.Conn
}

func (c *busController) Version(_ context.Context) (string, error) {
	v, err := c.conn.GetManagerProperty("Version")
	if err != nil {
		return "", fmt.Errorf("systemd: query version: %w", err)
	}
	return strings.Trim(v, `"`), nil
}

func (c *busController) DaemonReload(ctx context.Context) error {
	if err := c.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("systemd: daemon-reload: %w", err)
	}
	return nil
}

func (c *busController) Enable(ctx context.Context, unit string) error {
	if _, _, err := c.conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
		return fmt.Errorf("systemd: enable %s: %w", unit, err)
	}
	return c.DaemonReload(ctx)
}

func (c *busController) Disable(ctx context.Context, unit string) error {
	if _, err := c.conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
		return fmt.Errorf("systemd: disable %s: %w", unit, err)
	}
	return c.DaemonReload(ctx)
}

func (c *busController) Start(ctx context.Context, unit string) error {
	done := make(chan string, 1)
	if _, err := c.conn.StartUnitContext(ctx, unit, "replace", done); err != nil {
		return fmt.Errorf("systemd: start %s: %w", unit, err)
	}
	return waitJob(ctx, "start", unit, done)
}

func (c *busController) Stop(ctx context.Context, unit string) error {
	done := make(chan string, 1)
	if _, err := c.conn.StopUnitContext(ctx, unit, "replace", done); err != nil {
		return fmt.Errorf("systemd: stop %s: %w", unit, err)
	}
	return waitJob(ctx, "stop", unit, done)
}

func (c *busController) Status(ctx context.Context, unit string) (Status, error) {
	props, err := c.conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		if IsNoSuchUnit(err) {
			return Status{LoadState: "not-found"}, nil
		}
		return Status{}, fmt.Errorf("systemd: status %s: %w", unit, err)
	}
	return statusFromProperties(props), nil
}

func (c *busController) Close() error {
	c.conn.Close()
	return nil
}

func waitJob(ctx context.Context, op, unit string, done <-chan string) error {
	select {
	case result := <-done:
		if result != jobDone {
			return fmt.Errorf("systemd: %s %s: job %s", op, unit, result)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("systemd: %s %s: %w", op, unit, ctx.Err())
	}
}

func statusFromProperties(props map[string]any) Status {
	str := func(key string) string {
		s, _ := props[key].(string)
		return s
	}
	st := Status{
		LoadState:     str("LoadState"),
		ActiveState:   str("ActiveState"),
		SubState:      str("SubState"),
		UnitFileState: str("UnitFileState"),
	}
	st.MainPID, _ = props["MainPID"].(uint32)
	st.InactiveEnterTimestamp, _ = props["InactiveEnterTimestampMonotonic"].(uint64)
	return st
}

// IsNoSuchUnit reports whether err is systemd's NoSuchUnit D-Bus error.
func IsNoSuchUnit(err error) bool {
	var dbusErr godbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name == errNoSuchUnit
	}
	var dbusErrPtr *godbus.Error
	if errors.As(err, &dbusErrPtr) {
		return dbusErrPtr.Name == errNoSuchUnit
	}
	return false
}
