package systemd

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
)

// ErrUnavailable is returned when neither the D-Bus API nor systemctl can be reached.
var ErrUnavailable = errors.New("systemd: not available")

// busConnector implements Connector. It prefers D-Bus and falls back to
// systemctl when the bus cannot be reached.
type busConnector struct {
	logger *slog.Logger
}

// NewConnector returns a Connector for the running host.
func NewConnector(logger *slog.Logger) Connector {
	return &busConnector{logger: logger.With("component", "systemd")}
}

func (c *busConnector) Connect(ctx context.Context, user bool) (Controller, error) {
	var (
		conn *sdbus.Conn
		err  error
	)
	if user {
		conn, err = sdbus.NewUserConnectionContext(ctx)
	} else {
		conn, err = sdbus.NewSystemConnectionContext(ctx)
	}
	if err == nil {
		c.logger.Debug("connected to systemd over D-Bus", "user", user)
		return &busController{conn: conn}, nil
	}

	path, lookErr := exec.LookPath("systemctl")
	if lookErr != nil {
		return nil, errors.Join(ErrUnavailable, err, lookErr)
	}
	c.logger.Debug("D-Bus unavailable, falling back to systemctl", "user", user, "error", err)
	return NewSystemctlController(path, user), nil
}
