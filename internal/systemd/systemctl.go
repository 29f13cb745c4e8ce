package systemd

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// statusProperties are the unit properties queried with systemctl show.
const statusProperties = "LoadState,ActiveState,SubState,UnitFileState,MainPID,InactiveEnterTimestampMonotonic"

// execController implements Controller by running the systemctl binary.
type execController struct {
	path string
	user bool
}

// NewSystemctlController returns a Controller that runs systemctl at path,
// adding --user when user is true.
func NewSystemctlController(path string, user bool) Controller {
	return &execController{path: path, user: user}
}

func (c *execController) Version(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "--version")
	if err != nil {
		return "", err
	}
	return parseVersion(out)
}

func (c *execController) DaemonReload(ctx context.Context) error {
	return c.run(ctx, "daemon-reload")
}

func (c *execController) Enable(ctx context.Context, unit string) error {
	return c.run(ctx, "enable", unit)
}

func (c *execController) Disable(ctx context.Context, unit string) error {
	return c.run(ctx, "disable", unit)
}

func (c *execController) Start(ctx context.Context, unit string) error {
	return c.run(ctx, "start", unit)
}

func (c *execController) Stop(ctx context.Context, unit string) error {
	return c.run(ctx, "stop", unit)
}

func (c *execController) Status(ctx context.Context, unit string) (Status, error) {
	out, err := c.output(ctx, "show", unit, "--property="+statusProperties)
	if err != nil {
		return Status{}, err
	}
	return parseShow(out), nil
}

func (c *execController) Close() error { return nil }

func (c *execController) args(args ...string) []string {
	if c.user {
		return append([]string{"--user"}, args...)
	}
	return args
}

func (c *execController) run(ctx context.Context, args ...string) error {
	_, err := c.output(ctx, args...)
	return err
}

func (c *execController) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.path, c.args(args...)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("systemd: systemctl %s: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return string(out), nil
}

// parseVersion extracts "252" from "systemd 252 (252.4-1)".
func parseVersion(out string) (string, error) {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "systemd" {
		return "", fmt.Errorf("systemd: unexpected version output %q", line)
	}
	return fields[1], nil
}

// parseShow decodes systemctl show key=value output.
func parseShow(out string) Status {
	var st Status
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "LoadState":
			st.LoadState = value
		case "ActiveState":
			st.ActiveState = value
		case "SubState":
			st.SubState = value
		case "UnitFileState":
			st.UnitFileState = value
		case "MainPID":
			if pid, err := strconv.ParseUint(value, 10, 32); err == nil {
				st.MainPID = uint32(pid)
			}
		case "InactiveEnterTimestampMonotonic":
			if ts, err := strconv.ParseUint(value, 10, 64); err == nil {
				st.InactiveEnterTimestamp = ts
			}
		}
	}
	return st
}
