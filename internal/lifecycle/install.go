package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"strconv"

	"github.com/BurntSushi/toml"
	"golang.org/x/sys/unix"

	"github.com/plexsphere/routerctl/internal/fsutil"
	"github.com/plexsphere/routerctl/internal/scope"
	"github.com/plexsphere/routerctl/internal/unit"
)

const (
	unitFilePerm = 0o644
	unitDirPerm  = 0o755
	workDirPerm  = 0o755
)

// install renders the unit and commits it to the scope's unit directory.
// Re-running install replaces the previous definition.
func (c *Controller) install(ctx context.Context, inv *invocation) error {
	// 1. Check systemd
	version, err := inv.init.Version(ctx)
	if err != nil {
		return inv.initErr("version", err)
	}
	inv.logger.Debug("systemd available", "version", version)

	// 2. Resolve runtime parameters
	p, err := c.params(inv)
	if err != nil {
		return err
	}

	// 3. Preflight checks on binary and config
	if inv.desc.Flags.Force {
		inv.logger.Info("skipping preflight checks", "force", true)
	} else if err := preflight(p, inv.logger); err != nil {
		return err
	}

	// 4. Render fully in memory
	d, err := unit.Render(inv.scope, unit.Params{
		Description:      c.cfg.Description,
		BinaryPath:       p.binaryPath,
		ConfigPath:       p.configPath,
		ExtraArgs:        c.cfg.ExtraArgs,
		WorkingDir:       p.workDir,
		RestartSec:       c.cfg.RestartSec,
		LimitNOFILE:      c.cfg.LimitNOFILE,
		SyslogIdentifier: c.cfg.SyslogIdentifier,
	})
	if err != nil {
		return err
	}
	content, err := d.Serialize()
	if err != nil {
		return err
	}

	// 5. Working directory
	if err := ensureWorkDir(inv, p.workDir); err != nil {
		return err
	}

	// 6. Write unit file
	unitPath := inv.scope.UnitPath()
	if err := os.MkdirAll(inv.scope.UnitDir, unitDirPerm); err != nil {
		return &FilesystemError{Op: "create unit directory", Path: inv.scope.UnitDir, Err: err}
	}
	if err := fsutil.WriteFileAtomic(unitPath, content, unitFilePerm); err != nil {
		return &FilesystemError{Op: "write unit file", Path: unitPath, Err: err}
	}
	inv.logger.Info("unit file written", "path", unitPath, "perm", fmt.Sprintf("%04o", unitFilePerm))

	// 7. Daemon reload
	if err := inv.init.DaemonReload(ctx); err != nil {
		return inv.initErr("daemon-reload", err)
	}
	inv.logger.Info("systemd daemon reloaded")

	c.printf("%s installed (%s scope): %s\n", inv.scope.UnitName(), inv.scope.Mode, unitPath)
	return nil
}

// preflight verifies the binary is executable and an existing config file parses.
func preflight(p paramSet, logger *slog.Logger) error {
	if err := unix.Access(p.binaryPath, unix.X_OK); err != nil {
		return &FilesystemError{Op: "check binary", Path: p.binaryPath, Err: err}
	}

	ok, err := fsutil.Exists(p.configPath)
	if err != nil {
		return &FilesystemError{Op: "stat config", Path: p.configPath, Err: err}
	}
	if !ok {
		logger.Warn("config file does not exist; the service will fail until it is created", "path", p.configPath)
		return nil
	}
	var doc map[string]any
	if _, err := toml.DecodeFile(p.configPath, &doc); err != nil {
		return fmt.Errorf("lifecycle: config %s is not valid TOML: %w", p.configPath, err)
	}
	return nil
}

// ensureWorkDir creates the working directory if missing. In user scope a
// directory outside the account's namespace must already exist. In system
// scope a new directory is handed to the run-as user when that user exists.
func ensureWorkDir(inv *invocation, dir string) error {
	ok, err := fsutil.Exists(dir)
	if err != nil {
		return &FilesystemError{Op: "stat working directory", Path: dir, Err: err}
	}
	if ok {
		return nil
	}
	if inv.scope.Mode == scope.User && !inv.identity.Owns(dir) {
		return &FilesystemError{Op: "check working directory", Path: dir, Err: errors.New("does not exist and is outside the user's namespace")}
	}

	if err := os.MkdirAll(dir, workDirPerm); err != nil {
		return &FilesystemError{Op: "create working directory", Path: dir, Err: err}
	}
	inv.logger.Info("directory created", "path", dir, "perm", fmt.Sprintf("%04o", workDirPerm))

	if inv.scope.Mode != scope.System {
		return nil
	}
	owner, err := user.Lookup(inv.scope.RunAsUser)
	if err != nil {
		inv.logger.Warn("run-as user not found; create it before starting the service", "user", inv.scope.RunAsUser, "error", err)
		return nil
	}
	uid, uidErr := strconv.Atoi(owner.Uid)
	gid, gidErr := strconv.Atoi(owner.Gid)
	if uidErr != nil || gidErr != nil {
		inv.logger.Warn("run-as user has non-numeric ids", "user", owner.Username)
		return nil
	}
	if err := os.Chown(dir, uid, gid); err != nil {
		inv.logger.Warn("chown working directory", "path", dir, "user", owner.Username, "error", err)
	}
	return nil
}
