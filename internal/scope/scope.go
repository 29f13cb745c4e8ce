// Package scope resolves whether a command operates on the system-wide or the
// per-user service manager, and derives the paths that go with it.
package scope

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/plexsphere/routerctl/internal/command"
)

// Mode selects the service manager instance.
type Mode int

const (
	// System targets the system manager. Mutating actions require root.
	System Mode = iota
	// User targets the invoking account's user manager.
	User
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	if m == User {
		return "user"
	}
	return "system"
}

const (
	systemConfigRoot = "/etc"
	systemStateRoot  = "/var/lib"

	systemTarget = "multi-user.target"
	userTarget   = "default.target"
)

// Scope is the resolved operation scope for one invocation.
type Scope struct {
	Mode Mode

	// ServiceName is the bare service name, e.g. "vllm-router".
	ServiceName string

	// UnitDir is the directory the unit file lives in.
	UnitDir string

	// ConfigDir holds the worker configuration file by default.
	ConfigDir string

	// StateDir is the default working directory of the worker.
	StateDir string

	// RunAsUser is the User= identity of the service.
	RunAsUser string

	// WantedBy is the target the unit is installed into.
	WantedBy string

	// RequiresPrivilege is true when the requested action needs root.
	RequiresPrivilege bool
}

// UnitName returns the full systemd unit name.
func (s Scope) UnitName() string {
	return s.ServiceName + ".service"
}

// UnitPath returns the absolute path of the unit file.
func (s Scope) UnitPath() string {
	return filepath.Join(s.UnitDir, s.UnitName())
}

// Resolver derives a Scope from a descriptor and the ambient identity.
type Resolver struct {
	ServiceName   string
	SystemUnitDir string
	SystemUser    string
}

// Resolve returns the Scope for desc as executed by id. A mutating action in
// system scope without root fails with *PrivilegeError.
func (r Resolver) Resolve(desc command.Descriptor, id Identity) (Scope, error) {
	if r.ServiceName == "" {
		return Scope{}, errors.New("scope: service name is required")
	}

	if desc.Flags.User {
		return r.resolveUser(id)
	}

	if desc.Action.Mutating() && !id.Privileged() {
		return Scope{}, &PrivilegeError{Action: desc.Action, UID: id.UID}
	}
	if !filepath.IsAbs(r.SystemUnitDir) {
		return Scope{}, fmt.Errorf("scope: system unit directory %q is not absolute", r.SystemUnitDir)
	}

	return Scope{
		Mode:              System,
		ServiceName:       r.ServiceName,
		UnitDir:           r.SystemUnitDir,
		ConfigDir:         filepath.Join(systemConfigRoot, r.ServiceName),
		StateDir:          filepath.Join(systemStateRoot, r.ServiceName),
		RunAsUser:         r.SystemUser,
		WantedBy:          systemTarget,
		RequiresPrivilege: desc.Action.Mutating(),
	}, nil
}

func (r Resolver) resolveUser(id Identity) (Scope, error) {
	if id.Username == "" {
		return Scope{}, errors.New("scope: cannot determine invoking user")
	}
	if !filepath.IsAbs(id.HomeDir) {
		return Scope{}, fmt.Errorf("scope: home directory %q is not absolute", id.HomeDir)
	}

	configHome := id.ConfigHome
	if !filepath.IsAbs(configHome) {
		configHome = filepath.Join(id.HomeDir, ".config")
	}
	dataHome := id.DataHome
	if !filepath.IsAbs(dataHome) {
		dataHome = filepath.Join(id.HomeDir, ".local", "share")
	}

	return Scope{
		Mode:        User,
		ServiceName: r.ServiceName,
		UnitDir:     filepath.Join(configHome, "systemd", "user"),
		ConfigDir:   filepath.Join(configHome, r.ServiceName),
		StateDir:    filepath.Join(dataHome, r.ServiceName),
		RunAsUser:   id.Username,
		WantedBy:    userTarget,
	}, nil
}

// PrivilegeError reports a mutating system-scope action attempted without root.
type PrivilegeError struct {
	Action command.Action
	UID    int
}

// Error returns the formatted error string, including remediation.
func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("scope: %s in system scope requires root privileges (running as uid %d); re-run with sudo or pass --user", e.Action, e.UID)
}

// Identity is the invoking account as observed at resolution time.
type Identity struct {
	UID      int
	Username string
	HomeDir  string

	// ConfigHome and DataHome mirror XDG_CONFIG_HOME and XDG_DATA_HOME.
	// Empty or relative values fall back to the XDG defaults under HomeDir.
	ConfigHome string
	DataHome   string
}

// Privileged reports whether the identity holds root privileges.
func (id Identity) Privileged() bool {
	return id.UID == 0
}

// Owns reports whether path lies under the identity's home, config home or data home.
func (id Identity) Owns(path string) bool {
	for _, root := range []string{id.HomeDir, id.ConfigHome, id.DataHome} {
		if root == "" || !filepath.IsAbs(root) {
			continue
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// IdentitySource reads the invoking identity. Implementations must not cache.
type IdentitySource interface {
	Current() (Identity, error)
}
