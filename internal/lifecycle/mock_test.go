package lifecycle

import (
	"context"
	"errors"
	"os"

	"github.com/plexsphere/routerctl/internal/scope"
	"github.com/plexsphere/routerctl/internal/systemd"
)

// --- Mock systemd.Controller ---

// mockInit models a systemd manager for one unit. A unit counts as loaded
// once DaemonReload has seen its file on disk. Reloading after the file is
// gone unloads the unit but leaves a running process alive, as systemd does.
type mockInit struct {
	unitPath string

	loaded  bool
	enabled bool
	active  bool
	ran     bool
	mainPID uint32

	versionErr error
	reloadErr  error
	enableErr  error
	disableErr error
	startErr   error
	stopErr    error
	statusErr  error

	calls       []string
	statusCalls int
	closed      bool
}

func (m *mockInit) Version(_ context.Context) (string, error) {
	if m.versionErr != nil {
		return "", m.versionErr
	}
	return "255", nil
}

func (m *mockInit) DaemonReload(_ context.Context) error {
	m.calls = append(m.calls, "daemon-reload")
	if m.reloadErr != nil {
		return m.reloadErr
	}
	_, err := os.Stat(m.unitPath)
	m.loaded = err == nil
	if !m.loaded {
		m.enabled, m.ran = false, false
	}
	return nil
}

func (m *mockInit) Enable(_ context.Context, unit string) error {
	m.calls = append(m.calls, "enable "+unit)
	if m.enableErr != nil {
		return m.enableErr
	}
	m.enabled = true
	return nil
}

func (m *mockInit) Disable(_ context.Context, unit string) error {
	m.calls = append(m.calls, "disable "+unit)
	if m.disableErr != nil {
		return m.disableErr
	}
	m.enabled = false
	return nil
}

func (m *mockInit) Start(_ context.Context, unit string) error {
	m.calls = append(m.calls, "start "+unit)
	if m.startErr != nil {
		return m.startErr
	}
	m.active = true
	m.mainPID = 4242
	return nil
}

func (m *mockInit) Stop(_ context.Context, unit string) error {
	m.calls = append(m.calls, "stop "+unit)
	if m.stopErr != nil {
		return m.stopErr
	}
	if m.active {
		m.ran = true
	}
	m.active = false
	m.mainPID = 0
	return nil
}

func (m *mockInit) Status(_ context.Context, _ string) (systemd.Status, error) {
	m.statusCalls++
	if m.statusErr != nil {
		return systemd.Status{}, m.statusErr
	}
	if !m.loaded {
		st := systemd.Status{LoadState: "not-found", ActiveState: "inactive"}
		if m.active {
			st.ActiveState, st.SubState, st.MainPID = "active", "running", m.mainPID
		}
		return st, nil
	}
	st := systemd.Status{LoadState: "loaded", ActiveState: "inactive", SubState: "dead", UnitFileState: "disabled"}
	if m.enabled {
		st.UnitFileState = "enabled"
	}
	if m.active {
		st.ActiveState, st.SubState, st.MainPID = "active", "running", m.mainPID
	} else if m.ran {
		st.InactiveEnterTimestamp = 1
	}
	return st, nil
}

func (m *mockInit) Close() error {
	m.closed = true
	return nil
}

// --- Mock systemd.Connector ---

type mockConnector struct {
	init       *mockInit
	connectErr error
	connects   int
	lastUser   bool
}

func (m *mockConnector) Connect(_ context.Context, user bool) (systemd.Controller, error) {
	m.connects++
	m.lastUser = user
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	return m.init, nil
}

// --- Mock scope.IdentitySource ---

type mockIdentity struct {
	id    scope.Identity
	err   error
	reads int
}

func (m *mockIdentity) Current() (scope.Identity, error) {
	m.reads++
	if m.err != nil {
		return scope.Identity{}, m.err
	}
	return m.id, nil
}

var errBoom = errors.New("boom")
