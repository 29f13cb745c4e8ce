package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/plexsphere/routerctl/internal/scope"
	"github.com/plexsphere/routerctl/internal/systemd"
)

// fakeInit is an in-memory service manager for a single unit file.
type fakeInit struct {
	unitPath string
	loaded   bool
	enabled  bool
	active   bool
	ran      bool
	calls    []string
}

func (f *fakeInit) Version(context.Context) (string, error) { return "255", nil }

func (f *fakeInit) DaemonReload(context.Context) error {
	f.calls = append(f.calls, "daemon-reload")
	_, err := os.Stat(f.unitPath)
	f.loaded = err == nil
	if !f.loaded {
		f.enabled, f.active, f.ran = false, false, false
	}
	return nil
}

func (f *fakeInit) Enable(_ context.Context, unit string) error {
	f.calls = append(f.calls, "enable "+unit)
	f.enabled = true
	return nil
}

func (f *fakeInit) Disable(_ context.Context, unit string) error {
	f.calls = append(f.calls, "disable "+unit)
	f.enabled = false
	return nil
}

func (f *fakeInit) Start(_ context.Context, unit string) error {
	f.calls = append(f.calls, "start "+unit)
	f.active = true
	return nil
}

func (f *fakeInit) Stop(_ context.Context, unit string) error {
	f.calls = append(f.calls, "stop "+unit)
	if f.active {
		f.ran = true
	}
	f.active = false
	return nil
}

func (f *fakeInit) Status(context.Context, string) (systemd.Status, error) {
	if !f.loaded {
		return systemd.Status{LoadState: "not-found", ActiveState: "inactive"}, nil
	}
	st := systemd.Status{LoadState: "loaded", ActiveState: "inactive", UnitFileState: "disabled"}
	if f.enabled {
		st.UnitFileState = "enabled"
	}
	if f.active {
		st.ActiveState = "active"
	} else if f.ran {
		st.InactiveEnterTimestamp = 1
	}
	return st, nil
}

func (f *fakeInit) Close() error { return nil }

type fakeConnector struct {
	init     *fakeInit
	connects int
}

func (f *fakeConnector) Connect(context.Context, bool) (systemd.Controller, error) {
	f.connects++
	return f.init, nil
}

type fakeIdentity struct {
	id scope.Identity
}

func (f fakeIdentity) Current() (scope.Identity, error) { return f.id, nil }

// cliEnv is an isolated host for driving rootCmd end to end.
type cliEnv struct {
	root     string
	home     string
	binary   string
	settings string
	init     *fakeInit
	conn     *fakeConnector
	out      *bytes.Buffer
}

// newCLIEnv swaps the host bindings for fakes rooted in t.TempDir() and
// resets the package flag variables. uid selects the invoking identity.
func newCLIEnv(t *testing.T, uid int, user bool) *cliEnv {
	t.Helper()
	root := t.TempDir()
	e := &cliEnv{
		root:     root,
		home:     filepath.Join(root, "home", "alice"),
		binary:   filepath.Join(root, "bin", "vllm-router"),
		settings: filepath.Join(root, "routerctl.yaml"),
		out:      new(bytes.Buffer),
	}
	if err := os.MkdirAll(e.home, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.binary), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(e.binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	settings := "binary_path: " + e.binary + "\n" +
		"system_unit_dir: " + filepath.Join(root, "etc", "systemd", "system") + "\n" +
		"working_dir: " + filepath.Join(e.home, "work") + "\n" +
		"config_path: " + filepath.Join(e.home, "router.toml") + "\n"
	if err := os.WriteFile(e.settings, []byte(settings), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	unitPath := filepath.Join(root, "etc", "systemd", "system", "vllm-router.service")
	if user {
		unitPath = filepath.Join(e.home, ".config", "systemd", "user", "vllm-router.service")
	}
	e.init = &fakeInit{unitPath: unitPath}
	e.conn = &fakeConnector{init: e.init}

	identity := fakeIdentity{id: scope.Identity{UID: uid, Username: "alice", HomeDir: e.home}}
	origIdentity, origConnector := newIdentitySource, newConnector
	newIdentitySource = func() scope.IdentitySource { return identity }
	newConnector = func(*slog.Logger) systemd.Connector { return e.conn }
	t.Cleanup(func() {
		newIdentitySource, newConnector = origIdentity, origConnector
	})

	resetFlags()
	return e
}

// execute runs rootCmd with args and the test settings file.
func (e *cliEnv) execute(args ...string) error {
	e.out.Reset()
	rootCmd.SetOut(e.out)
	rootCmd.SetErr(e.out)
	rootCmd.SetArgs(append([]string{"--settings", e.settings}, args...))
	defer resetFlags()
	return rootCmd.Execute()
}

func resetFlags() {
	userScope = false
	force = false
	binaryPath = ""
	workerConfig = ""
	settingsPath = ""
	logLevel = "info"
	logsFollow = false

	// pflag keeps Changed across Execute calls.
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	logsCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
}
