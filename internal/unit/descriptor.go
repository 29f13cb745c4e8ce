// Package unit renders the systemd unit definition for the managed worker.
// Rendering is pure: it neither reads nor writes the filesystem.
package unit

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/plexsphere/routerctl/internal/scope"
)

// Fixed directives every rendered unit carries.
const (
	serviceType      = "simple"
	restartPolicy    = "always"
	journalSink      = "journal"
	startLimitBurst  = 5
	startLimitPeriod = 60
	networkTarget    = "network-online.target"
)

// Params are the runtime inputs of a render.
type Params struct {
	Description string
	BinaryPath  string
	ConfigPath  string
	ExtraArgs   []string
	WorkingDir  string

	RestartSec       int
	LimitNOFILE      int
	SyslogIdentifier string
}

// RestartPolicy is the Restart=/RestartSec= pair.
type RestartPolicy struct {
	Policy      string
	IntervalSec int
}

// StartLimit bounds how often systemd restarts a crash-looping unit.
type StartLimit struct {
	Burst       int
	IntervalSec int
}

// Limits are resource limits applied to the worker.
type Limits struct {
	OpenFiles int
}

// Security holds the sandboxing directives.
type Security struct {
	NoNewPrivileges bool
	PrivateTmp      bool
}

// Logging routes the worker's output to the journal.
type Logging struct {
	Stdout     string
	Stderr     string
	Identifier string
}

// Descriptor is a fully rendered unit definition.
type Descriptor struct {
	Description string
	After       []string
	Wants       []string
	StartLimit  StartLimit

	Type       string
	ExecStart  []string
	WorkingDir string
	User       string
	Restart    RestartPolicy
	Limits     Limits
	Security   Security
	Logging    Logging
	ConfigFile string

	WantedBy string
}

// Render builds the Descriptor for s and p. It fails rather than produce a
// unit with a relative path, a non-positive limit or a value spanning lines.
func Render(s scope.Scope, p Params) (Descriptor, error) {
	if p.Description == "" {
		return Descriptor{}, errors.New("unit: description is required")
	}
	for _, path := range []struct{ name, value string }{
		{"binary path", p.BinaryPath},
		{"config path", p.ConfigPath},
		{"working directory", p.WorkingDir},
	} {
		if !filepath.IsAbs(path.value) {
			return Descriptor{}, fmt.Errorf("unit: %s %q is not absolute", path.name, path.value)
		}
	}
	if p.RestartSec <= 0 {
		return Descriptor{}, fmt.Errorf("unit: restart interval must be positive, got %d", p.RestartSec)
	}
	if p.LimitNOFILE <= 0 {
		return Descriptor{}, fmt.Errorf("unit: open file limit must be positive, got %d", p.LimitNOFILE)
	}

	user := s.RunAsUser
	if user == "" {
		return Descriptor{}, errors.New("unit: run-as user is required")
	}
	ident := p.SyslogIdentifier
	if ident == "" {
		ident = s.ServiceName
	}
	wantedBy := s.WantedBy
	if wantedBy == "" {
		return Descriptor{}, errors.New("unit: install target is required")
	}

	values := []struct{ name, value string }{
		{"description", p.Description},
		{"binary path", p.BinaryPath},
		{"config path", p.ConfigPath},
		{"working directory", p.WorkingDir},
		{"run-as user", user},
		{"syslog identifier", ident},
		{"install target", wantedBy},
	}
	for i, arg := range p.ExtraArgs {
		values = append(values, struct{ name, value string }{fmt.Sprintf("extra argument %d", i), arg})
	}
	for _, v := range values {
		if strings.ContainsAny(v.value, "\r\n") {
			return Descriptor{}, fmt.Errorf("unit: %s %q contains a line break", v.name, v.value)
		}
	}

	d := Descriptor{
		Description: p.Description,
		StartLimit:  StartLimit{Burst: startLimitBurst, IntervalSec: startLimitPeriod},
		Type:        serviceType,
		ExecStart:   append([]string{p.BinaryPath, "--config", p.ConfigPath}, p.ExtraArgs...),
		WorkingDir:  p.WorkingDir,
		User:        user,
		Restart:     RestartPolicy{Policy: restartPolicy, IntervalSec: p.RestartSec},
		Limits:      Limits{OpenFiles: p.LimitNOFILE},
		Security:    Security{NoNewPrivileges: true, PrivateTmp: true},
		Logging:     Logging{Stdout: journalSink, Stderr: journalSink, Identifier: ident},
		ConfigFile:  p.ConfigPath,
		WantedBy:    wantedBy,
	}
	// The user manager has no network-online.target.
	if s.Mode == scope.System {
		d.After = []string{networkTarget}
		d.Wants = []string{networkTarget}
	}
	return d, nil
}
