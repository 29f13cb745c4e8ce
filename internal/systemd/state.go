package systemd

// State is the registration state of a unit as reported by systemd.
type State int

const (
	Absent State = iota
	InstalledDisabled
	InstalledEnabled
	Running
	Stopped
	Failed
)

var stateNames = map[State]string{
	Absent:            "absent",
	InstalledDisabled: "installed-disabled",
	InstalledEnabled:  "installed-enabled",
	Running:           "running",
	Stopped:           "stopped",
	Failed:            "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Status holds the unit properties the lifecycle decisions are based on.
type Status struct {
	LoadState     string
	ActiveState   string
	SubState      string
	UnitFileState string
	MainPID       uint32

	// InactiveEnterTimestamp is the monotonic time the unit last became
	// inactive; zero if it never ran since boot.
	InactiveEnterTimestamp uint64
}

// Installed reports whether systemd knows a unit file for the unit.
func (s Status) Installed() bool {
	return s.LoadState != "" && s.LoadState != "not-found"
}

// Enabled reports whether the unit is registered for auto-start.
func (s Status) Enabled() bool {
	switch s.UnitFileState {
	case "enabled", "enabled-runtime":
		return true
	}
	return false
}

// Active reports whether the unit is running or transitioning to running.
func (s Status) Active() bool {
	switch s.ActiveState {
	case "active", "activating", "reloading":
		return true
	}
	return false
}

// State collapses the properties into a single registration state. An
// active unit whose file is gone still reports Running.
func (s Status) State() State {
	switch {
	case s.Active():
		return Running
	case !s.Installed():
		return Absent
	case s.ActiveState == "failed":
		return Failed
	case s.InactiveEnterTimestamp > 0:
		return Stopped
	case s.Enabled():
		return InstalledEnabled
	default:
		return InstalledDisabled
	}
}
