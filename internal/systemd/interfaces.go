// Package systemd controls units through the systemd manager of one scope.
package systemd

import "context"

// Controller abstracts the systemd manager for testability.
// Callers query Status before mutating; implementations do not cache state.
type Controller interface {
	// Version returns the manager version. An error means systemd is not usable.
	Version(ctx context.Context) (string, error)

	// DaemonReload reloads unit files from disk.
	DaemonReload(ctx context.Context) error

	// Enable registers the named unit for auto-start.
	Enable(ctx context.Context, unit string) error

	// Disable removes the auto-start registration of the named unit.
	Disable(ctx context.Context, unit string) error

	// Start starts the named unit and waits for the job to finish.
	Start(ctx context.Context, unit string) error

	// Stop stops the named unit and waits for the job to finish.
	Stop(ctx context.Context, unit string) error

	// Status queries the live state of the named unit.
	Status(ctx context.Context, unit string) (Status, error)

	// Close releases the connection to the manager.
	Close() error
}

// Connector opens a Controller for the system manager or the invoking user's manager.
type Connector interface {
	Connect(ctx context.Context, user bool) (Controller, error)
}
