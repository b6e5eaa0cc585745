// Package station defines the abstraction over the simulation host: the open
// station, its device controllers, and the operations the control plane is
// allowed to perform against them.
package station

import (
	"context"
	"errors"
)

// Sentinel errors shared by every Controller implementation.
var (
	ErrTaskNotFound = errors.New("rapid task not found")
	ErrFileNotFound = errors.New("file not found in controller working area")
	ErrNotReachable = errors.New("controller not reachable")
)

// ControllerRef identifies a controller configured in a station. A ref with an
// empty SystemID is malformed and must be skipped by callers, not connected.
type ControllerRef struct {
	SystemID string
	Name     string
}

// ReleaseFunc releases a mastership lease. Safe to call exactly once.
type ReleaseFunc func()

// Host is the entry point to the simulation environment.
type Host interface {
	// ActiveStation returns the currently open station, or false when no
	// station is open. The result must not be cached across requests: the
	// host may open or replace the station at any time.
	ActiveStation() (Station, bool)
}

// Station is an open simulation workspace holding zero or more controllers.
type Station interface {
	Name() string
	SimulationRunning() bool
	StartSimulation(ctx context.Context) error
	StopSimulation(ctx context.Context) error

	// ControllerRefs returns the configured controller entries in their
	// station order. Entries may be malformed or stale.
	ControllerRefs() []ControllerRef

	// Connect establishes a session with the controller identified by ref.
	// The caller owns the returned Controller and must Close it.
	Connect(ctx context.Context, ref ControllerRef) (Controller, error)
}

// Controller is a connected session with one device controller. Implementations
// must allow concurrent use; mastership exclusivity is enforced by the host,
// AcquireMastership blocks until the lease is free.
type Controller interface {
	Name() string
	Close() error

	// AcquireMastership claims the exclusive write lease on the controller.
	// It blocks until the lease is available or ctx is done.
	AcquireMastership(ctx context.Context) (ReleaseFunc, error)

	// ExecutionState reports the controller-wide program execution state.
	ExecutionState(ctx context.Context) (ExecutionState, error)

	// JointAngles reports the current mechanical joint values in degrees,
	// one entry per axis.
	JointAngles(ctx context.Context) ([]float64, error)

	Tasks(ctx context.Context) ([]TaskInfo, error)
	// Task returns the named task or ErrTaskNotFound.
	Task(ctx context.Context, name string) (TaskInfo, error)

	ProgramPointer(ctx context.Context, task string) (PointerPosition, error)
	MotionPointer(ctx context.Context, task string) (PointerPosition, error)

	// PutFile copies a local file into the controller's working area under
	// remoteName, overwriting any previous content.
	PutFile(ctx context.Context, localPath, remoteName string) error

	// LoadModule loads a previously transferred file into the named task.
	// With replace set, an existing module of the same name is swapped out;
	// otherwise the module is added alongside the existing ones.
	LoadModule(ctx context.Context, task, remoteName string, replace bool) error

	// Start begins program execution on all enabled tasks and returns the
	// host's result code. A non-OK code is not an error at this layer.
	Start(ctx context.Context, opts StartOptions) (ResultCode, error)
	Stop(ctx context.Context, mode StopMode) error

	// ResetPointer moves the named task's program pointer back to its entry
	// point. Returns ErrTaskNotFound for unknown tasks.
	ResetPointer(ctx context.Context, task string) error

	// LogCategories lists event-log category names in discovery order.
	LogCategories(ctx context.Context) ([]string, error)
	LogMessages(ctx context.Context, category string) ([]LogMessage, error)
}
