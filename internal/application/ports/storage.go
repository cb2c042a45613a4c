// Package ports defines the application layer port interfaces following hexagonal architecture.
// Ports are abstractions that allow the application core to interact with external systems
// (adapters) without knowing their implementation details.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
)

// FrameStoragePort defines the interface for persisting tracked frames.
// The open frame lives in a slot separate from the permanent collection so
// that "is a frame running" is a direct lookup, not a scan.
type FrameStoragePort interface {
	// Save persists a closed frame with create-or-replace semantics keyed
	// by uuid.
	Save(ctx context.Context, f frame.Frame) error

	// Get retrieves a frame from the permanent collection by uuid.
	// Returns ErrNotFound if no frame matches.
	Get(ctx context.Context, id uuid.UUID) (frame.Frame, error)

	// Remove deletes a frame by uuid. Removing the uuid held in the
	// current slot also clears the slot, so it can never dangle.
	Remove(ctx context.Context, id uuid.UUID) error

	// All returns the permanent collection ordered by start time.
	All(ctx context.Context) ([]frame.Frame, error)

	// Filter returns the frames matching the filter, ordered by start time.
	Filter(ctx context.Context, filter frame.Filter) ([]frame.Frame, error)

	// LastClosed returns the most recently stopped frame, or nil when the
	// collection is empty.
	LastClosed(ctx context.Context) (*frame.Frame, error)

	// SaveCurrent writes the open frame into the current slot.
	SaveCurrent(ctx context.Context, f frame.Frame) error

	// Current returns the frame occupying the current slot, or nil when idle.
	Current(ctx context.Context) (*frame.Frame, error)

	// ClearCurrent empties the current slot. Clearing an empty slot is a no-op.
	ClearCurrent(ctx context.Context) error
}

// TimesheetFilter narrows timesheet listings. Zero dates are unbounded;
// bounds are inclusive since timesheets carry civil dates, not instants.
type TimesheetFilter struct {
	From     timesheet.Date
	To       timesheet.Date
	Unsynced bool // only records without a remote counterpart
}

// TimesheetStoragePort defines the interface for the local timesheet
// collection. The remote side is reached through ZebraClientPort instead.
type TimesheetStoragePort interface {
	// Save persists a timesheet with create-or-replace semantics keyed by uuid.
	Save(ctx context.Context, ts timesheet.Timesheet) error

	// Get retrieves a timesheet by uuid. Returns ErrNotFound if no record matches.
	Get(ctx context.Context, id uuid.UUID) (timesheet.Timesheet, error)

	// GetByRemoteID retrieves the timesheet linked to a Zebra id.
	// Returns ErrNotFound if no record is linked to it.
	GetByRemoteID(ctx context.Context, remoteID int64) (timesheet.Timesheet, error)

	// List returns the timesheets matching the filter, ordered by date.
	List(ctx context.Context, filter TimesheetFilter) ([]timesheet.Timesheet, error)

	// All returns every local timesheet ordered by date.
	All(ctx context.Context) ([]timesheet.Timesheet, error)

	// Remove deletes a timesheet by uuid. Returns ErrNotFound if no record matches.
	Remove(ctx context.Context, id uuid.UUID) error
}
