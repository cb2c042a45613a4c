package ports

import (
	"context"
	"time"

	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// ProjectData is one project as Zebra reports it, with its activities nested.
type ProjectData struct {
	ID          int64
	Name        string
	Description string
	Activities  []ActivityData
}

// ActivityData is one bookable activity as Zebra reports it.
type ActivityData struct {
	ID          int64
	Name        string
	Alias       string
	Description string
}

// TimesheetData is the wire representation of one timesheet record. Every
// sync operation exchanges this struct, never loosely typed maps.
type TimesheetData struct {
	ID                int64 // zero when creating
	ActivityID        int64
	ProjectID         int64
	Date              timesheet.Date
	Time              float64
	Description       string
	ClientDescription string
	RoleID            *int64 // nil for individual actions
	Individual        bool
	UpdatedAt         time.Time
}

// ZebraClientPort is the remote side of synchronization. Implementations
// map transport and server failures to ErrRemoteUnavailable and missing
// records to ErrNotFound, so the sync service can tell them apart.
type ZebraClientPort interface {
	// FetchProjects retrieves the full remote project catalog.
	FetchProjects(ctx context.Context) ([]ProjectData, error)

	// FetchUser retrieves one user record with its roles embedded.
	FetchUser(ctx context.Context, id int64) (user.User, error)

	// FetchTimesheet retrieves one timesheet by its Zebra id.
	FetchTimesheet(ctx context.Context, remoteID int64) (TimesheetData, error)

	// FetchTimesheets retrieves the timesheets whose date falls within
	// [from, to], inclusive on both ends.
	FetchTimesheets(ctx context.Context, from, to timesheet.Date) ([]TimesheetData, error)

	// CreateTimesheet creates a remote record and returns its new Zebra id.
	CreateTimesheet(ctx context.Context, data TimesheetData) (int64, error)

	// UpdateTimesheet overwrites the remote record with the given id.
	UpdateTimesheet(ctx context.Context, remoteID int64, data TimesheetData) error

	// DeleteTimesheet removes the remote record with the given id.
	DeleteTimesheet(ctx context.Context, remoteID int64) error
}
