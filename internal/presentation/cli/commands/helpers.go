package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application"
	"github.com/tcrawf/zebra/internal/application/ports"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// resolveActivity turns a user-supplied activity reference (key, alias or
// exact name) into an activity.
func resolveActivity(ctx context.Context, container *application.Container, ref string) (project.Activity, error) {
	return container.ActivityCatalog().Resolve(ctx, ref)
}

// resolveAssignment builds the role assignment for a --role flag. A zero
// role id means the work is booked as an individual action.
func resolveAssignment(ctx context.Context, container *application.Container, roleID int64) (user.RoleAssignment, error) {
	if roleID == 0 {
		return user.Individual(), nil
	}
	role, err := container.ReferenceCache().Role(ctx, roleID)
	if err != nil {
		return user.RoleAssignment{}, fmt.Errorf("unknown role %d (run zebra update to refresh roles): %w", roleID, err)
	}
	return user.AssignRole(role), nil
}

// parseTimeArg parses a --at/--from/--to time flag. Empty input yields the
// zero time, which the services treat as "not given".
func parseTimeArg(container *application.Container, input string) (time.Time, error) {
	if input == "" {
		return time.Time{}, nil
	}
	return container.TimeParser().ParseTime(input, time.Now())
}

// parseDateArg parses a date flag, returning def when the input is empty.
func parseDateArg(container *application.Container, input string, def timesheet.Date) (timesheet.Date, error) {
	if input == "" {
		return def, nil
	}
	return container.TimeParser().ParseDate(input, time.Now())
}

// resolveFrameID turns a frame reference into a uuid. A full uuid is taken
// as is; anything else is matched as a uuid prefix against the log.
func resolveFrameID(ctx context.Context, container *application.Container, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	frames, err := container.Tracker().List(ctx, frame.Filter{})
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, f := range frames {
		if strings.HasPrefix(f.UUID.String(), strings.ToLower(ref)) {
			matches = append(matches, f.UUID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, domainErrors.NotFound("no frame matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, domainErrors.InvalidOperation("frame reference %q is ambiguous", ref)
	}
}

// resolveTimesheetID turns a timesheet reference into a uuid, with the same
// prefix semantics as resolveFrameID.
func resolveTimesheetID(ctx context.Context, container *application.Container, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	sheets, err := container.SyncService().List(ctx, ports.TimesheetFilter{})
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, ts := range sheets {
		if strings.HasPrefix(ts.UUID.String(), strings.ToLower(ref)) {
			matches = append(matches, ts.UUID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, domainErrors.NotFound("no timesheet matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, domainErrors.InvalidOperation("timesheet reference %q is ambiguous", ref)
	}
}
