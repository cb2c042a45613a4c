package testutil

import (
	"testing"
	"time"

	"github.com/tcrawf/zebra/internal/domain/entity"
	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// FixedNow is the reference instant fixtures are anchored to.
var FixedNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

// NewRemoteProject creates a remote-sourced project mirror for testing.
func NewRemoteProject(id int64, name string) project.Project {
	return project.Project{
		Key:  entity.RemoteKey(id),
		Name: name,
	}
}

// NewRemoteActivity creates a remote-sourced activity under the given project.
func NewRemoteActivity(id, projectID int64, name, alias string) project.Activity {
	return project.Activity{
		Key:        entity.RemoteKey(id),
		ProjectKey: entity.RemoteKey(projectID),
		Name:       name,
		Alias:      alias,
	}
}

// NewLocalProject creates a locally owned project, failing the test on error.
func NewLocalProject(t *testing.T, name string) project.Project {
	t.Helper()
	p, err := project.NewProject(name, "")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return p
}

// NewLocalActivity creates a locally owned activity, failing the test on error.
func NewLocalActivity(t *testing.T, projectKey entity.Key, name, alias string) project.Activity {
	t.Helper()
	a, err := project.NewActivity(projectKey, name, alias, "")
	if err != nil {
		t.Fatalf("failed to create activity: %v", err)
	}
	return a
}

// NewOpenFrame creates an open frame starting at FixedNow.
func NewOpenFrame(t *testing.T, activity project.Activity, description string) frame.Frame {
	t.Helper()
	f, err := frame.New(activity, FixedNow, description, user.Individual())
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	return f
}

// NewClosedFrame creates a closed frame of the given duration starting at
// FixedNow.
func NewClosedFrame(t *testing.T, activity project.Activity, d time.Duration, description string) frame.Frame {
	t.Helper()
	f, err := frame.NewClosed(activity, FixedNow, FixedNow.Add(d), description, user.Individual())
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	return f
}

// NewTimesheet creates a local timesheet dated on FixedNow's day.
func NewTimesheet(t *testing.T, activity project.Activity, hours float64, description string) timesheet.Timesheet {
	t.Helper()
	ts, err := timesheet.New(activity, timesheet.DateOf(FixedNow), hours, description, user.Individual(), FixedNow)
	if err != nil {
		t.Fatalf("failed to create timesheet: %v", err)
	}
	return ts
}
