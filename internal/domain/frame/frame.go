// Package frame defines the tracked work interval and its query filter.
// A frame is immutable once closed; edits replace the whole record under the
// same uuid. At most one frame system-wide is open (no stop time), and only
// the track service may open or close it.
package frame

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// issueKeyPattern matches JIRA-style issue references such as "OPS-1423".
var issueKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]*-[0-9]+\b`)

// Frame is one tracked interval of work booked against an activity.
type Frame struct {
	UUID        uuid.UUID           `json:"uuid"`                  // stable identity across edits
	StartTime   time.Time           `json:"start_time"`            // UTC
	StopTime    *time.Time          `json:"stop_time,omitempty"`   // nil while the frame is open
	Activity    project.Activity    `json:"activity"`              // embedded activity snapshot
	Description string              `json:"description,omitempty"` // free text, issue keys are derived from it
	Assignment  user.RoleAssignment `json:"assignment"`            // individual or role-backed
}

// New creates an open frame starting at the given time.
func New(activity project.Activity, start time.Time, description string, assignment user.RoleAssignment) (Frame, error) {
	f := Frame{
		UUID:        uuid.New(),
		StartTime:   start.UTC(),
		Activity:    activity,
		Description: strings.TrimSpace(description),
		Assignment:  assignment,
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// NewClosed creates a frame that is already closed, as used by add.
func NewClosed(activity project.Activity, start, stop time.Time, description string, assignment user.RoleAssignment) (Frame, error) {
	f, err := New(activity, start, description, assignment)
	if err != nil {
		return Frame{}, err
	}
	return f.WithStop(stop)
}

// Validate checks the structural invariants of a frame.
func (f Frame) Validate() error {
	if f.UUID == uuid.Nil {
		return domainErrors.NewError(domainErrors.CodeValidation, "frame uuid is required", nil)
	}
	if f.StartTime.IsZero() {
		return domainErrors.InvalidTime("frame start time is required")
	}
	if f.StopTime != nil && f.StopTime.Before(f.StartTime) {
		return domainErrors.InvalidTime("frame stop time %s precedes start time %s",
			f.StopTime.Format(time.RFC3339), f.StartTime.Format(time.RFC3339))
	}
	if err := f.Activity.Validate(); err != nil {
		return err
	}
	return f.Assignment.Validate()
}

// IsOpen reports whether the frame has no stop time yet.
func (f Frame) IsOpen() bool {
	return f.StopTime == nil
}

// Duration returns the tracked span. Open frames measure up to now.
func (f Frame) Duration() time.Duration {
	if f.StopTime == nil {
		return time.Since(f.StartTime)
	}
	return f.StopTime.Sub(f.StartTime)
}

// WithStop returns a closed copy of the frame, preserving its uuid.
func (f Frame) WithStop(stop time.Time) (Frame, error) {
	utc := stop.UTC()
	f.StopTime = &utc
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// IssueKeys returns the issue references found in the description,
// deduplicated in order of first appearance. They are derived, never stored.
func (f Frame) IssueKeys() []string {
	matches := issueKeyPattern.FindAllString(f.Description, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			keys = append(keys, m)
		}
	}
	return keys
}

// Filter selects frames for queries over the permanent collection.
// Zero time bounds are unbounded. The window is half-open [From, To):
// with IncludePartial a frame matches when its start falls inside the
// window, otherwise the whole frame must be contained in it. Open frames
// can only match partially.
type Filter struct {
	From               time.Time    // window lower bound (inclusive)
	To                 time.Time    // window upper bound (exclusive)
	ProjectKeys        []entity.Key // match any, empty for all
	ExcludeProjectKeys []entity.Key
	IssueKeys          []string // any must match
	ExcludeIssueKeys   []string // none may match
	IncludePartial     bool
}

// Matches reports whether the frame satisfies every criterion of the filter.
func (flt Filter) Matches(f Frame) bool {
	if !flt.matchesWindow(f) {
		return false
	}
	if len(flt.ProjectKeys) > 0 && !containsKey(flt.ProjectKeys, f.Activity.ProjectKey) {
		return false
	}
	if containsKey(flt.ExcludeProjectKeys, f.Activity.ProjectKey) {
		return false
	}
	keys := f.IssueKeys()
	if len(flt.IssueKeys) > 0 && !intersects(keys, flt.IssueKeys) {
		return false
	}
	if intersects(keys, flt.ExcludeIssueKeys) {
		return false
	}
	return true
}

func (flt Filter) matchesWindow(f Frame) bool {
	if !flt.From.IsZero() && f.StartTime.Before(flt.From) {
		return false
	}
	if flt.IncludePartial {
		return flt.To.IsZero() || f.StartTime.Before(flt.To)
	}
	if f.StopTime == nil {
		return false
	}
	return flt.To.IsZero() || !f.StopTime.After(flt.To)
}

func containsKey(keys []entity.Key, key entity.Key) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// ByStartTime sorts frames ascending by start time, oldest first.
func ByStartTime(frames []Frame) func(i, j int) bool {
	return func(i, j int) bool {
		return frames[i].StartTime.Before(frames[j].StartTime)
	}
}
