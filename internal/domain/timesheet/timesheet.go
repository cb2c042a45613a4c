// Package timesheet defines the billable record derived from tracked frames
// and the pure merge operation the sync service builds on. Time is booked in
// quarter-hour steps; UpdatedAt drives conflict detection against Zebra.
package timesheet

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// Quantum is the smallest bookable amount of time, in hours.
const Quantum = 0.25

// DescriptionSeparator joins descriptions when timesheets are merged or
// built from several frames.
const DescriptionSeparator = " | "

// Timesheet is one billable record for one activity on one date.
type Timesheet struct {
	UUID              uuid.UUID           `json:"uuid"`
	Activity          project.Activity    `json:"activity"`
	Description       string              `json:"description,omitempty"`
	ClientDescription string              `json:"client_description,omitempty"`
	Time              float64             `json:"time"` // hours, positive multiple of Quantum
	Date              Date                `json:"date"`
	Assignment        user.RoleAssignment `json:"assignment"`
	FrameUUIDs        []uuid.UUID         `json:"frame_uuids,omitempty"` // provenance, set semantics
	RemoteID          *int64              `json:"remote_id,omitempty"`   // nil until first pushed
	UpdatedAt         time.Time           `json:"updated_at"`            // UTC
	DoNotSync         bool                `json:"do_not_sync,omitempty"`
}

// New creates a local timesheet with a fresh uuid.
func New(activity project.Activity, date Date, hours float64, description string, assignment user.RoleAssignment, updatedAt time.Time) (Timesheet, error) {
	ts := Timesheet{
		UUID:        uuid.New(),
		Activity:    activity,
		Description: strings.TrimSpace(description),
		Time:        hours,
		Date:        date,
		Assignment:  assignment,
		UpdatedAt:   updatedAt.UTC(),
	}
	if err := ts.Validate(); err != nil {
		return Timesheet{}, err
	}
	return ts, nil
}

// ValidQuantum reports whether hours is a positive multiple of Quantum.
func ValidQuantum(hours float64) bool {
	return hours > 0 && math.Mod(hours, Quantum) == 0
}

// Validate checks the structural invariants of a timesheet.
func (ts Timesheet) Validate() error {
	if ts.UUID == uuid.Nil {
		return domainErrors.NewError(domainErrors.CodeValidation, "timesheet uuid is required", nil)
	}
	if !ValidQuantum(ts.Time) {
		return domainErrors.InvalidOperation("timesheet time %v is not a positive multiple of %v hours", ts.Time, Quantum)
	}
	if ts.Date.IsZero() {
		return domainErrors.InvalidTime("timesheet date is required")
	}
	if err := ts.Activity.Validate(); err != nil {
		return err
	}
	return ts.Assignment.Validate()
}

// IsSynced reports whether the record has a remote counterpart.
func (ts Timesheet) IsSynced() bool {
	return ts.RemoteID != nil
}

// NewerThan reports whether the record was updated strictly after t.
// Equal timestamps count as not newer, so clock-resolution ties never
// produce conflict warnings.
func (ts Timesheet) NewerThan(t time.Time) bool {
	return ts.UpdatedAt.After(t)
}

// WithRemoteID returns a copy linked to the given Zebra id.
func (ts Timesheet) WithRemoteID(id int64) Timesheet {
	ts.RemoteID = &id
	return ts
}

// HasFrame reports whether the given frame uuid is recorded as provenance.
func (ts Timesheet) HasFrame(id uuid.UUID) bool {
	for _, fu := range ts.FrameUUIDs {
		if fu == id {
			return true
		}
	}
	return false
}

// Merge combines two or more timesheets into a single record. All inputs
// must share the same activity and the same role assignment (or all be
// individual actions). The merged record keeps the first input's uuid and
// date, sums the times, unions the frame provenance, takes the earliest
// UpdatedAt, and drops the remote link so the result is pushed as new.
// Descriptions are concatenated in input order. DoNotSync survives if any
// input carried it. Inputs are not modified.
func Merge(sheets []Timesheet) (Timesheet, error) {
	if len(sheets) < 2 {
		return Timesheet{}, domainErrors.InvalidOperation("merge requires at least two timesheets, got %d", len(sheets))
	}

	first := sheets[0]
	for _, ts := range sheets[1:] {
		if ts.Activity.Key != first.Activity.Key {
			return Timesheet{}, domainErrors.InvalidOperation("cannot merge timesheets booked on different activities (%s vs %s)",
				first.Activity.Key, ts.Activity.Key)
		}
		if ts.Assignment != first.Assignment {
			return Timesheet{}, domainErrors.InvalidOperation("cannot merge timesheets with different role assignments (%s vs %s)",
				first.Assignment, ts.Assignment)
		}
	}

	var (
		total              float64
		descriptions       []string
		clientDescriptions []string
		frameUUIDs         []uuid.UUID
		seen               = make(map[uuid.UUID]bool)
		earliest           = first.UpdatedAt
		doNotSync          bool
	)
	for _, ts := range sheets {
		total += ts.Time
		if d := strings.TrimSpace(ts.Description); d != "" {
			descriptions = append(descriptions, d)
		}
		if d := strings.TrimSpace(ts.ClientDescription); d != "" {
			clientDescriptions = append(clientDescriptions, d)
		}
		for _, fu := range ts.FrameUUIDs {
			if !seen[fu] {
				seen[fu] = true
				frameUUIDs = append(frameUUIDs, fu)
			}
		}
		if ts.UpdatedAt.Before(earliest) {
			earliest = ts.UpdatedAt
		}
		doNotSync = doNotSync || ts.DoNotSync
	}

	if !ValidQuantum(total) {
		return Timesheet{}, domainErrors.InvalidOperation("merged time %v is not a positive multiple of %v hours", total, Quantum)
	}

	merged := first
	merged.Time = total
	merged.Description = strings.Join(descriptions, DescriptionSeparator)
	merged.ClientDescription = strings.Join(clientDescriptions, DescriptionSeparator)
	merged.FrameUUIDs = frameUUIDs
	merged.RemoteID = nil
	merged.UpdatedAt = earliest
	merged.DoNotSync = doNotSync

	if err := merged.Validate(); err != nil {
		return Timesheet{}, err
	}
	return merged, nil
}
