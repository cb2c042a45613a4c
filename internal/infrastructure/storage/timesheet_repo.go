package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application/ports"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
)

// Compile-time check that TimesheetRepository implements TimesheetStoragePort.
var _ ports.TimesheetStoragePort = (*TimesheetRepository)(nil)

type timesheetsDoc struct {
	Timesheets []timesheet.Timesheet `json:"timesheets"`
}

// TimesheetRepository implements TimesheetStoragePort over one JSON document.
type TimesheetRepository struct {
	mu   sync.Mutex
	path string
}

// NewTimesheetRepository creates a timesheet repository persisting to the
// given path.
func NewTimesheetRepository(path string) *TimesheetRepository {
	return &TimesheetRepository{path: path}
}

func (r *TimesheetRepository) load() (timesheetsDoc, error) {
	var doc timesheetsDoc
	if err := readDocument(r.path, &doc); err != nil {
		return timesheetsDoc{}, err
	}
	return doc, nil
}

// Save persists a timesheet, replacing any existing record with the same uuid.
func (r *TimesheetRepository) Save(_ context.Context, ts timesheet.Timesheet) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Timesheets {
		if doc.Timesheets[i].UUID == ts.UUID {
			doc.Timesheets[i] = ts
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Timesheets = append(doc.Timesheets, ts)
	}
	return writeDocument(r.path, doc)
}

// Get retrieves a timesheet by uuid.
func (r *TimesheetRepository) Get(_ context.Context, id uuid.UUID) (timesheet.Timesheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	for _, ts := range doc.Timesheets {
		if ts.UUID == id {
			return ts, nil
		}
	}
	return timesheet.Timesheet{}, domainErrors.NotFound("timesheet %s not found", id)
}

// GetByRemoteID retrieves the timesheet linked to a Zebra id.
func (r *TimesheetRepository) GetByRemoteID(_ context.Context, remoteID int64) (timesheet.Timesheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	for _, ts := range doc.Timesheets {
		if ts.RemoteID != nil && *ts.RemoteID == remoteID {
			return ts, nil
		}
	}
	return timesheet.Timesheet{}, domainErrors.NotFound("no timesheet linked to Zebra record %d", remoteID)
}

// List returns the timesheets matching the filter, ordered by date.
func (r *TimesheetRepository) List(_ context.Context, filter ports.TimesheetFilter) ([]timesheet.Timesheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	var matched []timesheet.Timesheet
	for _, ts := range doc.Timesheets {
		if !filter.From.IsZero() && ts.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && ts.Date.After(filter.To) {
			continue
		}
		if filter.Unsynced && ts.IsSynced() {
			continue
		}
		matched = append(matched, ts)
	}
	sortByDate(matched)
	return matched, nil
}

// All returns every local timesheet ordered by date.
func (r *TimesheetRepository) All(_ context.Context) ([]timesheet.Timesheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	sortByDate(doc.Timesheets)
	return doc.Timesheets, nil
}

// Remove deletes a timesheet by uuid.
func (r *TimesheetRepository) Remove(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	for i := range doc.Timesheets {
		if doc.Timesheets[i].UUID == id {
			doc.Timesheets = append(doc.Timesheets[:i], doc.Timesheets[i+1:]...)
			return writeDocument(r.path, doc)
		}
	}
	return domainErrors.NotFound("timesheet %s not found", id)
}

func sortByDate(sheets []timesheet.Timesheet) {
	sort.SliceStable(sheets, func(i, j int) bool {
		return sheets[i].Date.Before(sheets[j].Date)
	})
}
