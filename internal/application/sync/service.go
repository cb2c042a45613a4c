// Package sync reconciles the local timesheet collection with Zebra. Every
// operation works record by record and never silently discards unsynced
// local data: conflicting writes go through a confirmation callback, and
// remote failures degrade to warnings wherever the local side can still
// finish its half of the work.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
	"github.com/tcrawf/zebra/internal/infrastructure/logging"
	"github.com/tcrawf/zebra/internal/infrastructure/tracing"
)

// ConfirmFunc answers whether a guarded sync step may proceed. The CLI backs
// it with an interactive prompt; --yes supplies an always-true one. A nil
// callback declines everything.
type ConfirmFunc func(message string) bool

// ActivityResolver is the slice of the catalog the sync service needs to
// turn Zebra activity ids back into domain activities.
type ActivityResolver interface {
	Get(ctx context.Context, key entity.Key) (project.Activity, error)
}

// PushStatus describes what happened to one record during a push.
type PushStatus string

const (
	// PushCreated means a new remote record was created and linked.
	PushCreated PushStatus = "created"
	// PushUpdated means the existing remote record was overwritten.
	PushUpdated PushStatus = "updated"
	// PushSkipped means the record was deliberately left alone.
	PushSkipped PushStatus = "skipped"
	// PushFailed means the remote call failed and the record is unchanged.
	PushFailed PushStatus = "failed"
)

// PushResult reports the outcome for one pushed timesheet.
type PushResult struct {
	Timesheet timesheet.Timesheet // local state after the push
	Status    PushStatus
	Reason    string // why the record was skipped
	Err       error  // why the record failed
}

// SkippedRecord names a remote record a pull left alone and why.
type SkippedRecord struct {
	RemoteID int64
	Reason   string
}

// PullResult reports which records a pull wrote locally and which it skipped.
type PullResult struct {
	Written []timesheet.Timesheet
	Skipped []SkippedRecord
}

// DeleteResult reports the outcome of deleting one timesheet.
type DeleteResult struct {
	Deleted       bool   // the local record was removed
	RemoteDeleted bool   // the Zebra record no longer exists
	Aborted       bool   // the user declined the remote delete
	Warning       string // set when the remote delete failed and local went ahead
}

// Service reconciles local timesheets with Zebra.
type Service struct {
	locals     ports.TimesheetStoragePort
	client     ports.ZebraClientPort
	activities ActivityResolver
	cache      ports.ReferenceCachePort
	logger     *logging.Logger
	tracer     *tracing.Tracer
	now        func() time.Time
}

// NewService creates the sync service. The activity resolver and reference
// cache turn the ids Zebra reports back into domain entities.
func NewService(
	locals ports.TimesheetStoragePort,
	client ports.ZebraClientPort,
	activities ActivityResolver,
	cache ports.ReferenceCachePort,
	logger *logging.Logger,
	tracer *tracing.Tracer,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	return &Service{
		locals:     locals,
		client:     client,
		activities: activities,
		cache:      cache,
		logger:     logger,
		tracer:     tracer,
		now:        time.Now,
	}
}

// Get returns one local timesheet by uuid.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (timesheet.Timesheet, error) {
	return s.locals.Get(ctx, id)
}

// List returns the local timesheets matching the filter.
func (s *Service) List(ctx context.Context, filter ports.TimesheetFilter) ([]timesheet.Timesheet, error) {
	return s.locals.List(ctx, filter)
}

// Update replaces a local timesheet and stamps it as freshly modified, so
// the next push knows local state moved.
func (s *Service) Update(ctx context.Context, ts timesheet.Timesheet) (timesheet.Timesheet, error) {
	if err := ts.Validate(); err != nil {
		return timesheet.Timesheet{}, err
	}
	if _, err := s.locals.Get(ctx, ts.UUID); err != nil {
		return timesheet.Timesheet{}, err
	}
	ts.UpdatedAt = s.now().UTC()
	if err := s.locals.Save(ctx, ts); err != nil {
		return timesheet.Timesheet{}, err
	}
	return ts, nil
}

// SetHold flags or unflags a timesheet as do-not-sync. Holding is sync
// metadata, not a content change, so UpdatedAt stays put and no conflict
// warnings are provoked.
func (s *Service) SetHold(ctx context.Context, id uuid.UUID, hold bool) (timesheet.Timesheet, error) {
	ts, err := s.locals.Get(ctx, id)
	if err != nil {
		return timesheet.Timesheet{}, err
	}
	ts.DoNotSync = hold
	if err := s.locals.Save(ctx, ts); err != nil {
		return timesheet.Timesheet{}, err
	}
	return ts, nil
}

// Push synchronizes one timesheet to Zebra. A record without a remote link
// is created remotely and linked; a linked record overwrites its remote
// counterpart, asking through confirm first when the remote copy is
// strictly newer. Records flagged do-not-sync are never pushed.
func (s *Service) Push(ctx context.Context, id uuid.UUID, confirm ConfirmFunc) (PushResult, error) {
	ctx, span := s.tracer.StartSyncSpan(ctx, "push")

	ts, err := s.locals.Get(ctx, id)
	if err != nil {
		span.EndWithError(err)
		return PushResult{}, err
	}
	result, err := s.pushOne(ctx, ts, confirm)
	if err != nil {
		span.EndWithError(err)
		return PushResult{}, err
	}

	span.SetCounts(countPush(result, PushCreated, PushUpdated), countPush(result, PushSkipped), 0)
	span.End()
	return result, nil
}

// PushRange pushes every local timesheet dated within [from, to]. Remote and
// validation failures are per-record: the failing record is reported and the
// pass continues. Only a local storage failure aborts the whole pass.
func (s *Service) PushRange(ctx context.Context, from, to timesheet.Date, confirm ConfirmFunc) ([]PushResult, error) {
	ctx, span := s.tracer.StartSyncSpan(ctx, "push")
	span.SetDateRange(from.String(), to.String())

	sheets, err := s.locals.List(ctx, ports.TimesheetFilter{From: from, To: to})
	if err != nil {
		span.EndWithError(err)
		return nil, err
	}

	var results []PushResult
	var written, skipped, failed int
	for _, ts := range sheets {
		result, err := s.pushOne(ctx, ts, confirm)
		if err != nil {
			if domainErrors.Is(err, domainErrors.ErrRemoteUnavailable) || domainErrors.Is(err, domainErrors.ErrInvalidOperation) {
				logging.LogSyncWarning(ctx, s.logger, ts.UUID.String(), err)
				results = append(results, PushResult{Timesheet: ts, Status: PushFailed, Err: err})
				failed++
				continue
			}
			span.EndWithError(err)
			return results, err
		}
		results = append(results, result)
		if result.Status == PushSkipped {
			skipped++
		} else {
			written++
		}
	}

	span.SetCounts(written, skipped, failed)
	span.End()
	return results, nil
}

func (s *Service) pushOne(ctx context.Context, ts timesheet.Timesheet, confirm ConfirmFunc) (PushResult, error) {
	if ts.DoNotSync {
		logging.LogSyncSkipped(ctx, s.logger, ts.UUID.String(), "flagged do-not-sync")
		return PushResult{Timesheet: ts, Status: PushSkipped, Reason: "flagged do-not-sync"}, nil
	}

	data, err := s.toData(ts)
	if err != nil {
		return PushResult{}, err
	}

	if !ts.IsSynced() {
		return s.createRemote(ctx, ts, data)
	}

	remote, err := s.client.FetchTimesheet(ctx, *ts.RemoteID)
	if domainErrors.Is(err, domainErrors.ErrNotFound) {
		// The linked record is gone on the Zebra side; re-create it and
		// move the link to the new id.
		data.ID = 0
		return s.createRemote(ctx, ts, data)
	}
	if err != nil {
		return PushResult{}, err
	}

	if remote.UpdatedAt.After(ts.UpdatedAt) {
		msg := fmt.Sprintf("Zebra record #%d changed at %s, after your local copy (%s). Overwrite it?",
			*ts.RemoteID, remote.UpdatedAt.Format(time.RFC3339), ts.UpdatedAt.Format(time.RFC3339))
		if confirm == nil || !confirm(msg) {
			logging.LogSyncSkipped(ctx, s.logger, ts.UUID.String(), "remote is newer")
			return PushResult{Timesheet: ts, Status: PushSkipped, Reason: "remote is newer"}, nil
		}
	}

	if err := s.client.UpdateTimesheet(ctx, *ts.RemoteID, data); err != nil {
		return PushResult{}, err
	}
	logging.LogSyncPushed(ctx, s.logger, ts.UUID.String(), *ts.RemoteID, false)
	return PushResult{Timesheet: ts, Status: PushUpdated}, nil
}

func (s *Service) createRemote(ctx context.Context, ts timesheet.Timesheet, data ports.TimesheetData) (PushResult, error) {
	remoteID, err := s.client.CreateTimesheet(ctx, data)
	if err != nil {
		return PushResult{}, err
	}
	linked := ts.WithRemoteID(remoteID)
	if err := s.locals.Save(ctx, linked); err != nil {
		return PushResult{}, err
	}
	logging.LogSyncPushed(ctx, s.logger, linked.UUID.String(), remoteID, true)
	return PushResult{Timesheet: linked, Status: PushCreated}, nil
}

// Pull fetches the remote timesheets dated within [from, to] and writes them
// into the local collection. A record whose local counterpart carries
// strictly newer changes is only overwritten after confirm agrees; once a
// pull proceeds it sets local state equal to remote state. Local-only
// details (uuid, frame provenance, the hold flag) survive the overwrite.
func (s *Service) Pull(ctx context.Context, from, to timesheet.Date, confirm ConfirmFunc) (PullResult, error) {
	ctx, span := s.tracer.StartSyncSpan(ctx, "pull")
	span.SetDateRange(from.String(), to.String())

	remotes, err := s.client.FetchTimesheets(ctx, from, to)
	if err != nil {
		span.EndWithError(err)
		return PullResult{}, err
	}

	var result PullResult
	for _, data := range remotes {
		incoming, err := s.fromData(ctx, data)
		if err != nil {
			logging.LogSyncWarning(ctx, s.logger, fmt.Sprintf("remote:%d", data.ID), err)
			result.Skipped = append(result.Skipped, SkippedRecord{RemoteID: data.ID, Reason: err.Error()})
			continue
		}

		existing, err := s.locals.GetByRemoteID(ctx, data.ID)
		switch {
		case domainErrors.Is(err, domainErrors.ErrNotFound):
			// No counterpart yet, the incoming record enters as-is.
		case err != nil:
			span.EndWithError(err)
			return result, err
		default:
			if existing.NewerThan(data.UpdatedAt) {
				msg := fmt.Sprintf("Your copy of Zebra record #%d changed at %s, after the remote (%s). Overwrite local changes?",
					data.ID, existing.UpdatedAt.Format(time.RFC3339), data.UpdatedAt.Format(time.RFC3339))
				if confirm == nil || !confirm(msg) {
					logging.LogSyncSkipped(ctx, s.logger, existing.UUID.String(), "local is newer")
					result.Skipped = append(result.Skipped, SkippedRecord{RemoteID: data.ID, Reason: "local is newer"})
					continue
				}
			}
			incoming.UUID = existing.UUID
			incoming.FrameUUIDs = existing.FrameUUIDs
			incoming.DoNotSync = existing.DoNotSync
		}

		if err := s.locals.Save(ctx, incoming); err != nil {
			span.EndWithError(err)
			return result, err
		}
		logging.LogSyncPulled(ctx, s.logger, incoming.UUID.String(), data.ID)
		result.Written = append(result.Written, incoming)
	}

	span.SetCounts(len(result.Written), len(result.Skipped), 0)
	span.End()
	return result, nil
}

// Delete removes a timesheet. When the record is linked to Zebra, the remote
// record is removed first, gated by confirm; declining aborts the whole
// delete. A failed remote delete degrades to a warning and the local delete
// still goes ahead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, confirm ConfirmFunc) (DeleteResult, error) {
	ctx, span := s.tracer.StartSyncSpan(ctx, "delete")

	ts, err := s.locals.Get(ctx, id)
	if err != nil {
		span.EndWithError(err)
		return DeleteResult{}, err
	}

	var result DeleteResult
	if ts.IsSynced() {
		msg := fmt.Sprintf("Timesheet %s is booked in Zebra as record #%d. Delete the remote record too?",
			ts.UUID, *ts.RemoteID)
		if confirm == nil || !confirm(msg) {
			span.End()
			return DeleteResult{Aborted: true}, nil
		}

		switch err := s.client.DeleteTimesheet(ctx, *ts.RemoteID); {
		case err == nil:
			result.RemoteDeleted = true
		case domainErrors.Is(err, domainErrors.ErrNotFound):
			// Already gone remotely, which is what we wanted.
			result.RemoteDeleted = true
		default:
			result.Warning = fmt.Sprintf("remote delete failed (%v); the record remains in Zebra", err)
			logging.LogSyncWarning(ctx, s.logger, ts.UUID.String(), err)
		}
	}

	if err := s.locals.Remove(ctx, id); err != nil {
		span.EndWithError(err)
		return result, err
	}
	result.Deleted = true

	s.logger.InfoContext(ctx, "timesheet deleted",
		"timesheet_uuid", id.String(),
		"remote_deleted", result.RemoteDeleted,
	)
	span.SetCounts(1, 0, 0)
	span.End()
	return result, nil
}

// Merge combines two or more local timesheets into the first one given.
// The merged record loses its remote link and must be pushed again; the
// other inputs are deleted locally once the merged record is saved.
func (s *Service) Merge(ctx context.Context, ids []uuid.UUID) (timesheet.Timesheet, error) {
	ctx, span := s.tracer.StartSyncSpan(ctx, "merge")

	// Dedupe first: a repeated id would double-count its hours and then
	// the cleanup loop would delete the record the merge just saved.
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	sheets := make([]timesheet.Timesheet, 0, len(unique))
	for _, id := range unique {
		ts, err := s.locals.Get(ctx, id)
		if err != nil {
			span.EndWithError(err)
			return timesheet.Timesheet{}, err
		}
		sheets = append(sheets, ts)
	}

	merged, err := timesheet.Merge(sheets)
	if err != nil {
		span.EndWithError(err)
		return timesheet.Timesheet{}, err
	}

	if err := s.locals.Save(ctx, merged); err != nil {
		span.EndWithError(err)
		return timesheet.Timesheet{}, err
	}
	for _, ts := range sheets[1:] {
		if ts.UUID == merged.UUID {
			continue
		}
		if err := s.locals.Remove(ctx, ts.UUID); err != nil {
			span.EndWithError(err)
			return timesheet.Timesheet{}, err
		}
	}

	s.logger.InfoContext(ctx, "timesheets merged",
		"timesheet_uuid", merged.UUID.String(),
		"merged_count", len(sheets),
		"total_hours", merged.Time,
	)
	span.SetCounts(1, 0, 0)
	span.End()
	return merged, nil
}

// toData flattens a timesheet into its wire shape. Only activities from the
// Zebra catalog can be booked there; a timesheet on a local-only activity is
// rejected rather than half-translated.
func (s *Service) toData(ts timesheet.Timesheet) (ports.TimesheetData, error) {
	activityID, ok := ts.Activity.Key.RemoteID()
	if !ok {
		return ports.TimesheetData{}, domainErrors.InvalidOperation(
			"activity %q exists only locally and cannot be booked in Zebra", ts.Activity.Name)
	}
	projectID, ok := ts.Activity.ProjectKey.RemoteID()
	if !ok {
		return ports.TimesheetData{}, domainErrors.InvalidOperation(
			"activity %q belongs to a local-only project and cannot be booked in Zebra", ts.Activity.Name)
	}

	data := ports.TimesheetData{
		ActivityID:        activityID,
		ProjectID:         projectID,
		Date:              ts.Date,
		Time:              ts.Time,
		Description:       ts.Description,
		ClientDescription: ts.ClientDescription,
		UpdatedAt:         ts.UpdatedAt,
	}
	if ts.RemoteID != nil {
		data.ID = *ts.RemoteID
	}
	if role, ok := ts.Assignment.Role(); ok {
		data.RoleID = &role.ID
	} else {
		data.Individual = true
	}
	return data, nil
}

// fromData resolves a wire record back into a domain timesheet using the
// catalog mirror. Records referencing an activity or role the mirror does
// not know are rejected; a cache refresh is the fix, not guesswork.
func (s *Service) fromData(ctx context.Context, data ports.TimesheetData) (timesheet.Timesheet, error) {
	activity, err := s.activities.Get(ctx, entity.RemoteKey(data.ActivityID))
	if err != nil {
		if domainErrors.Is(err, domainErrors.ErrNotFound) {
			return timesheet.Timesheet{}, domainErrors.NotFound(
				"activity %d is not in the catalog mirror; refresh the cache and pull again", data.ActivityID)
		}
		return timesheet.Timesheet{}, err
	}

	var assignment user.RoleAssignment
	switch {
	case data.Individual:
		assignment = user.Individual()
	case data.RoleID != nil:
		role, err := s.cache.Role(ctx, *data.RoleID)
		if err != nil {
			if domainErrors.Is(err, domainErrors.ErrNotFound) {
				return timesheet.Timesheet{}, domainErrors.NotFound(
					"role %d is not in the catalog mirror; refresh the cache and pull again", *data.RoleID)
			}
			return timesheet.Timesheet{}, err
		}
		assignment = user.AssignRole(role)
	default:
		return timesheet.Timesheet{}, domainErrors.InvalidOperation(
			"remote record %d carries neither a role nor the individual flag", data.ID)
	}

	ts := timesheet.Timesheet{
		UUID:              uuid.New(),
		Activity:          activity,
		Description:       data.Description,
		ClientDescription: data.ClientDescription,
		Time:              data.Time,
		Date:              data.Date,
		Assignment:        assignment,
		RemoteID:          &data.ID,
		UpdatedAt:         data.UpdatedAt.UTC(),
	}
	if err := ts.Validate(); err != nil {
		return timesheet.Timesheet{}, err
	}
	return ts, nil
}

func countPush(result PushResult, statuses ...PushStatus) int {
	for _, status := range statuses {
		if result.Status == status {
			return 1
		}
	}
	return 0
}
