package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// memTimesheets implements ports.TimesheetStoragePort in memory for testing
type memTimesheets struct {
	sheets map[uuid.UUID]timesheet.Timesheet
	order  []uuid.UUID
}

func newMemTimesheets() *memTimesheets {
	return &memTimesheets{sheets: make(map[uuid.UUID]timesheet.Timesheet)}
}

func (m *memTimesheets) Save(_ context.Context, ts timesheet.Timesheet) error {
	if _, ok := m.sheets[ts.UUID]; !ok {
		m.order = append(m.order, ts.UUID)
	}
	m.sheets[ts.UUID] = ts
	return nil
}

func (m *memTimesheets) Get(_ context.Context, id uuid.UUID) (timesheet.Timesheet, error) {
	ts, ok := m.sheets[id]
	if !ok {
		return timesheet.Timesheet{}, domainErrors.NotFound("timesheet %s not found", id)
	}
	return ts, nil
}

func (m *memTimesheets) GetByRemoteID(_ context.Context, remoteID int64) (timesheet.Timesheet, error) {
	for _, ts := range m.sheets {
		if ts.RemoteID != nil && *ts.RemoteID == remoteID {
			return ts, nil
		}
	}
	return timesheet.Timesheet{}, domainErrors.NotFound("no timesheet linked to record %d", remoteID)
}

func (m *memTimesheets) List(_ context.Context, filter ports.TimesheetFilter) ([]timesheet.Timesheet, error) {
	var out []timesheet.Timesheet
	for _, id := range m.order {
		ts, ok := m.sheets[id]
		if !ok {
			continue
		}
		if !filter.From.IsZero() && ts.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && ts.Date.After(filter.To) {
			continue
		}
		if filter.Unsynced && ts.IsSynced() {
			continue
		}
		out = append(out, ts)
	}
	return out, nil
}

func (m *memTimesheets) All(_ context.Context) ([]timesheet.Timesheet, error) {
	var out []timesheet.Timesheet
	for _, id := range m.order {
		if ts, ok := m.sheets[id]; ok {
			out = append(out, ts)
		}
	}
	return out, nil
}

func (m *memTimesheets) Remove(_ context.Context, id uuid.UUID) error {
	if _, ok := m.sheets[id]; !ok {
		return domainErrors.NotFound("timesheet %s not found", id)
	}
	delete(m.sheets, id)
	return nil
}

var _ ports.TimesheetStoragePort = (*memTimesheets)(nil)

// stubClient implements ports.ZebraClientPort over an in-memory record map,
// with injectable failures per call kind.
type stubClient struct {
	records map[int64]ports.TimesheetData
	nextID  int64

	createCalls int
	updateCalls int
	deleteCalls int

	failFetch  error
	failCreate error
	failUpdate error
	failDelete error
}

func newStubClient() *stubClient {
	return &stubClient{records: make(map[int64]ports.TimesheetData), nextID: 1000}
}

func (c *stubClient) FetchProjects(_ context.Context) ([]ports.ProjectData, error) {
	return nil, nil
}

func (c *stubClient) FetchUser(_ context.Context, _ int64) (user.User, error) {
	return user.User{}, nil
}

func (c *stubClient) FetchTimesheet(_ context.Context, remoteID int64) (ports.TimesheetData, error) {
	if c.failFetch != nil {
		return ports.TimesheetData{}, c.failFetch
	}
	data, ok := c.records[remoteID]
	if !ok {
		return ports.TimesheetData{}, domainErrors.NotFound("timesheet %d not found", remoteID)
	}
	return data, nil
}

func (c *stubClient) FetchTimesheets(_ context.Context, from, to timesheet.Date) ([]ports.TimesheetData, error) {
	if c.failFetch != nil {
		return nil, c.failFetch
	}
	var out []ports.TimesheetData
	for _, data := range c.records {
		if data.Date.Before(from) || data.Date.After(to) {
			continue
		}
		out = append(out, data)
	}
	return out, nil
}

func (c *stubClient) CreateTimesheet(_ context.Context, data ports.TimesheetData) (int64, error) {
	if c.failCreate != nil {
		return 0, c.failCreate
	}
	c.createCalls++
	c.nextID++
	data.ID = c.nextID
	c.records[data.ID] = data
	return data.ID, nil
}

func (c *stubClient) UpdateTimesheet(_ context.Context, remoteID int64, data ports.TimesheetData) error {
	if c.failUpdate != nil {
		return c.failUpdate
	}
	if _, ok := c.records[remoteID]; !ok {
		return domainErrors.NotFound("timesheet %d not found", remoteID)
	}
	c.updateCalls++
	data.ID = remoteID
	c.records[remoteID] = data
	return nil
}

func (c *stubClient) DeleteTimesheet(_ context.Context, remoteID int64) error {
	if c.failDelete != nil {
		return c.failDelete
	}
	if _, ok := c.records[remoteID]; !ok {
		return domainErrors.NotFound("timesheet %d not found", remoteID)
	}
	c.deleteCalls++
	delete(c.records, remoteID)
	return nil
}

var _ ports.ZebraClientPort = (*stubClient)(nil)

// stubResolver resolves remote activity keys from a fixed map.
type stubResolver struct {
	activities map[entity.Key]project.Activity
}

func (r *stubResolver) Get(_ context.Context, key entity.Key) (project.Activity, error) {
	a, ok := r.activities[key]
	if !ok {
		return project.Activity{}, domainErrors.NotFound("activity %s not found", key)
	}
	return a, nil
}

// stubRoleCache implements the role lookups of ports.ReferenceCachePort.
type stubRoleCache struct {
	roles map[int64]user.Role
}

func (c *stubRoleCache) ReplaceProjects(_ context.Context, _ []ports.ProjectData) error { return nil }
func (c *stubRoleCache) ReplaceUser(_ context.Context, _ user.User) error               { return nil }

func (c *stubRoleCache) User(_ context.Context) (user.User, error) {
	return user.User{}, domainErrors.NotFound("no cached user")
}

func (c *stubRoleCache) Roles(_ context.Context) ([]user.Role, error) {
	var out []user.Role
	for _, r := range c.roles {
		out = append(out, r)
	}
	return out, nil
}

func (c *stubRoleCache) Role(_ context.Context, id int64) (user.Role, error) {
	r, ok := c.roles[id]
	if !ok {
		return user.Role{}, domainErrors.NotFound("role %d not cached", id)
	}
	return r, nil
}

func (c *stubRoleCache) RefreshedAt(_ context.Context) (time.Time, error) {
	return time.Time{}, nil
}

var _ ports.ReferenceCachePort = (*stubRoleCache)(nil)

var (
	syncNow        = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	remoteActivity = project.Activity{
		Key:        entity.RemoteKey(204),
		ProjectKey: entity.RemoteKey(91),
		Name:       "development",
		Alias:      "dev",
	}
	developerRole = user.Role{ID: 3, Name: "developer"}
)

type serviceFixture struct {
	service *Service
	locals  *memTimesheets
	client  *stubClient
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	locals := newMemTimesheets()
	client := newStubClient()
	resolver := &stubResolver{activities: map[entity.Key]project.Activity{
		remoteActivity.Key: remoteActivity,
	}}
	cache := &stubRoleCache{roles: map[int64]user.Role{developerRole.ID: developerRole}}

	service := NewService(locals, client, resolver, cache, nil, nil)
	service.now = func() time.Time { return syncNow }
	return serviceFixture{service: service, locals: locals, client: client}
}

func newLocalSheet(t *testing.T, hours float64, updatedAt time.Time) timesheet.Timesheet {
	t.Helper()
	ts, err := timesheet.New(
		remoteActivity,
		timesheet.NewDate(2025, 3, 10),
		hours,
		"endpoint work",
		user.AssignRole(developerRole),
		updatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create timesheet: %v", err)
	}
	return ts
}

func saveSheet(t *testing.T, locals *memTimesheets, ts timesheet.Timesheet) {
	t.Helper()
	if err := locals.Save(context.Background(), ts); err != nil {
		t.Fatalf("failed to save timesheet: %v", err)
	}
}

func yes(string) bool { return true }
func no(string) bool  { return false }

func TestService_Push_New(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	ts := newLocalSheet(t, 1.5, syncNow.Add(-time.Hour))
	saveSheet(t, fx.locals, ts)

	result, err := fx.service.Push(ctx, ts.UUID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != PushCreated {
		t.Fatalf("expected status created, got %s", result.Status)
	}
	if result.Timesheet.RemoteID == nil {
		t.Fatal("expected the record to be linked")
	}

	stored, _ := fx.locals.Get(ctx, ts.UUID)
	if stored.RemoteID == nil || *stored.RemoteID != *result.Timesheet.RemoteID {
		t.Error("expected the remote id to be persisted locally")
	}

	t.Run("second push updates instead of duplicating", func(t *testing.T) {
		result, err := fx.service.Push(ctx, ts.UUID, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != PushUpdated {
			t.Fatalf("expected status updated, got %s", result.Status)
		}
		if fx.client.createCalls != 1 {
			t.Errorf("expected 1 create call, got %d", fx.client.createCalls)
		}
		if fx.client.updateCalls != 1 {
			t.Errorf("expected 1 update call, got %d", fx.client.updateCalls)
		}
	})
}

func TestService_Push_DoNotSync(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	ts := newLocalSheet(t, 1.0, syncNow)
	ts.DoNotSync = true
	saveSheet(t, fx.locals, ts)

	result, err := fx.service.Push(ctx, ts.UUID, yes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != PushSkipped {
		t.Fatalf("expected status skipped, got %s", result.Status)
	}
	if fx.client.createCalls != 0 {
		t.Error("expected no remote calls for a held record")
	}
}

func TestService_Push_RemoteNewer(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (serviceFixture, timesheet.Timesheet) {
		fx := newServiceFixture(t)
		ts := newLocalSheet(t, 1.0, syncNow.Add(-2*time.Hour)).WithRemoteID(55)
		saveSheet(t, fx.locals, ts)
		fx.client.records[55] = ports.TimesheetData{
			ID: 55, ActivityID: 204, ProjectID: 91,
			Date: ts.Date, Time: 2.0, UpdatedAt: syncNow.Add(-time.Hour),
		}
		return fx, ts
	}

	t.Run("declined leaves both sides alone", func(t *testing.T) {
		fx, ts := setup(t)
		result, err := fx.service.Push(ctx, ts.UUID, no)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != PushSkipped || result.Reason != "remote is newer" {
			t.Fatalf("expected a remote-is-newer skip, got %+v", result)
		}
		if fx.client.updateCalls != 0 {
			t.Error("expected no update call")
		}
	})

	t.Run("nil callback counts as declined", func(t *testing.T) {
		fx, ts := setup(t)
		result, err := fx.service.Push(ctx, ts.UUID, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != PushSkipped {
			t.Fatalf("expected status skipped, got %s", result.Status)
		}
	})

	t.Run("confirmed overwrites the remote record", func(t *testing.T) {
		fx, ts := setup(t)
		var asked string
		confirm := func(msg string) bool {
			asked = msg
			return true
		}
		result, err := fx.service.Push(ctx, ts.UUID, confirm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != PushUpdated {
			t.Fatalf("expected status updated, got %s", result.Status)
		}
		if asked == "" {
			t.Error("expected a confirmation message")
		}
		if fx.client.records[55].Time != 1.0 {
			t.Error("expected the remote record to carry local state")
		}
	})
}

func TestService_Push_EqualTimestampsNeedNoConfirmation(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	updatedAt := syncNow.Add(-time.Hour)
	ts := newLocalSheet(t, 1.0, updatedAt).WithRemoteID(55)
	saveSheet(t, fx.locals, ts)
	fx.client.records[55] = ports.TimesheetData{
		ID: 55, ActivityID: 204, ProjectID: 91,
		Date: ts.Date, Time: 1.0, UpdatedAt: updatedAt,
	}

	confirm := func(string) bool {
		t.Fatal("confirmation requested for an even timestamp")
		return false
	}
	result, err := fx.service.Push(ctx, ts.UUID, confirm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != PushUpdated {
		t.Fatalf("expected status updated, got %s", result.Status)
	}
}

func TestService_Push_VanishedRemoteIsRecreated(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	ts := newLocalSheet(t, 1.0, syncNow).WithRemoteID(55)
	saveSheet(t, fx.locals, ts)

	result, err := fx.service.Push(ctx, ts.UUID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != PushCreated {
		t.Fatalf("expected status created, got %s", result.Status)
	}
	if result.Timesheet.RemoteID == nil || *result.Timesheet.RemoteID == 55 {
		t.Error("expected the link to move to the new record")
	}

	stored, _ := fx.locals.Get(ctx, ts.UUID)
	if stored.RemoteID == nil || *stored.RemoteID != *result.Timesheet.RemoteID {
		t.Error("expected the new remote id to be persisted")
	}
}

func TestService_Push_LocalActivityRejected(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	localActivity := project.Activity{
		Key:        entity.NewLocalKey(),
		ProjectKey: entity.RemoteKey(91),
		Name:       "side quest",
	}
	ts, err := timesheet.New(localActivity, timesheet.NewDate(2025, 3, 10), 0.5, "", user.Individual(), syncNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saveSheet(t, fx.locals, ts)

	_, err = fx.service.Push(ctx, ts.UUID, nil)
	if !domainErrors.Is(err, domainErrors.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}
}

func TestService_PushRange(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	good := newLocalSheet(t, 1.0, syncNow)
	held := newLocalSheet(t, 0.5, syncNow)
	held.DoNotSync = true
	localOnly, err := timesheet.New(
		project.Activity{Key: entity.NewLocalKey(), ProjectKey: entity.RemoteKey(91), Name: "side quest"},
		timesheet.NewDate(2025, 3, 10), 0.25, "", user.Individual(), syncNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outside := newLocalSheet(t, 2.0, syncNow)
	outside.Date = timesheet.NewDate(2025, 4, 1)

	for _, ts := range []timesheet.Timesheet{good, held, localOnly, outside} {
		saveSheet(t, fx.locals, ts)
	}

	results, err := fx.service.PushRange(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byStatus := make(map[PushStatus]int)
	for _, r := range results {
		byStatus[r.Status]++
	}
	if byStatus[PushCreated] != 1 || byStatus[PushSkipped] != 1 || byStatus[PushFailed] != 1 {
		t.Errorf("unexpected status distribution: %v", byStatus)
	}
}

func TestService_PushRange_RemoteDownIsPerRecord(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)
	fx.client.failCreate = domainErrors.RemoteUnavailable("zebra is down", nil)

	saveSheet(t, fx.locals, newLocalSheet(t, 1.0, syncNow))

	results, err := fx.service.PushRange(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), nil)
	if err != nil {
		t.Fatalf("expected the pass to finish, got %v", err)
	}
	if len(results) != 1 || results[0].Status != PushFailed {
		t.Fatalf("expected one failed result, got %+v", results)
	}
	if !domainErrors.Is(results[0].Err, domainErrors.ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", results[0].Err)
	}
}

func TestService_Pull_NewRecords(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	roleID := developerRole.ID
	fx.client.records[55] = ports.TimesheetData{
		ID: 55, ActivityID: 204, ProjectID: 91,
		Date: timesheet.NewDate(2025, 3, 10), Time: 1.5,
		Description: "endpoint work", RoleID: &roleID,
		UpdatedAt: syncNow.Add(-time.Hour),
	}
	fx.client.records[56] = ports.TimesheetData{
		ID: 56, ActivityID: 204, ProjectID: 91,
		Date: timesheet.NewDate(2025, 3, 11), Time: 0.75,
		Individual: true,
		UpdatedAt:  syncNow.Add(-30 * time.Minute),
	}

	result, err := fx.service.Pull(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Written) != 2 {
		t.Fatalf("expected 2 written records, got %d", len(result.Written))
	}

	pulled, err := fx.locals.GetByRemoteID(ctx, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pulled.UpdatedAt.Equal(syncNow.Add(-time.Hour)) {
		t.Error("expected the remote UpdatedAt to be preserved")
	}
	role, ok := pulled.Assignment.Role()
	if !ok || role.ID != developerRole.ID {
		t.Error("expected the developer role to be resolved")
	}

	individual, err := fx.locals.GetByRemoteID(ctx, 56)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !individual.Assignment.IsIndividual() {
		t.Error("expected an individual assignment")
	}
}

func TestService_Pull_OverwriteKeepsLocalOnlyFields(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	frameID := uuid.New()
	local := newLocalSheet(t, 1.0, syncNow.Add(-2*time.Hour)).WithRemoteID(55)
	local.FrameUUIDs = []uuid.UUID{frameID}
	local.DoNotSync = true
	saveSheet(t, fx.locals, local)

	roleID := developerRole.ID
	fx.client.records[55] = ports.TimesheetData{
		ID: 55, ActivityID: 204, ProjectID: 91,
		Date: local.Date, Time: 2.5, RoleID: &roleID,
		UpdatedAt: syncNow.Add(-time.Hour), // strictly newer than local
	}

	confirm := func(string) bool {
		t.Fatal("confirmation requested although local is older")
		return false
	}
	result, err := fx.service.Pull(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), confirm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Written) != 1 {
		t.Fatalf("expected 1 written record, got %d", len(result.Written))
	}

	stored, _ := fx.locals.Get(ctx, local.UUID)
	if stored.Time != 2.5 {
		t.Errorf("expected remote state to win, got %v hours", stored.Time)
	}
	if len(stored.FrameUUIDs) != 1 || stored.FrameUUIDs[0] != frameID {
		t.Error("expected frame provenance to survive the pull")
	}
	if !stored.DoNotSync {
		t.Error("expected the hold flag to survive the pull")
	}
	if stored.UUID != local.UUID {
		t.Error("expected the local uuid to be stable")
	}
}

func TestService_Pull_LocalNewerAsksFirst(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (serviceFixture, timesheet.Timesheet) {
		fx := newServiceFixture(t)
		local := newLocalSheet(t, 1.0, syncNow).WithRemoteID(55)
		saveSheet(t, fx.locals, local)
		roleID := developerRole.ID
		fx.client.records[55] = ports.TimesheetData{
			ID: 55, ActivityID: 204, ProjectID: 91,
			Date: local.Date, Time: 2.5, RoleID: &roleID,
			UpdatedAt: syncNow.Add(-time.Hour), // older than local
		}
		return fx, local
	}

	t.Run("declined skips the record", func(t *testing.T) {
		fx, local := setup(t)
		result, err := fx.service.Pull(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), no)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Written) != 0 || len(result.Skipped) != 1 {
			t.Fatalf("expected one skipped record, got %+v", result)
		}
		if result.Skipped[0].Reason != "local is newer" {
			t.Errorf("unexpected skip reason %q", result.Skipped[0].Reason)
		}
		stored, _ := fx.locals.Get(ctx, local.UUID)
		if stored.Time != 1.0 {
			t.Error("expected local state to be untouched")
		}
	})

	t.Run("confirmed overwrites local changes", func(t *testing.T) {
		fx, local := setup(t)
		result, err := fx.service.Pull(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), yes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Written) != 1 {
			t.Fatalf("expected one written record, got %+v", result)
		}
		stored, _ := fx.locals.Get(ctx, local.UUID)
		if stored.Time != 2.5 {
			t.Error("expected remote state to win once confirmed")
		}
	})
}

func TestService_Pull_UnknownActivitySkipped(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	fx.client.records[57] = ports.TimesheetData{
		ID: 57, ActivityID: 999, ProjectID: 91,
		Date: timesheet.NewDate(2025, 3, 10), Time: 1.0, Individual: true,
		UpdatedAt: syncNow,
	}

	result, err := fx.service.Pull(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Written) != 0 || len(result.Skipped) != 1 {
		t.Fatalf("expected one skipped record, got %+v", result)
	}
	if result.Skipped[0].RemoteID != 57 {
		t.Errorf("expected record 57 to be skipped, got %d", result.Skipped[0].RemoteID)
	}
}

func TestService_Pull_FetchFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)
	fx.client.failFetch = domainErrors.RemoteUnavailable("zebra is down", nil)

	_, err := fx.service.Pull(ctx, timesheet.NewDate(2025, 3, 1), timesheet.NewDate(2025, 3, 31), nil)
	if !domainErrors.Is(err, domainErrors.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("unsynced record needs no confirmation", func(t *testing.T) {
		fx := newServiceFixture(t)
		ts := newLocalSheet(t, 1.0, syncNow)
		saveSheet(t, fx.locals, ts)

		confirm := func(string) bool {
			t.Fatal("confirmation requested for an unsynced record")
			return false
		}
		result, err := fx.service.Delete(ctx, ts.UUID, confirm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Deleted || result.RemoteDeleted {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("synced record deletes both sides", func(t *testing.T) {
		fx := newServiceFixture(t)
		ts := newLocalSheet(t, 1.0, syncNow).WithRemoteID(55)
		saveSheet(t, fx.locals, ts)
		fx.client.records[55] = ports.TimesheetData{ID: 55}

		result, err := fx.service.Delete(ctx, ts.UUID, yes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Deleted || !result.RemoteDeleted {
			t.Errorf("unexpected result %+v", result)
		}
		if _, ok := fx.client.records[55]; ok {
			t.Error("expected the remote record to be gone")
		}
		if _, err := fx.locals.Get(ctx, ts.UUID); !domainErrors.Is(err, domainErrors.ErrNotFound) {
			t.Error("expected the local record to be gone")
		}
	})

	t.Run("declining aborts the whole delete", func(t *testing.T) {
		fx := newServiceFixture(t)
		ts := newLocalSheet(t, 1.0, syncNow).WithRemoteID(55)
		saveSheet(t, fx.locals, ts)
		fx.client.records[55] = ports.TimesheetData{ID: 55}

		result, err := fx.service.Delete(ctx, ts.UUID, no)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Aborted || result.Deleted {
			t.Errorf("unexpected result %+v", result)
		}
		if _, err := fx.locals.Get(ctx, ts.UUID); err != nil {
			t.Error("expected the local record to survive")
		}
	})

	t.Run("remote failure degrades to a local delete with warning", func(t *testing.T) {
		fx := newServiceFixture(t)
		ts := newLocalSheet(t, 1.0, syncNow).WithRemoteID(55)
		saveSheet(t, fx.locals, ts)
		fx.client.records[55] = ports.TimesheetData{ID: 55}
		fx.client.failDelete = domainErrors.RemoteUnavailable("zebra is down", nil)

		result, err := fx.service.Delete(ctx, ts.UUID, yes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Deleted || result.RemoteDeleted {
			t.Errorf("unexpected result %+v", result)
		}
		if result.Warning == "" {
			t.Error("expected a warning about the failed remote delete")
		}
		if _, err := fx.locals.Get(ctx, ts.UUID); !domainErrors.Is(err, domainErrors.ErrNotFound) {
			t.Error("expected the local record to be gone regardless")
		}
	})

	t.Run("already gone remotely counts as deleted", func(t *testing.T) {
		fx := newServiceFixture(t)
		ts := newLocalSheet(t, 1.0, syncNow).WithRemoteID(55)
		saveSheet(t, fx.locals, ts)

		result, err := fx.service.Delete(ctx, ts.UUID, yes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.RemoteDeleted || result.Warning != "" {
			t.Errorf("unexpected result %+v", result)
		}
	})
}

func TestService_Merge(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	first := newLocalSheet(t, 1.0, syncNow.Add(-time.Hour))
	second := newLocalSheet(t, 0.5, syncNow)
	saveSheet(t, fx.locals, first)
	saveSheet(t, fx.locals, second)

	merged, err := fx.service.Merge(ctx, []uuid.UUID{first.UUID, second.UUID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.UUID != first.UUID {
		t.Error("expected the first input to survive")
	}
	if merged.Time != 1.5 {
		t.Errorf("expected 1.5 hours, got %v", merged.Time)
	}
	if merged.RemoteID != nil {
		t.Error("expected the merged record to need a fresh push")
	}
	if _, err := fx.locals.Get(ctx, second.UUID); !domainErrors.Is(err, domainErrors.ErrNotFound) {
		t.Error("expected the second input to be deleted")
	}

	t.Run("repeated ids are rejected, not double-counted", func(t *testing.T) {
		ts := newLocalSheet(t, 1.0, syncNow)
		saveSheet(t, fx.locals, ts)

		_, err := fx.service.Merge(ctx, []uuid.UUID{ts.UUID, ts.UUID})
		if !domainErrors.Is(err, domainErrors.ErrInvalidOperation) {
			t.Fatalf("expected ErrInvalidOperation, got %v", err)
		}
		got, err := fx.locals.Get(ctx, ts.UUID)
		if err != nil {
			t.Fatalf("record is gone after the rejected merge: %v", err)
		}
		if got.Time != 1.0 {
			t.Errorf("expected 1.0 hours untouched, got %v", got.Time)
		}
	})

	t.Run("duplicate among distinct ids counts once", func(t *testing.T) {
		a := newLocalSheet(t, 0.5, syncNow)
		b := newLocalSheet(t, 0.25, syncNow)
		saveSheet(t, fx.locals, a)
		saveSheet(t, fx.locals, b)

		got, err := fx.service.Merge(ctx, []uuid.UUID{a.UUID, b.UUID, a.UUID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Time != 0.75 {
			t.Errorf("expected 0.75 hours, got %v", got.Time)
		}
		if _, err := fx.locals.Get(ctx, a.UUID); err != nil {
			t.Errorf("survivor is gone: %v", err)
		}
		if _, err := fx.locals.Get(ctx, b.UUID); !domainErrors.Is(err, domainErrors.ErrNotFound) {
			t.Error("expected the second input to be deleted")
		}
	})

	t.Run("mismatched inputs leave the store untouched", func(t *testing.T) {
		other, err := timesheet.New(
			project.Activity{Key: entity.RemoteKey(300), ProjectKey: entity.RemoteKey(91), Name: "design"},
			timesheet.NewDate(2025, 3, 10), 0.5, "", user.AssignRole(developerRole), syncNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		saveSheet(t, fx.locals, other)

		_, err = fx.service.Merge(ctx, []uuid.UUID{merged.UUID, other.UUID})
		if !domainErrors.Is(err, domainErrors.ErrInvalidOperation) {
			t.Fatalf("expected ErrInvalidOperation, got %v", err)
		}
		if _, err := fx.locals.Get(ctx, other.UUID); err != nil {
			t.Error("expected the other record to survive the failed merge")
		}
	})
}

func TestService_UpdateBumpsTimestamp(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	ts := newLocalSheet(t, 1.0, syncNow.Add(-24*time.Hour))
	saveSheet(t, fx.locals, ts)

	ts.Time = 1.25
	updated, err := fx.service.Update(ctx, ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.UpdatedAt.Equal(syncNow) {
		t.Errorf("expected UpdatedAt %v, got %v", syncNow, updated.UpdatedAt)
	}

	t.Run("bad quantum rejected", func(t *testing.T) {
		ts.Time = 1.1
		if _, err := fx.service.Update(ctx, ts); !domainErrors.Is(err, domainErrors.ErrInvalidOperation) {
			t.Fatalf("expected ErrInvalidOperation, got %v", err)
		}
	})
}

func TestService_SetHoldKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	fx := newServiceFixture(t)

	original := syncNow.Add(-24 * time.Hour)
	ts := newLocalSheet(t, 1.0, original)
	saveSheet(t, fx.locals, ts)

	held, err := fx.service.SetHold(ctx, ts.UUID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.DoNotSync {
		t.Error("expected the hold flag to be set")
	}
	if !held.UpdatedAt.Equal(original) {
		t.Error("expected UpdatedAt to stay put")
	}

	released, err := fx.service.SetHold(ctx, ts.UUID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released.DoNotSync {
		t.Error("expected the hold flag to be cleared")
	}
}
