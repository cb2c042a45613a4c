package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/user"
)

const refreshedAtKey = "refreshed_at"

// Compile-time checks that the cache implements its ports.
var (
	_ ports.ReferenceCachePort  = (*ReferenceCache)(nil)
	_ ports.ProjectStoragePort  = (*RemoteProjectStore)(nil)
	_ ports.ActivityStoragePort = (*RemoteActivityStore)(nil)
)

// ReferenceCache stores the mirrored Zebra reference data. Snapshot
// replacement is transactional, so a failed refresh leaves the previous
// mirror intact.
type ReferenceCache struct {
	conn *Connection
}

// NewReferenceCache creates the reference cache over an open connection.
func NewReferenceCache(conn *Connection) *ReferenceCache {
	return &ReferenceCache{conn: conn}
}

// ProjectStore returns the read-only project store view of the mirror.
func (c *ReferenceCache) ProjectStore() *RemoteProjectStore {
	return &RemoteProjectStore{conn: c.conn}
}

// ActivityStore returns the read-only activity store view of the mirror.
func (c *ReferenceCache) ActivityStore() *RemoteActivityStore {
	return &RemoteActivityStore{conn: c.conn}
}

// ReplaceProjects replaces the cached remote catalog in one transaction.
func (c *ReferenceCache) ReplaceProjects(ctx context.Context, projects []ports.ProjectData) error {
	db, err := c.conn.DB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM remote_activities"); err != nil {
		return fmt.Errorf("could not clear activities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM remote_projects"); err != nil {
		return fmt.Errorf("could not clear projects: %w", err)
	}

	for i, p := range projects {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO remote_projects (id, name, description, position) VALUES (?, ?, ?, ?)",
			p.ID, p.Name, p.Description, i,
		); err != nil {
			return fmt.Errorf("could not insert project %d: %w", p.ID, err)
		}
		for j, a := range p.Activities {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO remote_activities (id, project_id, name, alias, description, position) VALUES (?, ?, ?, ?, ?, ?)",
				a.ID, p.ID, a.Name, a.Alias, a.Description, j,
			); err != nil {
				return fmt.Errorf("could not insert activity %d: %w", a.ID, err)
			}
		}
	}

	if err := setMeta(ctx, tx, refreshedAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceUser replaces the cached user record and its roles in one
// transaction.
func (c *ReferenceCache) ReplaceUser(ctx context.Context, u user.User) error {
	db, err := c.conn.DB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM roles"); err != nil {
		return fmt.Errorf("could not clear roles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user"); err != nil {
		return fmt.Errorf("could not clear user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user (id, username) VALUES (?, ?)", u.ID, u.Username,
	); err != nil {
		return fmt.Errorf("could not insert user: %w", err)
	}
	for _, r := range u.Roles {
		var parent sql.NullInt64
		if r.ParentID != 0 {
			parent = sql.NullInt64{Int64: r.ParentID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO roles (id, name, full_name, type, status, parent_id) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.Name, r.FullName, r.Type, r.Status, parent,
		); err != nil {
			return fmt.Errorf("could not insert role %d: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// User returns the cached user record with its roles.
func (c *ReferenceCache) User(ctx context.Context) (user.User, error) {
	db, err := c.conn.DB()
	if err != nil {
		return user.User{}, err
	}

	var u user.User
	err = db.QueryRowContext(ctx, "SELECT id, username FROM user LIMIT 1").Scan(&u.ID, &u.Username)
	if err == sql.ErrNoRows {
		return user.User{}, domainErrors.NotFound("no user cached yet; run update first")
	}
	if err != nil {
		return user.User{}, fmt.Errorf("could not load user: %w", err)
	}

	u.Roles, err = c.Roles(ctx)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Roles returns the cached roles ordered by id.
func (c *ReferenceCache) Roles(ctx context.Context) ([]user.Role, error) {
	db, err := c.conn.DB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, name, full_name, type, status, parent_id FROM roles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("could not query roles: %w", err)
	}
	defer rows.Close()

	var roles []user.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// Role returns one cached role by id.
func (c *ReferenceCache) Role(ctx context.Context, id int64) (user.Role, error) {
	db, err := c.conn.DB()
	if err != nil {
		return user.Role{}, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT id, name, full_name, type, status, parent_id FROM roles WHERE id = ?", id)
	r, err := scanRole(row)
	if err == sql.ErrNoRows {
		return user.Role{}, domainErrors.NotFound("role %d is not cached", id)
	}
	if err != nil {
		return user.Role{}, err
	}
	return r, nil
}

// RefreshedAt returns when the mirror was last replaced, the zero time
// before the first refresh.
func (c *ReferenceCache) RefreshedAt(ctx context.Context) (time.Time, error) {
	db, err := c.conn.DB()
	if err != nil {
		return time.Time{}, err
	}

	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM cache_meta WHERE key = ?", refreshedAtKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("could not load refresh marker: %w", err)
	}
	return time.Parse(time.RFC3339, value)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (user.Role, error) {
	var r user.Role
	var parent sql.NullInt64
	if err := row.Scan(&r.ID, &r.Name, &r.FullName, &r.Type, &r.Status, &parent); err != nil {
		return user.Role{}, err
	}
	if parent.Valid {
		r.ParentID = parent.Int64
	}
	return r, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO cache_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("could not set %s: %w", key, err)
	}
	return nil
}

// RemoteProjectStore is the read-only ProjectStoragePort over the mirror.
type RemoteProjectStore struct {
	conn *Connection
}

// Save rejects writes; the mirror only changes through a refresh.
func (s *RemoteProjectStore) Save(context.Context, project.Project) error {
	return domainErrors.InvalidOperation("only local entities may be edited/deleted")
}

// Delete rejects writes; the mirror only changes through a refresh.
func (s *RemoteProjectStore) Delete(context.Context, entity.Key) error {
	return domainErrors.InvalidOperation("only local entities may be edited/deleted")
}

// Get retrieves a mirrored project by key.
func (s *RemoteProjectStore) Get(ctx context.Context, key entity.Key) (project.Project, error) {
	id, ok := key.RemoteID()
	if !ok {
		return project.Project{}, domainErrors.NotFound("project %s is not remote", key)
	}
	db, err := s.conn.DB()
	if err != nil {
		return project.Project{}, err
	}

	var p project.Project
	var name, description string
	err = db.QueryRowContext(ctx,
		"SELECT name, description FROM remote_projects WHERE id = ?", id).Scan(&name, &description)
	if err == sql.ErrNoRows {
		return project.Project{}, domainErrors.NotFound("project %s not found", key)
	}
	if err != nil {
		return project.Project{}, fmt.Errorf("could not load project: %w", err)
	}
	p.Key = entity.RemoteKey(id)
	p.Name = name
	p.Description = description
	return p, nil
}

// All returns every mirrored project in catalog order.
func (s *RemoteProjectStore) All(ctx context.Context) ([]project.Project, error) {
	return s.queryProjects(ctx,
		"SELECT id, name, description FROM remote_projects ORDER BY position")
}

// Search returns mirrored projects whose name contains the query,
// case-insensitively, in catalog order.
func (s *RemoteProjectStore) Search(ctx context.Context, query string) ([]project.Project, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	var matched []project.Project
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *RemoteProjectStore) queryProjects(ctx context.Context, q string, args ...any) ([]project.Project, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var id int64
		var name, description string
		if err := rows.Scan(&id, &name, &description); err != nil {
			return nil, err
		}
		projects = append(projects, project.Project{
			Key:         entity.RemoteKey(id),
			Name:        name,
			Description: description,
		})
	}
	return projects, rows.Err()
}

// RemoteActivityStore is the read-only ActivityStoragePort over the mirror.
type RemoteActivityStore struct {
	conn *Connection
}

// Save rejects writes; the mirror only changes through a refresh.
func (s *RemoteActivityStore) Save(context.Context, project.Activity) error {
	return domainErrors.InvalidOperation("only local entities may be edited/deleted")
}

// Delete rejects writes; the mirror only changes through a refresh.
func (s *RemoteActivityStore) Delete(context.Context, entity.Key) error {
	return domainErrors.InvalidOperation("only local entities may be edited/deleted")
}

// DeleteByProject rejects writes; the mirror only changes through a refresh.
func (s *RemoteActivityStore) DeleteByProject(context.Context, entity.Key) error {
	return domainErrors.InvalidOperation("only local entities may be edited/deleted")
}

// Get retrieves a mirrored activity by key.
func (s *RemoteActivityStore) Get(ctx context.Context, key entity.Key) (project.Activity, error) {
	id, ok := key.RemoteID()
	if !ok {
		return project.Activity{}, domainErrors.NotFound("activity %s is not remote", key)
	}
	db, err := s.conn.DB()
	if err != nil {
		return project.Activity{}, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT id, project_id, name, alias, description FROM remote_activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return project.Activity{}, domainErrors.NotFound("activity %s not found", key)
	}
	if err != nil {
		return project.Activity{}, fmt.Errorf("could not load activity: %w", err)
	}
	return a, nil
}

// GetByAlias retrieves the mirrored activity carrying the given alias.
func (s *RemoteActivityStore) GetByAlias(ctx context.Context, alias string) (project.Activity, error) {
	db, err := s.conn.DB()
	if err != nil {
		return project.Activity{}, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT id, project_id, name, alias, description FROM remote_activities WHERE alias = ? AND alias != ''", alias)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return project.Activity{}, domainErrors.NotFound("no remote activity has alias %q", alias)
	}
	if err != nil {
		return project.Activity{}, fmt.Errorf("could not load activity: %w", err)
	}
	return a, nil
}

// All returns every mirrored activity in catalog order.
func (s *RemoteActivityStore) All(ctx context.Context) ([]project.Activity, error) {
	return s.queryActivities(ctx,
		`SELECT a.id, a.project_id, a.name, a.alias, a.description
		 FROM remote_activities a
		 JOIN remote_projects p ON p.id = a.project_id
		 ORDER BY p.position, a.position`)
}

// ByProject returns the mirrored activities of the given project.
func (s *RemoteActivityStore) ByProject(ctx context.Context, projectKey entity.Key) ([]project.Activity, error) {
	id, ok := projectKey.RemoteID()
	if !ok {
		return nil, nil
	}
	return s.queryActivities(ctx,
		"SELECT id, project_id, name, alias, description FROM remote_activities WHERE project_id = ? ORDER BY position", id)
}

// Search returns mirrored activities whose name or alias contains the query,
// case-insensitively.
func (s *RemoteActivityStore) Search(ctx context.Context, query string) ([]project.Activity, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	var matched []project.Activity
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.Name), needle) ||
			(a.Alias != "" && strings.Contains(strings.ToLower(a.Alias), needle)) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func (s *RemoteActivityStore) queryActivities(ctx context.Context, q string, args ...any) ([]project.Activity, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query activities: %w", err)
	}
	defer rows.Close()

	var activities []project.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func scanActivity(row rowScanner) (project.Activity, error) {
	var id, projectID int64
	var name, alias, description string
	if err := row.Scan(&id, &projectID, &name, &alias, &description); err != nil {
		return project.Activity{}, err
	}
	return project.Activity{
		Key:         entity.RemoteKey(id),
		ProjectKey:  entity.RemoteKey(projectID),
		Name:        name,
		Alias:       alias,
		Description: description,
	}, nil
}
