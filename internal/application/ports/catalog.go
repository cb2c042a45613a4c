package ports

import (
	"context"
	"time"

	"github.com/tcrawf/zebra/internal/domain/entity"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/user"
)

// ProjectStoragePort defines one backing store for projects. Two
// implementations exist: the local JSON store and the read-only mirror of
// Zebra's catalog. The catalog facade routes between them by key source.
type ProjectStoragePort interface {
	// Save persists a project with create-or-replace semantics keyed by
	// its entity key. Read-only stores reject it with ErrInvalidOperation.
	Save(ctx context.Context, p project.Project) error

	// Get retrieves a project by key. Returns ErrNotFound if no project matches.
	Get(ctx context.Context, key entity.Key) (project.Project, error)

	// Delete removes a project by key. Read-only stores reject it with
	// ErrInvalidOperation.
	Delete(ctx context.Context, key entity.Key) error

	// All returns every project in the store's internal order.
	All(ctx context.Context) ([]project.Project, error)

	// Search returns projects whose name matches the query, case-insensitively.
	Search(ctx context.Context, query string) ([]project.Project, error)
}

// ActivityStoragePort defines one backing store for activities.
type ActivityStoragePort interface {
	// Save persists an activity with create-or-replace semantics keyed by
	// its entity key. Read-only stores reject it with ErrInvalidOperation.
	Save(ctx context.Context, a project.Activity) error

	// Get retrieves an activity by key. Returns ErrNotFound if none matches.
	Get(ctx context.Context, key entity.Key) (project.Activity, error)

	// GetByAlias retrieves the activity carrying the given alias.
	// Aliases are unique within one store. Returns ErrNotFound if none matches.
	GetByAlias(ctx context.Context, alias string) (project.Activity, error)

	// Delete removes an activity by key. Read-only stores reject it with
	// ErrInvalidOperation.
	Delete(ctx context.Context, key entity.Key) error

	// DeleteByProject removes every activity belonging to the given
	// project. Used for cascade deletes of local projects.
	DeleteByProject(ctx context.Context, projectKey entity.Key) error

	// All returns every activity in the store's internal order.
	All(ctx context.Context) ([]project.Activity, error)

	// ByProject returns the activities belonging to the given project.
	ByProject(ctx context.Context, projectKey entity.Key) ([]project.Activity, error)

	// Search returns activities whose name or alias matches the query,
	// case-insensitively.
	Search(ctx context.Context, query string) ([]project.Activity, error)
}

// ReferenceCachePort maintains the local mirror of Zebra reference data:
// the remote project catalog, the user record and its bookable roles.
// Replace operations swap the whole data set atomically during a refresh.
type ReferenceCachePort interface {
	// ReplaceProjects replaces the cached remote catalog in one transaction.
	ReplaceProjects(ctx context.Context, projects []ProjectData) error

	// ReplaceUser replaces the cached user record and its roles in one
	// transaction.
	ReplaceUser(ctx context.Context, u user.User) error

	// User returns the cached user record. Returns ErrNotFound before the
	// first refresh.
	User(ctx context.Context) (user.User, error)

	// Roles returns the cached roles ordered by id.
	Roles(ctx context.Context) ([]user.Role, error)

	// Role returns one cached role by id. Returns ErrNotFound if unknown.
	Role(ctx context.Context, id int64) (user.Role, error)

	// RefreshedAt returns when the cache was last replaced; the zero time
	// before the first refresh.
	RefreshedAt(ctx context.Context) (time.Time, error)
}
