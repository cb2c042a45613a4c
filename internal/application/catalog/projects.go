// Package catalog exposes the project and activity catalogs as single
// facades over their two backing stores: the writable local store and the
// read-only mirror of Zebra's own catalog. Callers address entries by
// entity key and never care which side an entry lives on.
package catalog

import (
	"context"
	"strings"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
)

// ProjectCatalog routes project operations by key source. Local projects
// are fully editable; remote projects are managed in Zebra and only read
// here. Listings return local entries first.
type ProjectCatalog struct {
	local           ports.ProjectStoragePort
	remote          ports.ProjectStoragePort
	localActivities ports.ActivityStoragePort
}

// NewProjectCatalog creates the facade. The local activity store is needed
// for cascade deletes.
func NewProjectCatalog(local, remote ports.ProjectStoragePort, localActivities ports.ActivityStoragePort) *ProjectCatalog {
	return &ProjectCatalog{
		local:           local,
		remote:          remote,
		localActivities: localActivities,
	}
}

// Create adds a new local project. Created entries always carry a local key;
// remote entries only ever enter through a cache refresh.
func (c *ProjectCatalog) Create(ctx context.Context, name, description string) (project.Project, error) {
	p, err := project.NewProject(name, description)
	if err != nil {
		return project.Project{}, err
	}
	if err := c.local.Save(ctx, p); err != nil {
		return project.Project{}, err
	}
	return p, nil
}

// Update replaces a local project. Remote projects cannot be modified.
func (c *ProjectCatalog) Update(ctx context.Context, p project.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Key.IsRemote() {
		return domainErrors.InvalidOperation("project %s is managed in Zebra and cannot be modified", p.Key)
	}
	if _, err := c.local.Get(ctx, p.Key); err != nil {
		return err
	}
	return c.local.Save(ctx, p)
}

// Get retrieves one project from whichever store its key belongs to.
func (c *ProjectCatalog) Get(ctx context.Context, key entity.Key) (project.Project, error) {
	if key.IsRemote() {
		return c.remote.Get(ctx, key)
	}
	return c.local.Get(ctx, key)
}

// Delete removes a local project and all of its local activities. Remote
// projects cannot be deleted.
func (c *ProjectCatalog) Delete(ctx context.Context, key entity.Key) error {
	if key.IsRemote() {
		return domainErrors.InvalidOperation("project %s is managed in Zebra and cannot be deleted", key)
	}
	if _, err := c.local.Get(ctx, key); err != nil {
		return err
	}
	if err := c.localActivities.DeleteByProject(ctx, key); err != nil {
		return err
	}
	return c.local.Delete(ctx, key)
}

// All lists every known project, local entries first.
func (c *ProjectCatalog) All(ctx context.Context) ([]project.Project, error) {
	local, err := c.local.All(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := c.remote.All(ctx)
	if err != nil {
		return nil, err
	}
	return append(local, remote...), nil
}

// Search lists projects whose name matches the query, local entries first.
func (c *ProjectCatalog) Search(ctx context.Context, query string) ([]project.Project, error) {
	local, err := c.local.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	remote, err := c.remote.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return append(local, remote...), nil
}

// Resolve turns a user-supplied reference into a project. The reference is
// tried as an entity key first, then as an exact name. Name matches prefer
// the local store; an ambiguous name is rejected rather than guessed at.
func (c *ProjectCatalog) Resolve(ctx context.Context, ref string) (project.Project, error) {
	if key, err := entity.Parse(ref); err == nil {
		return c.Get(ctx, key)
	}

	all, err := c.All(ctx)
	if err != nil {
		return project.Project{}, err
	}

	var matches []project.Project
	for _, p := range all {
		if strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return project.Project{}, domainErrors.NotFound("no project named %q", ref)
	case 1:
		return matches[0], nil
	default:
		return project.Project{}, domainErrors.InvalidOperation("project name %q is ambiguous, use its key", ref)
	}
}
