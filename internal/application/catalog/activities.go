package catalog

import (
	"context"
	"strings"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
)

// ActivityCatalog routes activity operations by key source, mirroring
// ProjectCatalog. An activity's own key decides its store; its project may
// live on either side, so listings by project consult both stores.
type ActivityCatalog struct {
	local    ports.ActivityStoragePort
	remote   ports.ActivityStoragePort
	projects *ProjectCatalog
}

// NewActivityCatalog creates the facade. The project catalog is consulted to
// validate project references on create.
func NewActivityCatalog(local, remote ports.ActivityStoragePort, projects *ProjectCatalog) *ActivityCatalog {
	return &ActivityCatalog{
		local:    local,
		remote:   remote,
		projects: projects,
	}
}

// Create adds a new local activity under an existing project. The project
// may be local or remote; the activity's own key is always local.
func (c *ActivityCatalog) Create(ctx context.Context, projectKey entity.Key, name, alias, description string) (project.Activity, error) {
	if _, err := c.projects.Get(ctx, projectKey); err != nil {
		return project.Activity{}, err
	}
	if alias != "" {
		if existing, err := c.GetByAlias(ctx, alias); err == nil {
			return project.Activity{}, domainErrors.InvalidOperation(
				"alias %q is already taken by activity %s", alias, existing.Key)
		} else if !domainErrors.Is(err, domainErrors.ErrNotFound) {
			return project.Activity{}, err
		}
	}

	a, err := project.NewActivity(projectKey, name, alias, description)
	if err != nil {
		return project.Activity{}, err
	}
	if err := c.local.Save(ctx, a); err != nil {
		return project.Activity{}, err
	}
	return a, nil
}

// Update replaces a local activity. Remote activities cannot be modified.
func (c *ActivityCatalog) Update(ctx context.Context, a project.Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Key.IsRemote() {
		return domainErrors.InvalidOperation("activity %s is managed in Zebra and cannot be modified", a.Key)
	}
	if _, err := c.local.Get(ctx, a.Key); err != nil {
		return err
	}
	return c.local.Save(ctx, a)
}

// Get retrieves one activity from whichever store its key belongs to.
func (c *ActivityCatalog) Get(ctx context.Context, key entity.Key) (project.Activity, error) {
	if key.IsRemote() {
		return c.remote.Get(ctx, key)
	}
	return c.local.Get(ctx, key)
}

// GetByAlias retrieves the activity carrying the alias, preferring the local
// store when both sides claim it.
func (c *ActivityCatalog) GetByAlias(ctx context.Context, alias string) (project.Activity, error) {
	a, err := c.local.GetByAlias(ctx, alias)
	if err == nil {
		return a, nil
	}
	if !domainErrors.Is(err, domainErrors.ErrNotFound) {
		return project.Activity{}, err
	}
	return c.remote.GetByAlias(ctx, alias)
}

// Delete removes a local activity. Remote activities cannot be deleted.
func (c *ActivityCatalog) Delete(ctx context.Context, key entity.Key) error {
	if key.IsRemote() {
		return domainErrors.InvalidOperation("activity %s is managed in Zebra and cannot be deleted", key)
	}
	if _, err := c.local.Get(ctx, key); err != nil {
		return err
	}
	return c.local.Delete(ctx, key)
}

// All lists every known activity, local entries first.
func (c *ActivityCatalog) All(ctx context.Context) ([]project.Activity, error) {
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

// ByProject lists the activities under one project. Both stores are
// consulted since local activities may hang off remote projects.
func (c *ActivityCatalog) ByProject(ctx context.Context, projectKey entity.Key) ([]project.Activity, error) {
	local, err := c.local.ByProject(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	remote, err := c.remote.ByProject(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	return append(local, remote...), nil
}

// Search lists activities whose name or alias matches the query, local
// entries first.
func (c *ActivityCatalog) Search(ctx context.Context, query string) ([]project.Activity, error) {
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

// Resolve turns a user-supplied reference into an activity. The reference is
// tried as an entity key, then as an alias, then as an exact name.
func (c *ActivityCatalog) Resolve(ctx context.Context, ref string) (project.Activity, error) {
	if key, err := entity.Parse(ref); err == nil {
		return c.Get(ctx, key)
	}
	if a, err := c.GetByAlias(ctx, ref); err == nil {
		return a, nil
	} else if !domainErrors.Is(err, domainErrors.ErrNotFound) {
		return project.Activity{}, err
	}

	all, err := c.All(ctx)
	if err != nil {
		return project.Activity{}, err
	}
	var matches []project.Activity
	for _, a := range all {
		if strings.EqualFold(a.Name, ref) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return project.Activity{}, domainErrors.NotFound("no activity named or aliased %q", ref)
	case 1:
		return matches[0], nil
	default:
		return project.Activity{}, domainErrors.InvalidOperation("activity name %q is ambiguous, use its key or an alias", ref)
	}
}
