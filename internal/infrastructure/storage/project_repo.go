package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/project"
)

// Compile-time checks that the local stores implement their ports.
var (
	_ ports.ProjectStoragePort  = (*LocalProjectStore)(nil)
	_ ports.ActivityStoragePort = (*LocalActivityStore)(nil)
)

// projectEntry is the on-disk shape of one local project with its
// activities nested, mirroring how users think about them.
type projectEntry struct {
	Project    project.Project    `json:"project"`
	Activities []project.Activity `json:"activities,omitempty"`
}

type projectsDoc struct {
	Projects []projectEntry `json:"projects"`
}

// projectStore owns the projects file. Both local stores share one instance
// so project and activity writes serialize on the same mutex and land in the
// same document.
type projectStore struct {
	mu   sync.Mutex
	path string
}

// LocalProjectStore implements ProjectStoragePort over the local projects file.
type LocalProjectStore struct {
	store *projectStore
}

// LocalActivityStore implements ActivityStoragePort over the same file.
type LocalActivityStore struct {
	store *projectStore
}

// NewLocalStores creates the project and activity stores backed by the JSON
// document at path.
func NewLocalStores(path string) (*LocalProjectStore, *LocalActivityStore) {
	shared := &projectStore{path: path}
	return &LocalProjectStore{store: shared}, &LocalActivityStore{store: shared}
}

func (s *projectStore) load() (projectsDoc, error) {
	var doc projectsDoc
	if err := readDocument(s.path, &doc); err != nil {
		return projectsDoc{}, err
	}
	return doc, nil
}

// Save persists a project, replacing any entry with the same key. Activities
// under an existing entry are untouched.
func (s *LocalProjectStore) Save(_ context.Context, p project.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.Key.IsLocal() {
		return domainErrors.InvalidOperation("project %q is not local; only local projects may be saved here", p.Name)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return err
	}
	for i := range doc.Projects {
		if doc.Projects[i].Project.Key == p.Key {
			doc.Projects[i].Project = p
			return writeDocument(s.store.path, doc)
		}
	}
	doc.Projects = append(doc.Projects, projectEntry{Project: p})
	return writeDocument(s.store.path, doc)
}

// Get retrieves a project by key.
func (s *LocalProjectStore) Get(_ context.Context, key entity.Key) (project.Project, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return project.Project{}, err
	}
	for _, entry := range doc.Projects {
		if entry.Project.Key == key {
			return entry.Project, nil
		}
	}
	return project.Project{}, domainErrors.NotFound("project %s not found", key)
}

// Delete removes a project and, with it, the activities nested under it.
func (s *LocalProjectStore) Delete(_ context.Context, key entity.Key) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return err
	}
	for i := range doc.Projects {
		if doc.Projects[i].Project.Key == key {
			doc.Projects = append(doc.Projects[:i], doc.Projects[i+1:]...)
			return writeDocument(s.store.path, doc)
		}
	}
	return domainErrors.NotFound("project %s not found", key)
}

// All returns every local project in file order.
func (s *LocalProjectStore) All(_ context.Context) ([]project.Project, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return nil, err
	}
	projects := make([]project.Project, 0, len(doc.Projects))
	for _, entry := range doc.Projects {
		projects = append(projects, entry.Project)
	}
	return projects, nil
}

// Search returns local projects whose name contains the query,
// case-insensitively, in file order.
func (s *LocalProjectStore) Search(ctx context.Context, query string) ([]project.Project, error) {
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

// Save persists an activity under its project entry, replacing any activity
// with the same key. The parent project must already exist.
func (s *LocalActivityStore) Save(_ context.Context, a project.Activity) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.Key.IsLocal() {
		return domainErrors.InvalidOperation("activity %q is not local; only local activities may be saved here", a.Name)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return err
	}

	if a.Alias != "" {
		for _, entry := range doc.Projects {
			for _, existing := range entry.Activities {
				if existing.Alias == a.Alias && existing.Key != a.Key {
					return domainErrors.InvalidOperation("alias %q is already used by activity %q", a.Alias, existing.Name)
				}
			}
		}
	}

	for i := range doc.Projects {
		entry := &doc.Projects[i]
		for j := range entry.Activities {
			if entry.Activities[j].Key == a.Key {
				if entry.Project.Key == a.ProjectKey {
					entry.Activities[j] = a
					return writeDocument(s.store.path, doc)
				}
				// Reparented: drop here, fall through to insert below.
				entry.Activities = append(entry.Activities[:j], entry.Activities[j+1:]...)
				break
			}
		}
	}
	for i := range doc.Projects {
		if doc.Projects[i].Project.Key == a.ProjectKey {
			doc.Projects[i].Activities = append(doc.Projects[i].Activities, a)
			return writeDocument(s.store.path, doc)
		}
	}
	return domainErrors.NotFound("project %s not found for activity %q", a.ProjectKey, a.Name)
}

// Get retrieves an activity by key.
func (s *LocalActivityStore) Get(_ context.Context, key entity.Key) (project.Activity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return project.Activity{}, err
	}
	for _, entry := range doc.Projects {
		for _, a := range entry.Activities {
			if a.Key == key {
				return a, nil
			}
		}
	}
	return project.Activity{}, domainErrors.NotFound("activity %s not found", key)
}

// GetByAlias retrieves the activity carrying the given alias.
func (s *LocalActivityStore) GetByAlias(_ context.Context, alias string) (project.Activity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return project.Activity{}, err
	}
	for _, entry := range doc.Projects {
		for _, a := range entry.Activities {
			if a.Alias != "" && a.Alias == alias {
				return a, nil
			}
		}
	}
	return project.Activity{}, domainErrors.NotFound("no local activity has alias %q", alias)
}

// Delete removes an activity by key.
func (s *LocalActivityStore) Delete(_ context.Context, key entity.Key) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return err
	}
	for i := range doc.Projects {
		entry := &doc.Projects[i]
		for j := range entry.Activities {
			if entry.Activities[j].Key == key {
				entry.Activities = append(entry.Activities[:j], entry.Activities[j+1:]...)
				return writeDocument(s.store.path, doc)
			}
		}
	}
	return domainErrors.NotFound("activity %s not found", key)
}

// DeleteByProject removes every activity under the given project. Deleting
// from a project with no activities is a no-op.
func (s *LocalActivityStore) DeleteByProject(_ context.Context, projectKey entity.Key) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return err
	}
	for i := range doc.Projects {
		if doc.Projects[i].Project.Key == projectKey {
			if len(doc.Projects[i].Activities) == 0 {
				return nil
			}
			doc.Projects[i].Activities = nil
			return writeDocument(s.store.path, doc)
		}
	}
	return nil
}

// All returns every local activity, grouped by project in file order.
func (s *LocalActivityStore) All(_ context.Context) ([]project.Activity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return nil, err
	}
	var activities []project.Activity
	for _, entry := range doc.Projects {
		activities = append(activities, entry.Activities...)
	}
	return activities, nil
}

// ByProject returns the activities nested under the given project, sorted
// by name.
func (s *LocalActivityStore) ByProject(_ context.Context, projectKey entity.Key) ([]project.Activity, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	doc, err := s.store.load()
	if err != nil {
		return nil, err
	}
	for _, entry := range doc.Projects {
		if entry.Project.Key == projectKey {
			activities := append([]project.Activity(nil), entry.Activities...)
			sort.SliceStable(activities, func(i, j int) bool {
				return activities[i].Name < activities[j].Name
			})
			return activities, nil
		}
	}
	return nil, nil
}

// Search returns local activities whose name or alias contains the query,
// case-insensitively.
func (s *LocalActivityStore) Search(ctx context.Context, query string) ([]project.Activity, error) {
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
