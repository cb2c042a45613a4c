// Package project defines projects and the bookable activities they contain.
// Both exist in two stores: created locally with UUID keys, or mirrored from
// Zebra with integer keys. The entity.Key source tag tells them apart.
package project

import (
	"strings"

	"github.com/tcrawf/zebra/internal/domain/entity"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
)

// Project groups activities. Remote projects are read-only mirrors.
type Project struct {
	Key         entity.Key `json:"key"`                   // identity, carries the source tag
	Name        string     `json:"name"`                  // display name
	Description string     `json:"description,omitempty"` // free text
}

// NewProject creates a locally owned project with a fresh UUID key.
func NewProject(name, description string) (Project, error) {
	p := Project{
		Key:         entity.NewLocalKey(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Validate checks the structural invariants of a project.
func (p Project) Validate() error {
	if p.Key.IsZero() {
		return domainErrors.NewError(domainErrors.CodeValidation, "project key is required", nil)
	}
	if strings.TrimSpace(p.Name) == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "project name is required", nil)
	}
	return nil
}

// Activity is a bookable line of work within a project. ProjectKey is a
// back-reference used for display and cascade delete only. Alias is an
// optional short handle, unique within the store the activity originates
// from, accepted anywhere a command takes an activity argument.
type Activity struct {
	Key         entity.Key `json:"key"`
	ProjectKey  entity.Key `json:"project_key"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Alias       string     `json:"alias,omitempty"`
}

// NewActivity creates a locally owned activity under the given project.
func NewActivity(projectKey entity.Key, name, alias, description string) (Activity, error) {
	a := Activity{
		Key:         entity.NewLocalKey(),
		ProjectKey:  projectKey,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Alias:       strings.TrimSpace(alias),
	}
	if err := a.Validate(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// Validate checks the structural invariants of an activity.
func (a Activity) Validate() error {
	if a.Key.IsZero() {
		return domainErrors.NewError(domainErrors.CodeValidation, "activity key is required", nil)
	}
	if a.ProjectKey.IsZero() {
		return domainErrors.NewError(domainErrors.CodeValidation, "activity project key is required", nil)
	}
	if strings.TrimSpace(a.Name) == "" {
		return domainErrors.NewError(domainErrors.CodeValidation, "activity name is required", nil)
	}
	return nil
}
