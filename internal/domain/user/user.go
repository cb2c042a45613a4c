// Package user holds the Zebra account data the client mirrors locally:
// the user record and the roles time can be booked against.
package user

import (
	"encoding/json"

	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
)

// Role is read-only reference data fetched from Zebra. ParentID is 0 for
// top-level roles. Roles are plain comparable values.
type Role struct {
	ID       int64  `json:"id"`        // Zebra role id
	Name     string `json:"name"`      // short code, e.g. "dev"
	FullName string `json:"full_name"` // display name
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	ParentID int64  `json:"parent_id,omitempty"`
}

// User is the Zebra account the client acts as.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Roles    []Role `json:"roles"`
}

// RoleAssignment states how a frame or timesheet is booked: as an individual
// action, or against exactly one role. The constructors are the only way to
// build a valid value, which keeps "individual with a role" and "neither"
// unrepresentable in checked code paths. The zero value is invalid and is
// rejected by Validate and by JSON decoding.
type RoleAssignment struct {
	individual bool
	hasRole    bool
	role       Role
}

// Individual returns the assignment for work booked as an individual action.
func Individual() RoleAssignment {
	return RoleAssignment{individual: true}
}

// AssignRole returns the assignment for work booked against a role.
func AssignRole(r Role) RoleAssignment {
	return RoleAssignment{hasRole: true, role: r}
}

// IsIndividual reports whether the work is booked as an individual action.
func (a RoleAssignment) IsIndividual() bool {
	return a.individual
}

// Role returns the assigned role; ok is false for individual assignments
// and for the invalid zero value.
func (a RoleAssignment) Role() (Role, bool) {
	return a.role, a.hasRole
}

// Validate rejects assignments that are neither individual nor role-backed.
func (a RoleAssignment) Validate() error {
	if !a.individual && !a.hasRole {
		return domainErrors.InvalidOperation("assignment must be individual or carry a role")
	}
	return nil
}

// String renders the assignment for display.
func (a RoleAssignment) String() string {
	if a.individual {
		return "individual"
	}
	if a.hasRole {
		return a.role.Name
	}
	return "unassigned"
}

type roleAssignmentDoc struct {
	Individual bool  `json:"individual"`
	Role       *Role `json:"role,omitempty"`
}

// MarshalJSON encodes the assignment as {"individual": bool, "role": {...}}.
func (a RoleAssignment) MarshalJSON() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	doc := roleAssignmentDoc{Individual: a.individual}
	if a.hasRole {
		role := a.role
		doc.Role = &role
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes and validates an assignment.
func (a *RoleAssignment) UnmarshalJSON(data []byte) error {
	var doc roleAssignmentDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Individual && doc.Role != nil {
		return domainErrors.InvalidOperation("assignment cannot be individual and carry a role")
	}
	if doc.Individual {
		*a = Individual()
		return nil
	}
	if doc.Role == nil {
		return domainErrors.InvalidOperation("assignment must be individual or carry a role")
	}
	*a = AssignRole(*doc.Role)
	return nil
}
