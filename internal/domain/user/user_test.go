package user

import (
	"encoding/json"
	"errors"
	"testing"

	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
)

func TestRoleAssignment_Individual(t *testing.T) {
	a := Individual()

	if !a.IsIndividual() {
		t.Error("IsIndividual() = false")
	}
	if _, ok := a.Role(); ok {
		t.Error("Role() ok = true for individual assignment")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if a.String() != "individual" {
		t.Errorf("String() = %q", a.String())
	}
}

func TestRoleAssignment_Role(t *testing.T) {
	dev := Role{ID: 12, Name: "dev", FullName: "Developer"}
	a := AssignRole(dev)

	if a.IsIndividual() {
		t.Error("IsIndividual() = true for role assignment")
	}
	got, ok := a.Role()
	if !ok || got != dev {
		t.Errorf("Role() = %v, %v; want %v, true", got, ok, dev)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if a.String() != "dev" {
		t.Errorf("String() = %q", a.String())
	}
}

func TestRoleAssignment_ZeroInvalid(t *testing.T) {
	var a RoleAssignment

	err := a.Validate()
	if err == nil {
		t.Fatal("Validate() = nil for zero assignment")
	}
	if !errors.Is(err, domainErrors.ErrInvalidOperation) {
		t.Errorf("Validate() error = %v, want ErrInvalidOperation", err)
	}
	if _, err := json.Marshal(a); err == nil {
		t.Error("Marshal should fail for zero assignment")
	}
}

func TestRoleAssignment_Equality(t *testing.T) {
	dev := Role{ID: 12, Name: "dev"}

	if AssignRole(dev) != AssignRole(dev) {
		t.Error("identical role assignments should compare equal")
	}
	if Individual() != Individual() {
		t.Error("individual assignments should compare equal")
	}
	if AssignRole(dev) == Individual() {
		t.Error("role and individual assignments should differ")
	}
	if AssignRole(dev) == AssignRole(Role{ID: 13, Name: "pm"}) {
		t.Error("assignments with different roles should differ")
	}
}

func TestRoleAssignment_JSON(t *testing.T) {
	tests := []struct {
		name string
		a    RoleAssignment
		want string
	}{
		{
			name: "individual",
			a:    Individual(),
			want: `{"individual":true}`,
		},
		{
			name: "role",
			a:    AssignRole(Role{ID: 12, Name: "dev", FullName: "Developer"}),
			want: `{"individual":false,"role":{"id":12,"name":"dev","full_name":"Developer"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.a)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s, want %s", data, tt.want)
			}

			var decoded RoleAssignment
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if decoded != tt.a {
				t.Errorf("round trip changed assignment: %v != %v", decoded, tt.a)
			}
		})
	}
}

func TestRoleAssignment_JSONRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"individual with role", `{"individual":true,"role":{"id":1,"name":"dev"}}`},
		{"neither", `{"individual":false}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a RoleAssignment
			err := json.Unmarshal([]byte(tt.doc), &a)
			if err == nil {
				t.Fatalf("Unmarshal(%s) expected error", tt.doc)
			}
			if !errors.Is(err, domainErrors.ErrInvalidOperation) {
				t.Errorf("error = %v, want ErrInvalidOperation", err)
			}
		})
	}
}

func TestUserJSON(t *testing.T) {
	u := User{
		ID:       77,
		Username: "tcrawford",
		Roles: []Role{
			{ID: 12, Name: "dev", FullName: "Developer", Status: "active"},
			{ID: 13, Name: "pm", FullName: "Project Manager", ParentID: 12},
		},
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded User
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != u.ID || decoded.Username != u.Username {
		t.Errorf("round trip changed user: %+v", decoded)
	}
	if len(decoded.Roles) != 2 || decoded.Roles[1] != u.Roles[1] {
		t.Errorf("round trip changed roles: %+v", decoded.Roles)
	}
}
