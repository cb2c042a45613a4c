package zebra

// Wire types for the Zebra HTTP API. Responses arrive wrapped in a "data"
// envelope. These structs stay inside this adapter; the rest of the
// application sees the typed DTOs from the ports package.

type projectDoc struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Activities  []activityDoc `json:"activities,omitempty"`
}

type activityDoc struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Alias       string `json:"alias,omitempty"`
	Description string `json:"description,omitempty"`
}

type roleDoc struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name,omitempty"`
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

type userDoc struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Roles    []roleDoc `json:"roles,omitempty"`
}

type timesheetDoc struct {
	ID                int64   `json:"id,omitempty"`
	ActivityID        int64   `json:"activity_id"`
	ProjectID         int64   `json:"project_id"`
	Date              string  `json:"date"` // YYYY-MM-DD
	Time              float64 `json:"time"` // hours
	Description       string  `json:"description,omitempty"`
	ClientDescription string  `json:"client_description,omitempty"`
	RoleID            *int64  `json:"role_id,omitempty"`
	Individual        bool    `json:"individual_action"`
	UpdatedAt         string  `json:"updated_at"` // RFC 3339
}

type projectsEnvelope struct {
	Data []projectDoc `json:"data"`
}

type userEnvelope struct {
	Data userDoc `json:"data"`
}

type timesheetEnvelope struct {
	Data timesheetDoc `json:"data"`
}

type timesheetsEnvelope struct {
	Data []timesheetDoc `json:"data"`
}

type createdEnvelope struct {
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
