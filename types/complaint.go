package types

import "time"

// Status is the lifecycle state of a complaint. The engine does not
// enforce a transition order; any supported value may be written by an
// authorized caller, and unsupported values are rejected by the store.
type Status string

// Supported statuses.
const (
	StatusSubmitted  Status = "Submitted"
	StatusInProgress Status = "InProgress"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// Valid reports whether the status is one of the supported values.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether the status counts toward resolution metrics.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

func (s Status) String() string {
	return string(s)
}

// Priority is the urgency assigned to a complaint at lodging time.
type Priority string

// Supported priorities.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether the priority is one of the supported values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p Priority) String() string {
	return string(p)
}

// Update is an immutable audit entry appended to a complaint. Updates are
// embedded in the complaint record, ordered by append time, and never
// edited or deleted. The complaint's top-level status always equals the
// status of the most recently appended update.
type Update struct {
	// UpdatedBy identifies the user who recorded the update.
	UpdatedBy int `json:"updated_by"`

	// Comment is the free-text note attached to the update.
	Comment string `json:"comment"`

	// Status is the complaint status snapshot at the time of the update.
	Status Status `json:"status"`

	// Timestamp is when the update was appended.
	Timestamp time.Time `json:"timestamp"`

	// Author is the resolved name/role of UpdatedBy. Populated only on
	// detail views.
	Author *UserRef `json:"author,omitempty"`
}

// Complaint is a citizen-filed grievance tracked through a status
// lifecycle. It owns its update history; users and departments are
// referenced by ID only.
type Complaint struct {
	// ID is the unique identifier of the complaint.
	ID int `json:"id" db:"id"`

	// UserID identifies the user who lodged the complaint.
	UserID int `json:"user_id" db:"user_id"`

	// DepartmentID identifies the department the complaint is routed to.
	DepartmentID int `json:"department_id" db:"department_id"`

	// AssignedTo identifies the officer handling the complaint, if any.
	AssignedTo *int `json:"assigned_to,omitempty" db:"assigned_to"`

	// Title is the short summary of the grievance.
	Title string `json:"title" db:"title"`

	// Description is the full text of the grievance.
	Description string `json:"description" db:"description"`

	// Category is an optional free-form classification.
	Category string `json:"category,omitempty" db:"category"`

	// Priority is the urgency of the complaint. Defaults to Medium.
	Priority Priority `json:"priority" db:"priority"`

	// Status is the current lifecycle state. It mirrors the status of the
	// last element of Updates.
	Status Status `json:"status" db:"status"`

	// AttachmentKey is the object storage key of the uploaded attachment,
	// if one was provided at lodging time.
	AttachmentKey string `json:"attachment_key,omitempty" db:"attachment_key"`

	// CreatedAt is the timestamp when the complaint was lodged.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Updates is the append-only audit history, oldest first.
	Updates []Update `json:"updates" db:"updates"`

	// Denormalized references, populated on detail and list views.
	User       *UserRef `json:"user,omitempty"`
	Department string   `json:"department,omitempty"`
	Assignee   *UserRef `json:"assignee,omitempty"`
}

// LastUpdate returns the most recently appended update, or nil when the
// history is empty.
func (c *Complaint) LastUpdate() *Update {
	if len(c.Updates) == 0 {
		return nil
	}
	return &c.Updates[len(c.Updates)-1]
}
