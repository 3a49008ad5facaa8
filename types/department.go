package types

import "time"

// Department is a named routing target for complaints. Complaints
// reference departments by ID; a department with referencing complaints
// cannot be deleted.
type Department struct {
	// ID is the unique identifier of the department.
	ID int `json:"id" db:"id"`

	// Name is the unique display name of the department.
	Name string `json:"name" db:"name"`

	// Description explains what kinds of complaints the department handles.
	Description string `json:"description" db:"description"`

	// CreatedAt is the timestamp when the department was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
