package models

import "time"

// Child is the record-keeping subsystem's view of a looked-after child. The
// contact engine only consumes it as an existence check.
type Child struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	FullName       string    `db:"full_name" json:"full_name"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
