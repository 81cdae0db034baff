package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Rows are never hard-deleted; a drop flips the
// status so history is preserved.
const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusDropped EnrollmentStatus = "dropped"
)

// Enrollment captures a student's registration to a subject. The pair
// (student, subject) carries at most one active row at a time.
type Enrollment struct {
	StudentNumber  string           `db:"student_id" json:"student_number"`
	SubjectID      string           `db:"subject_id" json:"subject_id"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
}
