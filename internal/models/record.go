package models

import "time"

// Record types written by the services.
const (
	RecordTypeStudentAdded   = "STUDENT_ADDED"
	RecordTypeStudentUpdated = "STUDENT_UPDATED"
	RecordTypeStudentDeleted = "STUDENT_DELETED"
	RecordTypeSubjectAdded   = "SUBJECT_ADDED"
	RecordTypeSubjectUpdated = "SUBJECT_UPDATED"
	RecordTypeSubjectDeleted = "SUBJECT_DELETED"
	RecordTypeEnrollment     = "ENROLLMENT"
	RecordTypeEnrollmentDrop = "ENROLLMENT_DROPPED"
	RecordTypeEmailSent      = "EMAIL_SENT"
	RecordTypeLogin          = "LOGIN"
)

// Record is an immutable audit trail entry describing a domain event.
// CreatedAt is assigned by the store layer, never by callers.
type Record struct {
	ID            string    `db:"id" json:"id"`
	StudentNumber string    `db:"student_id" json:"student_number"`
	SubjectID     *string   `db:"subject_id" json:"subject_id,omitempty"`
	Type          string    `db:"record_type" json:"record_type"`
	Data          string    `db:"record_data" json:"record_data"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RecordFilter provides filters for querying the audit trail.
type RecordFilter struct {
	Type     string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
