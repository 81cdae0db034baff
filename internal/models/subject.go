package models

import (
	"regexp"
	"time"
)

// SubjectCodePattern constrains subject codes to 2-20 word characters.
var SubjectCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,20}$`)

// Subject represents an academic subject offered to students.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"subject_code" json:"subject_code"`
	Name        string    `db:"subject_name" json:"subject_name"`
	YearLevel   int       `db:"year_level" json:"year_level"`
	Section     string    `db:"section" json:"section"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	YearLevel int
	Section   string
	Search    string
	Page      int
	PageSize  int
}
