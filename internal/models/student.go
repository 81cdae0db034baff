package models

import "regexp"

// StudentNumberPattern is the canonical student number format: a two or four
// digit year prefix, a dash, and a three or four digit sequence.
var StudentNumberPattern = regexp.MustCompile(`^\d{2,4}-\d{3,4}$`)

// Student represents a learner registered in the roster. The student number
// is the identity of the record and never changes after creation.
type Student struct {
	StudentNumber string `db:"student_number" json:"student_number"`
	FirstName     string `db:"first_name" json:"first_name"`
	LastName      string `db:"last_name" json:"last_name"`
	Email         string `db:"email" json:"email"`
	Section       string `db:"section" json:"section"`
	GuardianName  string `db:"guardian_name" json:"guardian_name"`
	GuardianEmail string `db:"guardian_email" json:"guardian_email"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Section  string
	Page     int
	PageSize int
}
