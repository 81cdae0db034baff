package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

// EnrollmentRepository handles persistence of student-subject enrollments.
// Rows are only ever inserted or status-flipped, never deleted, so the
// enrollment history of a pair survives drops and reactivations.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindPair returns the enrollment row for a student-subject pair.
func (r *EnrollmentRepository) FindPair(ctx context.Context, studentNumber, subjectID string) (*models.Enrollment, error) {
	const query = `SELECT student_id, subject_id, status, enrollment_date FROM student_subjects WHERE student_id = $1 AND subject_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentNumber, subjectID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// InsertActive creates a fresh active enrollment. The composite primary key
// on (student_id, subject_id) turns a concurrent double-enroll into
// ALREADY_ENROLLED here rather than a silent duplicate.
func (r *EnrollmentRepository) InsertActive(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = time.Now().UTC()
	}
	enrollment.Status = models.EnrollmentStatusActive
	const query = `INSERT INTO student_subjects (student_id, subject_id, status, enrollment_date)
        VALUES (:student_id, :subject_id, :status, :enrollment_date)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrAlreadyEnrolled.Code, appErrors.ErrAlreadyEnrolled.Status, "active enrollment already exists")
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// Reactivate flips a dropped pair back to active with a fresh enrollment
// date. Returns false when no dropped row exists for the pair.
func (r *EnrollmentRepository) Reactivate(ctx context.Context, studentNumber, subjectID string, date time.Time) (bool, error) {
	const query = `UPDATE student_subjects SET status = $3, enrollment_date = $4 WHERE student_id = $1 AND subject_id = $2 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, studentNumber, subjectID, models.EnrollmentStatusActive, date, models.EnrollmentStatusDropped)
	if err != nil {
		return false, fmt.Errorf("reactivate enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reactivate enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// MarkDropped transitions an active pair to dropped. Returns false when the
// pair has no active row.
func (r *EnrollmentRepository) MarkDropped(ctx context.Context, studentNumber, subjectID string) (bool, error) {
	const query = `UPDATE student_subjects SET status = $3 WHERE student_id = $1 AND subject_id = $2 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, studentNumber, subjectID, models.EnrollmentStatusDropped, models.EnrollmentStatusActive)
	if err != nil {
		return false, fmt.Errorf("drop enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("drop enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// ListActiveBySubject returns students with an active enrollment for the
// subject ordered by student number.
func (r *EnrollmentRepository) ListActiveBySubject(ctx context.Context, subjectID string) ([]models.Student, error) {
	const query = `SELECT s.student_number, s.first_name, s.last_name, s.email, s.section, s.guardian_name, s.guardian_email
        FROM students s
        JOIN student_subjects e ON e.student_id = s.student_number
        WHERE e.subject_id = $1 AND e.status = $2
        ORDER BY s.student_number ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, subjectID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}

// ListAvailableBySubject returns the complement set: students with no active
// enrollment for the subject, ordered by student number. Dropped history does
// not count against availability.
func (r *EnrollmentRepository) ListAvailableBySubject(ctx context.Context, subjectID string) ([]models.Student, error) {
	const query = `SELECT s.student_number, s.first_name, s.last_name, s.email, s.section, s.guardian_name, s.guardian_email
        FROM students s
        WHERE NOT EXISTS (
            SELECT 1 FROM student_subjects e
            WHERE e.student_id = s.student_number AND e.subject_id = $1 AND e.status = $2
        )
        ORDER BY s.student_number ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, subjectID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list available students: %w", err)
	}
	return students, nil
}

// ListByStudent returns every enrollment row for a student, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentNumber string) ([]models.Enrollment, error) {
	const query = `SELECT student_id, subject_id, status, enrollment_date FROM student_subjects WHERE student_id = $1 ORDER BY enrollment_date DESC`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentNumber); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// CountActiveBySubject returns the number of active enrollments for a subject.
func (r *EnrollmentRepository) CountActiveBySubject(ctx context.Context, subjectID string) (int, error) {
	const query = `SELECT COUNT(*) FROM student_subjects WHERE subject_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, subjectID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}
