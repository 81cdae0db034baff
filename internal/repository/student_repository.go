package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters ordered by student number.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)+1))
		args = append(args, filter.Section)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR student_number LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT student_number, first_name, last_name, email, section, guardian_name, guardian_email %s ORDER BY student_number ASC LIMIT %d OFFSET %d", base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByNumber fetches a student by student number.
func (r *StudentRepository) FindByNumber(ctx context.Context, number string) (*models.Student, error) {
	const query = `SELECT student_number, first_name, last_name, email, section, guardian_name, guardian_email FROM students WHERE student_number = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, number); err != nil {
		return nil, err
	}
	return &student, nil
}

// MaxNumberForPrefix returns the lexicographically greatest student number
// starting with the given year prefix. sql.ErrNoRows means no match exists.
func (r *StudentRepository) MaxNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	const query = `SELECT student_number FROM students WHERE student_number LIKE $1 ORDER BY student_number DESC LIMIT 1`
	var number string
	if err := r.db.GetContext(ctx, &number, query, prefix+"%"); err != nil {
		return "", err
	}
	return number, nil
}

// Create inserts a new student record. A duplicate student number surfaces
// as a DUPLICATE_KEY error from the primary-key constraint.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (student_number, first_name, last_name, email, section, guardian_name, guardian_email)
        VALUES (:student_number, :first_name, :last_name, :email, :section, :guardian_name, :guardian_email)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDuplicateKey.Code, appErrors.ErrDuplicateKey.Status, "student number already exists")
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. The student number is never touched.
// Returns false if no row matched.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (bool, error) {
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email, section = :section, guardian_name = :guardian_name, guardian_email = :guardian_email WHERE student_number = :student_number`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return false, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update student rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a student. Dependent enrollment rows and audit records are
// intentionally left alone; referential policy belongs to the schema.
func (r *StudentRepository) Delete(ctx context.Context, number string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_number = $1`, number)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete student rows: %w", err)
	}
	return affected > 0, nil
}
