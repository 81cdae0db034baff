package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

// emailPattern is a deliberately plain ASCII local@domain.tld check.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByNumber(ctx context.Context, number string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) (bool, error)
	Delete(ctx context.Context, number string) (bool, error)
}

type studentEnrollments interface {
	ListByStudent(ctx context.Context, studentNumber string) ([]models.Enrollment, error)
}

// CreateStudentRequest holds payload for registering students. Every string
// field except section is required.
type CreateStudentRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	Section       string `json:"section"`
	GuardianName  string `json:"guardian_name" validate:"required"`
	GuardianEmail string `json:"guardian_email" validate:"required"`
}

// UpdateStudentRequest holds payload for updating students. The student
// number is taken from the route, never from the body.
type UpdateStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	Section       string `json:"section"`
	GuardianName  string `json:"guardian_name" validate:"required"`
	GuardianEmail string `json:"guardian_email" validate:"required"`
}

// StudentService handles the student directory use-cases.
type StudentService struct {
	repo        studentRepository
	records     auditRecorder
	enrollments studentEnrollments
	cache       rosterCache
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service. enrollments and cache
// may be nil when no roster cache is in play.
func NewStudentService(repo studentRepository, records auditRecorder, enrollments studentEnrollments, cache rosterCache, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, records: records, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

// List returns students ordered by student number with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a student by number.
func (s *StudentService) Get(ctx context.Context, number string) (*models.Student, error) {
	student, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. All validation happens before any store
// access; a duplicate student number surfaces from the primary-key
// constraint.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !models.StudentNumberPattern.MatchString(req.StudentNumber) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student number must match YY-NNNN or YYYY-NNN")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student email")
	}
	if !emailPattern.MatchString(req.GuardianEmail) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid guardian email")
	}

	student := &models.Student{
		StudentNumber: req.StudentNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Section:       req.Section,
		GuardianName:  req.GuardianName,
		GuardianEmail: req.GuardianEmail,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		if appErrors.HasCode(err, appErrors.ErrDuplicateKey) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.audit(ctx, student.StudentNumber, models.RecordTypeStudentAdded, fmt.Sprintf("Student %s %s registered", student.FirstName, student.LastName))
	return student, nil
}

// Update modifies an existing student. The student number is immutable.
func (s *StudentService) Update(ctx context.Context, number string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student email")
	}
	if !emailPattern.MatchString(req.GuardianEmail) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid guardian email")
	}

	student := &models.Student{
		StudentNumber: number,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Section:       req.Section,
		GuardianName:  req.GuardianName,
		GuardianEmail: req.GuardianEmail,
	}
	ok, err := s.repo.Update(ctx, student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	s.audit(ctx, number, models.RecordTypeStudentUpdated, fmt.Sprintf("Student %s updated", number))
	s.invalidateRosters(ctx, s.activeRosterKeys(ctx, number))
	return student, nil
}

// Delete removes a student. Enrollment rows follow via the schema's
// referential policy; audit records intentionally remain.
func (s *StudentService) Delete(ctx context.Context, number string) error {
	// Cached rosters must be dropped too, and the enrollment rows that name
	// them cascade away with the student, so collect the keys first.
	keys := s.activeRosterKeys(ctx, number)

	ok, err := s.repo.Delete(ctx, number)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	s.audit(ctx, number, models.RecordTypeStudentDeleted, fmt.Sprintf("Student %s removed", number))
	s.invalidateRosters(ctx, keys)
	return nil
}

// activeRosterKeys returns the roster cache keys of every subject the
// student is actively enrolled in.
func (s *StudentService) activeRosterKeys(ctx context.Context, number string) []string {
	if s.cache == nil || s.enrollments == nil {
		return nil
	}
	rows, err := s.enrollments.ListByStudent(ctx, number)
	if err != nil {
		s.logger.Warn("roster invalidation skipped", zap.String("student_number", number), zap.Error(err))
		return nil
	}
	var keys []string
	for _, e := range rows {
		if e.Status == models.EnrollmentStatusActive {
			keys = append(keys, rosterCacheKey(e.SubjectID))
		}
	}
	return keys
}

func (s *StudentService) invalidateRosters(ctx context.Context, keys []string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	s.cache.Invalidate(ctx, keys...)
}

// audit appends best-effort; a failed append never rolls back the mutation.
func (s *StudentService) audit(ctx context.Context, studentNumber, recordType, data string) {
	if s.records == nil {
		return
	}
	if err := s.records.Append(ctx, &models.Record{StudentNumber: studentNumber, Type: recordType, Data: data}); err != nil {
		s.logger.Warn("audit append failed", zap.String("type", recordType), zap.Error(err))
	}
}
