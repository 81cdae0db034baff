package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

type enrollmentRepository interface {
	FindPair(ctx context.Context, studentNumber, subjectID string) (*models.Enrollment, error)
	InsertActive(ctx context.Context, enrollment *models.Enrollment) error
	Reactivate(ctx context.Context, studentNumber, subjectID string, date time.Time) (bool, error)
	MarkDropped(ctx context.Context, studentNumber, subjectID string) (bool, error)
	ListActiveBySubject(ctx context.Context, subjectID string) ([]models.Student, error)
	ListAvailableBySubject(ctx context.Context, subjectID string) ([]models.Student, error)
	ListByStudent(ctx context.Context, studentNumber string) ([]models.Enrollment, error)
}

type studentReader interface {
	FindByNumber(ctx context.Context, number string) (*models.Student, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

// EnrollRequest identifies the student-subject pair to enroll or drop.
type EnrollRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	SubjectID     string `json:"subject_id" validate:"required"`
}

// EnrollmentService manages the student-subject ledger. Each pair moves
// through: no row -> active -> dropped -> active (reactivation). Rows are
// never removed, so history survives.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	subjects  subjectReader
	records   auditRecorder
	cache     rosterCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. cache may be nil.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, subjects subjectReader, records auditRecorder, cache rosterCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, subjects: subjects, records: records, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Enroll registers a student to a subject. A dropped pair is reactivated
// with a fresh enrollment date; an active pair fails with ALREADY_ENROLLED.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	now := time.Now().UTC()
	pair, err := s.repo.FindPair(ctx, req.StudentNumber, req.SubjectID)
	switch {
	case err == sql.ErrNoRows:
		enrollment := &models.Enrollment{StudentNumber: req.StudentNumber, SubjectID: req.SubjectID, EnrollmentDate: now}
		if err := s.repo.InsertActive(ctx, enrollment); err != nil {
			if appErrors.HasCode(err, appErrors.ErrAlreadyEnrolled) {
				return nil, err
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
		pair = enrollment
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	case pair.Status == models.EnrollmentStatusActive:
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "student already enrolled in subject")
	default:
		ok, err := s.repo.Reactivate(ctx, req.StudentNumber, req.SubjectID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate enrollment")
		}
		if !ok {
			// Lost a race with a concurrent enroll; the pair is active now.
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "student already enrolled in subject")
		}
		pair.Status = models.EnrollmentStatusActive
		pair.EnrollmentDate = now
	}

	s.audit(ctx, req.StudentNumber, req.SubjectID, models.RecordTypeEnrollment, fmt.Sprintf("Student %s enrolled", req.StudentNumber))
	s.invalidateRoster(ctx, req.SubjectID)
	return pair, nil
}

// Drop transitions an active pair to dropped. A pair with no active row
// fails with NOT_ENROLLED.
func (s *EnrollmentService) Drop(ctx context.Context, req EnrollRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	ok, err := s.repo.MarkDropped(ctx, req.StudentNumber, req.SubjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotEnrolled, "student has no active enrollment in subject")
	}

	s.audit(ctx, req.StudentNumber, req.SubjectID, models.RecordTypeEnrollmentDrop, fmt.Sprintf("Student %s dropped", req.StudentNumber))
	s.invalidateRoster(ctx, req.SubjectID)
	return nil
}

// ListActiveFor returns students actively enrolled in the subject ordered by
// student number. The listing is served from the roster cache when warm.
func (s *EnrollmentService) ListActiveFor(ctx context.Context, subjectID string) ([]models.Student, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	key := rosterCacheKey(subjectID)
	if s.cache != nil {
		var cached []models.Student
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}

	students, err := s.repo.ListActiveBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, students, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}
	return students, nil
}

// ListAvailableFor returns the complement set: students with no active
// enrollment for the subject. Always computed fresh; it shifts whenever any
// student is added, not just on enrollment changes.
func (s *EnrollmentService) ListAvailableFor(ctx context.Context, subjectID string) ([]models.Student, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	students, err := s.repo.ListAvailableBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available students")
	}
	return students, nil
}

// History returns every enrollment row for a student, newest first.
func (s *EnrollmentService) History(ctx context.Context, studentNumber string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

func (s *EnrollmentService) audit(ctx context.Context, studentNumber, subjectID, recordType, data string) {
	if s.records == nil {
		return
	}
	id := subjectID
	if err := s.records.Append(ctx, &models.Record{StudentNumber: studentNumber, SubjectID: &id, Type: recordType, Data: data}); err != nil {
		s.logger.Warn("audit append failed", zap.String("type", recordType), zap.Error(err))
	}
}

func (s *EnrollmentService) invalidateRoster(ctx context.Context, subjectID string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, rosterCacheKey(subjectID))
}

func rosterCacheKey(subjectID string) string {
	return "roster:subject:" + subjectID + ":active"
}
