package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateSubjectRequest holds payload for creating subjects.
type CreateSubjectRequest struct {
	Code        string `json:"subject_code" validate:"required"`
	Name        string `json:"subject_name" validate:"required"`
	YearLevel   int    `json:"year_level" validate:"required,gt=0"`
	Section     string `json:"section"`
	Description string `json:"description"`
}

// UpdateSubjectRequest holds payload for updating subjects. The code is
// taken from the route.
type UpdateSubjectRequest struct {
	Name        string `json:"subject_name" validate:"required"`
	YearLevel   int    `json:"year_level" validate:"required,gt=0"`
	Section     string `json:"section"`
	Description string `json:"description"`
}

// SubjectService handles the subject catalog use-cases.
type SubjectService struct {
	repo      subjectRepository
	records   auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, records auditRecorder, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, records: records, validator: validate, logger: logger}
}

// List returns subjects with pagination metadata.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
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
	return subjects, pagination, nil
}

// GetByCode returns a subject by its unique code.
func (s *SubjectService) GetByCode(ctx context.Context, code string) (*models.Subject, error) {
	subject, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject to the catalog. Duplicate codes are rejected by the
// unique constraint on insert; there is no existence pre-check to race against.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if !models.SubjectCodePattern.MatchString(req.Code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject code must be 2-20 chars of letters, digits, dash or underscore")
	}

	subject := &models.Subject{
		Code:        req.Code,
		Name:        req.Name,
		YearLevel:   req.YearLevel,
		Section:     req.Section,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		if appErrors.HasCode(err, appErrors.ErrDuplicateKey) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.audit(ctx, subject, models.RecordTypeSubjectAdded, fmt.Sprintf("Subject %s (%s) added", subject.Code, subject.Name))
	return subject, nil
}

// Update modifies a subject identified by code.
func (s *SubjectService) Update(ctx context.Context, code string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	subject.Name = req.Name
	subject.YearLevel = req.YearLevel
	subject.Section = req.Section
	subject.Description = req.Description
	ok, err := s.repo.Update(ctx, subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	s.audit(ctx, subject, models.RecordTypeSubjectUpdated, fmt.Sprintf("Subject %s updated", subject.Code))
	return subject, nil
}

// Delete removes a subject. Cascading enrollment cleanup is the caller's
// responsibility.
func (s *SubjectService) Delete(ctx context.Context, code string) error {
	subject, err := s.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, subject.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	s.audit(ctx, subject, models.RecordTypeSubjectDeleted, fmt.Sprintf("Subject %s removed", subject.Code))
	return nil
}

func (s *SubjectService) audit(ctx context.Context, subject *models.Subject, recordType, data string) {
	if s.records == nil {
		return
	}
	id := subject.ID
	if err := s.records.Append(ctx, &models.Record{SubjectID: &id, Type: recordType, Data: data}); err != nil {
		s.logger.Warn("audit append failed", zap.String("type", recordType), zap.Error(err))
	}
}
