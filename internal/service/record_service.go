package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

// auditRecorder is the append surface shared by every service that emits
// audit records.
type auditRecorder interface {
	Append(ctx context.Context, record *models.Record) error
}

type recordRepository interface {
	auditRecorder
	List(ctx context.Context, filter models.RecordFilter) ([]models.Record, int, error)
	FindByID(ctx context.Context, id string) (*models.Record, error)
	CountByType(ctx context.Context, recordType string) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// RecordService exposes the audit trail. History is immutable: no update
// operation exists, and Delete is an administrative correction only.
type RecordService struct {
	repo   recordRepository
	logger *zap.Logger
}

// NewRecordService constructs the record service.
func NewRecordService(repo recordRepository, logger *zap.Logger) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{repo: repo, logger: logger}
}

// Append stores a new audit record.
func (s *RecordService) Append(ctx context.Context, studentNumber string, subjectID *string, recordType, data string) (*models.Record, error) {
	if recordType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record type is required")
	}
	record := &models.Record{
		StudentNumber: studentNumber,
		SubjectID:     subjectID,
		Type:          recordType,
		Data:          data,
	}
	if err := s.repo.Append(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append record")
	}
	return record, nil
}

// List returns records newest first with pagination metadata. The date range
// bounds are inclusive.
func (s *RecordService) List(ctx context.Context, filter models.RecordFilter) ([]models.Record, *models.Pagination, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "date range end precedes start")
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
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
	return records, pagination, nil
}

// Get returns a single record by id.
func (s *RecordService) Get(ctx context.Context, id string) (*models.Record, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return record, nil
}

// CountByType returns the number of records carrying the given type.
func (s *RecordService) CountByType(ctx context.Context, recordType string) (int, error) {
	if recordType == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "record type is required")
	}
	count, err := s.repo.CountByType(ctx, recordType)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count records")
	}
	return count, nil
}

// Delete removes a record by id.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "record not found")
	}
	return nil
}
