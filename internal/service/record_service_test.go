package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

type mockRecordRepo struct {
	records []models.Record
}

func (m *mockRecordRepo) Append(ctx context.Context, record *models.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	m.records = append(m.records, *record)
	return nil
}

func (m *mockRecordRepo) List(ctx context.Context, filter models.RecordFilter) ([]models.Record, int, error) {
	var out []models.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		record := m.records[i]
		if filter.Type != "" && record.Type != filter.Type {
			continue
		}
		if filter.From != nil && record.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, record)
	}
	return out, len(out), nil
}

func (m *mockRecordRepo) FindByID(ctx context.Context, id string) (*models.Record, error) {
	for _, record := range m.records {
		if record.ID == id {
			cp := record
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRecordRepo) CountByType(ctx context.Context, recordType string) (int, error) {
	count := 0
	for _, record := range m.records {
		if record.Type == recordType {
			count++
		}
	}
	return count, nil
}

func (m *mockRecordRepo) Delete(ctx context.Context, id string) (bool, error) {
	for i, record := range m.records {
		if record.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestRecordServiceAppend(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewRecordService(repo, zap.NewNop())

	record, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeStudentAdded, "Student Ana Reyes registered")
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Len(t, repo.records, 1)
}

func TestRecordServiceAppendRequiresType(t *testing.T) {
	svc := NewRecordService(&mockRecordRepo{}, zap.NewNop())

	_, err := svc.Append(context.Background(), "26-0001", nil, "", "data")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestRecordServiceListNewestFirst(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewRecordService(repo, zap.NewNop())

	first, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeStudentAdded, "")
	require.NoError(t, err)
	second, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeEnrollment, "")
	require.NoError(t, err)

	records, pagination, err := svc.List(context.Background(), models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestRecordServiceListByType(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewRecordService(repo, zap.NewNop())

	_, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeStudentAdded, "")
	require.NoError(t, err)
	_, err = svc.Append(context.Background(), "26-0001", nil, models.RecordTypeEnrollment, "")
	require.NoError(t, err)

	records, _, err := svc.List(context.Background(), models.RecordFilter{Type: models.RecordTypeEnrollment})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.RecordTypeEnrollment, records[0].Type)
}

func TestRecordServiceListRejectsInvertedRange(t *testing.T) {
	svc := NewRecordService(&mockRecordRepo{}, zap.NewNop())

	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-24 * time.Hour)
	_, _, err := svc.List(context.Background(), models.RecordFilter{From: &from, To: &to})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestRecordServiceCountByTypeMatchesList(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewRecordService(repo, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeEmailSent, "")
		require.NoError(t, err)
	}
	_, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeLogin, "")
	require.NoError(t, err)

	count, err := svc.CountByType(context.Background(), models.RecordTypeEmailSent)
	require.NoError(t, err)

	records, _, err := svc.List(context.Background(), models.RecordFilter{Type: models.RecordTypeEmailSent})
	require.NoError(t, err)
	assert.Equal(t, len(records), count)
}

func TestRecordServiceCountRequiresType(t *testing.T) {
	svc := NewRecordService(&mockRecordRepo{}, zap.NewNop())

	_, err := svc.CountByType(context.Background(), "")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestRecordServiceGetAndDelete(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewRecordService(repo, zap.NewNop())

	record, err := svc.Append(context.Background(), "26-0001", nil, models.RecordTypeStudentAdded, "")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	require.NoError(t, svc.Delete(context.Background(), record.ID))

	_, err = svc.Get(context.Background(), record.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	err = svc.Delete(context.Background(), record.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
