package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/enrollease/enrollease-api/internal/models"
	appErrors "github.com/enrollease/enrollease-api/pkg/errors"
)

type mockSubjectByCode struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectByCode) GetByCode(ctx context.Context, code string) (*models.Subject, error) {
	if subject, ok := m.subjects[code]; ok {
		return subject, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

type mockRosterLister struct {
	rosters map[string][]models.Student
	err     error
}

func (m *mockRosterLister) ListActiveFor(ctx context.Context, subjectID string) ([]models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rosters[subjectID], nil
}

func newExportService() *ExportService {
	subjects := &mockSubjectByCode{subjects: map[string]*models.Subject{
		"MATH-7": {ID: "sub-1", Code: "MATH-7", Name: "Mathematics 7"},
	}}
	rosters := &mockRosterLister{rosters: map[string][]models.Student{
		"sub-1": {
			{StudentNumber: "26-0001", FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", Section: "A"},
			{StudentNumber: "26-0002", FirstName: "Ben", LastName: "Cruz", Email: "ben@example.com", Section: "A"},
		},
	}}
	return NewExportService(subjects, rosters, zap.NewNop())
}

func TestExportServiceRosterCSV(t *testing.T) {
	svc := newExportService()

	file, err := svc.Roster(context.Background(), "MATH-7", "csv")
	require.NoError(t, err)
	assert.Equal(t, "roster-MATH-7.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Student Number")
	assert.Contains(t, lines[1], "26-0001")
	assert.Contains(t, lines[2], "26-0002")
}

func TestExportServiceRosterPDF(t *testing.T) {
	svc := newExportService()

	file, err := svc.Roster(context.Background(), "MATH-7", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "roster-MATH-7.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportServiceRosterRejectsFormat(t *testing.T) {
	svc := newExportService()

	_, err := svc.Roster(context.Background(), "MATH-7", "xlsx")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestExportServiceRosterUnknownSubject(t *testing.T) {
	svc := newExportService()

	_, err := svc.Roster(context.Background(), "GHOST", "csv")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestExportServiceRosterListFailure(t *testing.T) {
	subjects := &mockSubjectByCode{subjects: map[string]*models.Subject{
		"MATH-7": {ID: "sub-1", Code: "MATH-7", Name: "Mathematics 7"},
	}}
	rosters := &mockRosterLister{err: sql.ErrConnDone}
	svc := NewExportService(subjects, rosters, zap.NewNop())

	_, err := svc.Roster(context.Background(), "MATH-7", "csv")
	assert.Error(t, err)
}
