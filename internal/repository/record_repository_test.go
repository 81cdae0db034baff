package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrollease/enrollease-api/internal/models"
)

func recordColumns() []string {
	return []string{"id", "student_id", "subject_id", "record_type", "record_data", "created_at"}
}

func TestRecordRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec("INSERT INTO records").
		WithArgs(sqlmock.AnyArg(), "26-0001", nil, "STUDENT_ADDED", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Record{StudentNumber: "26-0001", Type: models.RecordTypeStudentAdded}
	require.NoError(t, repo.Append(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryAppendKeepsAssignedID(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec("INSERT INTO records").
		WithArgs("rec-1", "", nil, "LOGIN", "admin@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Record{ID: "rec-1", Type: models.RecordTypeLogin, Data: "admin@example.com"}
	require.NoError(t, repo.Append(context.Background(), record))
	assert.Equal(t, "rec-1", record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows(recordColumns()).
		AddRow("r2", "26-0001", nil, "ENROLLMENT", "", time.Now()).
		AddRow("r1", "26-0001", nil, "STUDENT_ADDED", "", time.Now().Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, record_type, record_data, created_at FROM records WHERE 1=1 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM records WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	records, total, err := repo.List(context.Background(), models.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "r2", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery("FROM records WHERE 1=1 AND record_type = \\$1 AND created_at >= \\$2 AND created_at <= \\$3 ORDER BY created_at DESC").
		WithArgs("EMAIL_SENT", from, to).
		WillReturnRows(sqlmock.NewRows(recordColumns()))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records WHERE 1=1 AND record_type = \\$1").
		WithArgs("EMAIL_SENT", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	records, total, err := repo.List(context.Background(), models.RecordFilter{Type: models.RecordTypeEmailSent, From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	subjectID := "sub-1"
	mock.ExpectQuery("FROM records WHERE id = \\$1").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(recordColumns()).
			AddRow("r1", "26-0001", subjectID, "ENROLLMENT", "", time.Now()))

	record, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, record.SubjectID)
	assert.Equal(t, "sub-1", *record.SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery("FROM records WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryCountByType(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM records WHERE record_type = \\$1").
		WithArgs("EMAIL_SENT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByType(context.Background(), models.RecordTypeEmailSent)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.Delete(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
