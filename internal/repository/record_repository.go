package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/enrollease/enrollease-api/internal/models"
)

// RecordRepository persists the append-only audit trail. There is no update
// path; the only mutation besides Append is the administrative Delete.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Append stores a new audit record. The timestamp is assigned here, not by
// the caller.
func (r *RecordRepository) Append(ctx context.Context, record *models.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO records (id, student_id, subject_id, record_type, record_data, created_at)
        VALUES (:id, :student_id, :subject_id, :record_type, :record_data, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List returns records newest first, optionally filtered by type and an
// inclusive date range.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.Record, int, error) {
	base := "FROM records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("record_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
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

	query := fmt.Sprintf("SELECT id, student_id, subject_id, record_type, record_data, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var records []models.Record
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	return records, total, nil
}

// FindByID returns a single record.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.Record, error) {
	const query = `SELECT id, student_id, subject_id, record_type, record_data, created_at FROM records WHERE id = $1`
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// CountByType returns how many records carry the given type.
func (r *RecordRepository) CountByType(ctx context.Context, recordType string) (int, error) {
	const query = `SELECT COUNT(*) FROM records WHERE record_type = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recordType); err != nil {
		return 0, fmt.Errorf("count records by type: %w", err)
	}
	return count, nil
}

// Delete removes a record by id. Administrative correction only.
func (r *RecordRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete record rows: %w", err)
	}
	return affected > 0, nil
}
