package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/portfoliq/holdings-backend/internal/errors"
	"github.com/portfoliq/holdings-backend/internal/model"
)

// ImportRepository provides data access methods for the import_record table,
// the per-upload audit trail.
type ImportRepository struct {
	db *sql.DB
}

// NewImportRepository creates a new ImportRepository with the provided database connection.
func NewImportRepository(db *sql.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create persists a new import record in processing state and returns it with
// its generated ID.
func (r *ImportRepository) Create(ctx context.Context, platformAccountID int64, fileName, fileType string) (*model.ImportRecord, error) {
	record := &model.ImportRecord{
		ID:                uuid.New().String(),
		PlatformAccountID: platformAccountID,
		FileName:          fileName,
		FileType:          fileType,
		Status:            model.ImportStatusProcessing,
		ImportedAt:        time.Now().UTC(),
	}

	query := `
		INSERT INTO import_record (id, platform_account_id, file_name, file_type, status, records_imported, imported_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PlatformAccountID,
		record.FileName,
		record.FileType,
		string(record.Status),
		record.ImportedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert import record: %w", err)
	}

	return record, nil
}

// MarkSuccess transitions an import record to success with the imported count.
func (r *ImportRepository) MarkSuccess(ctx context.Context, id string, recordsImported int) error {
	if id == "" {
		return errors.ErrEmptyID
	}

	query := `UPDATE import_record SET status = ?, records_imported = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(model.ImportStatusSuccess), recordsImported, id)
	if err != nil {
		return fmt.Errorf("failed to mark import record success: %w", err)
	}
	return checkRecordUpdated(result)
}

// MarkFailed transitions an import record to failed with the captured error detail.
func (r *ImportRepository) MarkFailed(ctx context.Context, id string, cause string) error {
	if id == "" {
		return errors.ErrEmptyID
	}

	query := `UPDATE import_record SET status = ?, error_message = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(model.ImportStatusFailed), cause, id)
	if err != nil {
		return fmt.Errorf("failed to mark import record failed: %w", err)
	}
	return checkRecordUpdated(result)
}

// checkRecordUpdated verifies the status update matched an existing record.
func checkRecordUpdated(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return errors.ErrImportRecordNotFound
	}
	return nil
}

// GetRecent retrieves the most recent import records, newest first.
func (r *ImportRepository) GetRecent(ctx context.Context, limit int) ([]model.ImportRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, platform_account_id, file_name, file_type, status, error_message, records_imported, imported_at
		FROM import_record
		ORDER BY imported_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import_record table: %w", err)
	}
	defer rows.Close()

	records := []model.ImportRecord{}
	for rows.Next() {
		var rec model.ImportRecord
		var status, importedAt string
		var errorMessage sql.NullString

		err := rows.Scan(
			&rec.ID,
			&rec.PlatformAccountID,
			&rec.FileName,
			&rec.FileType,
			&status,
			&errorMessage,
			&rec.RecordsImported,
			&importedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import_record table results: %w", err)
		}

		rec.Status = model.ImportStatus(status)
		if errorMessage.Valid {
			rec.ErrorMessage = errorMessage.String
		}
		rec.ImportedAt, err = ParseTime(importedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import_record table: %w", err)
	}

	return records, nil
}
