package uploads

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements UploadsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new upload record.
func (r *PGRepo) Create(ctx context.Context, up Upload) error {
	const query = `
INSERT INTO uploads (
    id,
    filename,
    content_type,
    staging_path,
    status,
    progress,
    message,
    document_id,
    inserted_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`

	status := up.Status
	if status == "" {
		status = StatusPending
	}

	var documentID sql.NullString
	if up.DocumentID != "" {
		documentID = sql.NullString{String: up.DocumentID, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		up.ID,
		up.Filename,
		up.ContentType,
		up.StagingPath,
		string(status),
		up.Progress,
		up.Message,
		documentID,
	)
	return err
}

// GetByID returns the upload for id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Upload, error) {
	const query = `
SELECT id, filename, content_type, staging_path, status, progress, message, document_id, inserted_at, updated_at
FROM uploads
WHERE id = $1`

	var up Upload
	var status string
	var documentID sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&up.ID,
		&up.Filename,
		&up.ContentType,
		&up.StagingPath,
		&status,
		&up.Progress,
		&up.Message,
		&documentID,
		&up.InsertedAt,
		&up.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Upload{}, ErrNotFound
		}
		return Upload{}, err
	}
	up.Status = Status(status)
	if documentID.Valid {
		up.DocumentID = documentID.String
	}
	return up, nil
}

// Update rewrites the mutable fields and refreshes updated_at.
func (r *PGRepo) Update(ctx context.Context, up Upload) error {
	const query = `
UPDATE uploads
SET status = $1, progress = $2, message = $3, document_id = $4, updated_at = now()
WHERE id = $5`

	var documentID sql.NullString
	if up.DocumentID != "" {
		documentID = sql.NullString{String: up.DocumentID, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, string(up.Status), up.Progress, up.Message, documentID, up.ID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ UploadsRepo = (*PGRepo)(nil)
