package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateDocument inserts a new document.
func (r *PGRepo) CreateDocument(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    file_name,
    file_url,
    extracted_text,
    status,
    inserted_at
) VALUES ($1, $2, $3, $4, $5, now())`

	status := doc.Status
	if status == "" {
		status = "completed"
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.FileName,
		doc.FileURL,
		doc.ExtractedText,
		status,
	)
	return err
}

// CreateQuestions inserts all questions for a document inside one
// transaction so a partial batch never becomes visible.
func (r *PGRepo) CreateQuestions(ctx context.Context, questions []Question) error {
	if len(questions) == 0 {
		return nil
	}

	const query = `
INSERT INTO questions (id, text, answer, document_id, inserted_at)
VALUES ($1, $2, $3, $4, now())`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range questions {
		var answer sql.NullString
		if q.Answer != nil {
			answer = sql.NullString{String: *q.Answer, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query, q.ID, q.Text, answer, q.DocumentID); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns the document for id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	const query = `
SELECT id, file_name, file_url, extracted_text, status, inserted_at
FROM documents
WHERE id = $1`

	var doc Document
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.FileName,
		&doc.FileURL,
		&doc.ExtractedText,
		&doc.Status,
		&doc.InsertedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListQuestions returns a document's questions in insertion order.
func (r *PGRepo) ListQuestions(ctx context.Context, documentID string) ([]Question, error) {
	const query = `
SELECT id, text, answer, document_id, inserted_at
FROM questions
WHERE document_id = $1
ORDER BY inserted_at, id`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var answer sql.NullString
		if err := rows.Scan(&q.ID, &q.Text, &answer, &q.DocumentID, &q.InsertedAt); err != nil {
			return nil, err
		}
		if answer.Valid {
			q.Answer = &answer.String
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

var _ DocumentsRepo = (*PGRepo)(nil)
