package uploads

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateInsertsPendingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	up := Upload{
		ID:          "upload-1",
		Filename:    "syllabus.pdf",
		ContentType: "application/pdf",
		StagingPath: "/tmp/staging/upload-1.pdf",
		Status:      StatusPending,
	}

	mock.ExpectExec("INSERT INTO uploads").
		WithArgs(
			up.ID,
			up.Filename,
			up.ContentType,
			up.StagingPath,
			string(StatusPending),
			0,
			"",
			nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), up); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMapsNullDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "filename", "content_type", "staging_path", "status", "progress", "message", "document_id", "inserted_at", "updated_at",
	}).AddRow("upload-1", "syllabus.pdf", "application/pdf", "/tmp/x.pdf", "processing", 30, "", nil, now, now)

	mock.ExpectQuery("SELECT id, filename").
		WithArgs("upload-1").
		WillReturnRows(rows)

	up, err := repo.GetByID(context.Background(), "upload-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if up.Status != StatusProcessing || up.Progress != 30 {
		t.Fatalf("unexpected record: %+v", up)
	}
	if up.DocumentID != "" {
		t.Fatalf("expected empty document id, got %q", up.DocumentID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, filename").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateWritesTerminalState(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	up := Upload{
		ID:         "upload-1",
		Status:     StatusCompleted,
		Progress:   100,
		Message:    "Generated 5 questions",
		DocumentID: "doc-1",
	}

	mock.ExpectExec("UPDATE uploads").
		WithArgs(string(StatusCompleted), 100, "Generated 5 questions", sqlmock.AnyArg(), "upload-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), up); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingRowNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE uploads").
		WithArgs(string(StatusFailed), 0, "storing: disk full", nil, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), Upload{
		ID:      "missing",
		Status:  StatusFailed,
		Message: "storing: disk full",
	})
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
