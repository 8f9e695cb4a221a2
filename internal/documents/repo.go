package documents

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists for the given ID.
var ErrNotFound = errors.New("document not found")

// DocumentsRepo defines persistence operations for documents and their
// questions.
type DocumentsRepo interface {
	CreateDocument(ctx context.Context, doc Document) error
	// CreateQuestions persists all questions for a document in one batch.
	CreateQuestions(ctx context.Context, questions []Question) error
	GetByID(ctx context.Context, id string) (Document, error)
	// ListQuestions returns a document's questions in insertion order.
	ListQuestions(ctx context.Context, documentID string) ([]Question, error)
}
