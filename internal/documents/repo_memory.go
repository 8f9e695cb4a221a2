package documents

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu        sync.RWMutex
	docs      map[string]Document
	questions map[string][]Question // documentID -> questions
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:      make(map[string]Document),
		questions: make(map[string][]Question),
	}
}

// CreateDocument stores a document.
func (r *MemoryRepo) CreateDocument(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.InsertedAt.IsZero() {
		doc.InsertedAt = time.Now().UTC()
	}
	r.docs[doc.ID] = doc
	return nil
}

// CreateQuestions appends questions in the given order.
func (r *MemoryRepo) CreateQuestions(ctx context.Context, questions []Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, q := range questions {
		if q.InsertedAt.IsZero() {
			q.InsertedAt = now
		}
		r.questions[q.DocumentID] = append(r.questions[q.DocumentID], q)
	}
	return nil
}

// GetByID returns the document for id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListQuestions returns a document's questions in insertion order.
func (r *MemoryRepo) ListQuestions(ctx context.Context, documentID string) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.questions[documentID]
	out := make([]Question, len(stored))
	copy(out, stored)
	return out, nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
