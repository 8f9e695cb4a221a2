package uploads

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of UploadsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Upload
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Upload),
	}
}

// Create stores a new upload record.
func (r *MemoryRepo) Create(ctx context.Context, up Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if up.InsertedAt.IsZero() {
		up.InsertedAt = now
	}
	up.UpdatedAt = now
	r.data[up.ID] = up
	return nil
}

// GetByID returns the upload for id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Upload, error) {
	if err := ctx.Err(); err != nil {
		return Upload{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	up, ok := r.data[id]
	if !ok {
		return Upload{}, ErrNotFound
	}
	return up, nil
}

// Update rewrites the mutable fields of an existing record.
func (r *MemoryRepo) Update(ctx context.Context, up Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[up.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = up.Status
	stored.Progress = up.Progress
	stored.Message = up.Message
	stored.DocumentID = up.DocumentID
	stored.UpdatedAt = time.Now().UTC()
	r.data[up.ID] = stored
	return nil
}

var _ UploadsRepo = (*MemoryRepo)(nil)
