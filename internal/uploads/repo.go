package uploads

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no upload exists for the given ID.
var ErrNotFound = errors.New("upload not found")

// UploadsRepo defines persistence operations for upload records.
type UploadsRepo interface {
	Create(ctx context.Context, up Upload) error
	GetByID(ctx context.Context, id string) (Upload, error)
	// Update rewrites the mutable fields (status, progress, message,
	// document id) and refreshes updated_at.
	Update(ctx context.Context, up Upload) error
}
