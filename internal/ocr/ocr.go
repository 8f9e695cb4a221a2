package ocr

import (
	"context"
	"errors"
)

// Client extracts the text content of a stored document. The URL is the
// location returned by the object store.
type Client interface {
	Extract(ctx context.Context, documentURL string) (string, error)
}

// ErrPollingTimeout is returned when a text detection job does not finish
// within the configured attempt budget.
var ErrPollingTimeout = errors.New("text detection polling timed out")

// ErrJobFailed is returned when the provider reports the job as failed.
var ErrJobFailed = errors.New("text detection job failed")
