package uploads

import "time"

// Status is the lifecycle state of an upload record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Upload is the live processing record clients poll while the pipeline runs.
// DocumentID is set once the produced document has been persisted.
type Upload struct {
	ID          string
	Filename    string
	ContentType string
	StagingPath string
	Status      Status
	Progress    int
	Message     string
	DocumentID  string
	InsertedAt  time.Time
	UpdatedAt   time.Time
}
