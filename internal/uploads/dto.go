package uploads

import "time"

// StatusResponse is the outward-facing representation of an upload's state.
type StatusResponse struct {
	UploadID    string    `json:"uploadId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Status      Status    `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message"`
	DocumentID  *string   `json:"documentId"`
	InsertedAt  time.Time `json:"insertedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toStatusResponse(up Upload) StatusResponse {
	resp := StatusResponse{
		UploadID:    up.ID,
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Status:      up.Status,
		Progress:    up.Progress,
		Message:     up.Message,
		InsertedAt:  up.InsertedAt,
		UpdatedAt:   up.UpdatedAt,
	}
	if up.DocumentID != "" {
		resp.DocumentID = &up.DocumentID
	}
	return resp
}
