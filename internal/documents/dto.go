package documents

import "time"

// QuestionResponse is the outward-facing representation of a question.
// Answer serializes as null when no answer exists.
type QuestionResponse struct {
	QuestionID string  `json:"questionId"`
	Text       string  `json:"text"`
	Answer     *string `json:"answer"`
}

// DocumentResponse is the outward-facing representation of a document and
// its questions.
type DocumentResponse struct {
	DocumentID string             `json:"documentId"`
	FileName   string             `json:"fileName"`
	FileURL    string             `json:"fileUrl"`
	Status     string             `json:"status"`
	InsertedAt time.Time          `json:"insertedAt"`
	Questions  []QuestionResponse `json:"questions"`
}

func toResponse(doc Document, questions []Question) DocumentResponse {
	resp := DocumentResponse{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
		FileURL:    doc.FileURL,
		Status:     doc.Status,
		InsertedAt: doc.InsertedAt,
		Questions:  make([]QuestionResponse, 0, len(questions)),
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, QuestionResponse{
			QuestionID: q.ID,
			Text:       q.Text,
			Answer:     q.Answer,
		})
	}
	return resp
}
