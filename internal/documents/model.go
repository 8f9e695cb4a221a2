package documents

import "time"

// Document is a processed upload: the stored file plus the text the OCR
// stage extracted from it.
type Document struct {
	ID            string
	FileName      string
	FileURL       string
	ExtractedText string
	Status        string
	InsertedAt    time.Time
}

// Question is one extracted or generated question for a document. Answer is
// nil when no answer could be produced from any source.
type Question struct {
	ID         string
	Text       string
	Answer     *string
	DocumentID string
	InsertedAt time.Time
}
