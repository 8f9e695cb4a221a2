package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"docqa-backend/internal/documents"
	"docqa-backend/internal/llm"
	"docqa-backend/internal/ocr"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/uploads"
)

// Stage names embedded in failure messages and telemetry.
const (
	stageStoring    = "storing"
	stageExtracting = "extracting_text"
	stageAnalyzing  = "analyzing"
	stageGenerating = "generating_questions"
)

// Extractor produces QA pairs from document text.
type Extractor interface {
	ExtractQuestionsAndAnswers(ctx context.Context, documentText string) ([]llm.QAPair, error)
}

// Orchestrator drives one upload through storage, text extraction, question
// extraction and persistence, writing the upload record after every phase.
// Each upload runs in its own goroutine; a failure or panic in one run never
// touches another.
type Orchestrator struct {
	Uploads   uploads.UploadsRepo
	Documents documents.DocumentsRepo
	Store     object.ObjectStore
	OCR       ocr.Client
	QA        Extractor
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(uploadsRepo uploads.UploadsRepo, documentsRepo documents.DocumentsRepo, store object.ObjectStore, ocrClient ocr.Client, extractor Extractor) *Orchestrator {
	return &Orchestrator{
		Uploads:   uploadsRepo,
		Documents: documentsRepo,
		Store:     store,
		OCR:       ocrClient,
		QA:        extractor,
	}
}

// Run executes the pipeline for uploadID. It never returns an error; every
// failure path ends in a terminal failed status on the upload record.
func (o *Orchestrator) Run(uploadID string) {
	ctx := context.Background()

	up, err := o.Uploads.GetByID(ctx, uploadID)
	if err != nil {
		telemetry.Error("pipeline.load_failed", map[string]any{
			"uploadId": uploadID,
			"err":      err.Error(),
		})
		return
	}
	if up.Status.Terminal() {
		telemetry.Warn("pipeline.already_terminal", map[string]any{
			"uploadId": uploadID,
			"status":   string(up.Status),
		})
		return
	}

	stage := stageStoring
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("pipeline.panic", map[string]any{
				"uploadId": uploadID,
				"stage":    stage,
				"panic":    fmt.Sprint(r),
			})
			o.fail(ctx, up, stage, fmt.Errorf("unexpected fault: %v", r))
		}
	}()

	metrics.IncPipelineStarted()
	start := time.Now()
	telemetry.Info("pipeline.started", map[string]any{
		"uploadId": uploadID,
		"filename": up.Filename,
	})

	o.advance(ctx, &up, 10, stageStoring)
	stored, err := o.Store.Upload(ctx, up.StagingPath, up.Filename)
	if err != nil {
		o.fail(ctx, up, stageStoring, err)
		return
	}

	stage = stageExtracting
	o.advance(ctx, &up, 30, stageExtracting)
	text, err := o.OCR.Extract(ctx, stored.URL)
	if err != nil {
		o.fail(ctx, up, stageExtracting, err)
		return
	}

	stage = stageAnalyzing
	o.advance(ctx, &up, 60, stageAnalyzing)
	pairs, err := o.QA.ExtractQuestionsAndAnswers(ctx, text)
	if err != nil {
		o.fail(ctx, up, stageAnalyzing, err)
		return
	}

	stage = stageGenerating
	o.advance(ctx, &up, 75, stageGenerating)
	doc := documents.Document{
		ID:            uuid.NewString(),
		FileName:      up.Filename,
		FileURL:       stored.URL,
		ExtractedText: text,
		Status:        "completed",
	}
	if err := o.Documents.CreateDocument(ctx, doc); err != nil {
		o.fail(ctx, up, stageGenerating, err)
		return
	}
	if err := o.Documents.CreateQuestions(ctx, toQuestions(doc.ID, pairs)); err != nil {
		o.fail(ctx, up, stageGenerating, err)
		return
	}

	up.Status = uploads.StatusCompleted
	up.Progress = 100
	up.Message = fmt.Sprintf("Generated %d questions", len(pairs))
	up.DocumentID = doc.ID
	if err := o.Uploads.Update(ctx, up); err != nil {
		telemetry.Error("pipeline.finalize_failed", map[string]any{
			"uploadId": uploadID,
			"err":      err.Error(),
		})
		return
	}

	if up.StagingPath != "" {
		os.Remove(up.StagingPath)
	}

	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDurationMs(float64(time.Since(start).Milliseconds()))
	metrics.ObserveQuestionsGenerated(len(pairs))
	telemetry.Info("pipeline.completed", map[string]any{
		"uploadId":   uploadID,
		"documentId": doc.ID,
		"questions":  len(pairs),
		"durationMs": time.Since(start).Milliseconds(),
	})
}

// advance moves the record to the next processing sub-phase.
func (o *Orchestrator) advance(ctx context.Context, up *uploads.Upload, progress int, stage string) {
	up.Status = uploads.StatusProcessing
	up.Progress = progress
	up.Message = stage
	if err := o.Uploads.Update(ctx, *up); err != nil {
		telemetry.Warn("pipeline.progress_update_failed", map[string]any{
			"uploadId": up.ID,
			"stage":    stage,
			"err":      err.Error(),
		})
	}
	telemetry.Info("pipeline.stage", map[string]any{
		"uploadId": up.ID,
		"stage":    stage,
		"progress": progress,
	})
}

// fail writes the terminal failed state with the stage name and error
// detail in the message.
func (o *Orchestrator) fail(ctx context.Context, up uploads.Upload, stage string, cause error) {
	metrics.IncPipelineFailed()
	telemetry.Error("pipeline.failed", map[string]any{
		"uploadId": up.ID,
		"stage":    stage,
		"err":      cause.Error(),
	})

	up.Status = uploads.StatusFailed
	up.Progress = 0
	up.Message = fmt.Sprintf("%s: %s", stage, cause.Error())
	if err := o.Uploads.Update(ctx, up); err != nil {
		telemetry.Error("pipeline.fail_update_failed", map[string]any{
			"uploadId": up.ID,
			"err":      err.Error(),
		})
	}
}

func toQuestions(documentID string, pairs []llm.QAPair) []documents.Question {
	out := make([]documents.Question, 0, len(pairs))
	for _, pair := range pairs {
		q := documents.Question{
			ID:         uuid.NewString(),
			Text:       pair.Question,
			DocumentID: documentID,
		}
		if pair.HasAnswer() {
			answer := pair.Answer
			q.Answer = &answer
		}
		out = append(out, q)
	}
	return out
}
