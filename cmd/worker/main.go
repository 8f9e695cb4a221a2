package main

// Process one local file through the full pipeline without the HTTP layer:
//   go run ./cmd/worker path/to/document.pdf

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/uploads"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: worker <file>")
	}
	path, err := filepath.Abs(flag.Arg(0))
	if err != nil {
		log.Fatalf("resolve path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		log.Fatalf("stat file: %v", err)
	}

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	ctx := context.Background()
	id := uuid.NewString()

	// The pipeline removes its staging file after a successful run, so hand
	// it a copy rather than the caller's file.
	staged, err := stageCopy(cfg.StagingDir, id, path)
	if err != nil {
		log.Fatalf("stage file: %v", err)
	}

	up := uploads.Upload{
		ID:          id,
		Filename:    filepath.Base(path),
		StagingPath: staged,
		Status:      uploads.StatusPending,
	}
	if err := app.UploadsRepo.Create(ctx, up); err != nil {
		log.Fatalf("create upload: %v", err)
	}

	app.Orchestrator.Run(up.ID)

	final, err := app.UploadsRepo.GetByID(ctx, up.ID)
	if err != nil {
		log.Fatalf("load upload: %v", err)
	}
	fmt.Printf("status: %s\nprogress: %d\nmessage: %s\n", final.Status, final.Progress, final.Message)
	if final.Status != uploads.StatusCompleted {
		os.Exit(1)
	}

	questions, err := app.DocsRepo.ListQuestions(ctx, final.DocumentID)
	if err != nil {
		log.Fatalf("list questions: %v", err)
	}
	for i, q := range questions {
		answer := "(no answer)"
		if q.Answer != nil {
			answer = *q.Answer
		}
		fmt.Printf("%d. %s\n   %s\n", i+1, q.Text, answer)
	}
}

func stageCopy(stagingDir, id, src string) (string, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(stagingDir, id+filepath.Ext(src))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
