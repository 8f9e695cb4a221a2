package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/documents"
	"docqa-backend/internal/llm"
	"docqa-backend/internal/llm/openai"
	"docqa-backend/internal/ocr"
	"docqa-backend/internal/ocr/localocr"
	"docqa-backend/internal/ocr/textract"
	"docqa-backend/internal/pipeline"
	"docqa-backend/internal/qa"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server"
	"docqa-backend/internal/shared/storage/db"
	"docqa-backend/internal/shared/storage/object"
	localstore "docqa-backend/internal/shared/storage/object/local"
	s3store "docqa-backend/internal/shared/storage/object/s3"
	"docqa-backend/internal/uploads"
)

// App holds the wired dependency graph.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Store        object.ObjectStore
	OCR          ocr.Client
	LLM          llm.Client
	Cache        *qa.ResultCache
	Engine       *qa.Engine
	Orchestrator *pipeline.Orchestrator
	UploadsRepo  uploads.UploadsRepo
	DocsRepo     documents.DocumentsRepo
}

// Build wires every component from configuration. Providers are selected
// here and injected by constructor; nothing below this layer reads the
// environment.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ocrClient, err := buildOCR(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	var uploadsRepo uploads.UploadsRepo
	var docsRepo documents.DocumentsRepo
	if sqlDB != nil {
		uploadsRepo = &uploads.PGRepo{DB: sqlDB}
		docsRepo = &documents.PGRepo{DB: sqlDB}
	} else {
		uploadsRepo = uploads.NewMemoryRepo()
		docsRepo = documents.NewMemoryRepo()
	}

	cache := qa.NewResultCache()
	engine := qa.NewEngine(llmClient, cache)
	orchestrator := pipeline.NewOrchestrator(uploadsRepo, docsRepo, store, ocrClient, engine)

	uploadsHandler := uploads.NewHandler(uploadsRepo, cfg.StagingDir, orchestrator.Run)
	documentsHandler := documents.NewHandler(docsRepo)

	app := &App{
		Config:       cfg,
		DB:           sqlDB,
		Store:        store,
		OCR:          ocrClient,
		LLM:          llmClient,
		Cache:        cache,
		Engine:       engine,
		Orchestrator: orchestrator,
		UploadsRepo:  uploadsRepo,
		DocsRepo:     docsRepo,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		UploadsHandler:   uploadsHandler,
		DocumentsHandler: documentsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildOCR(ctx context.Context, cfg config.Config) (ocr.Client, error) {
	switch cfg.OCRProvider {
	case "textract":
		if strings.TrimSpace(cfg.AWSRegion) == "" {
			return nil, fmt.Errorf("OCR_PROVIDER=textract requires AWS_REGION")
		}
		return textract.New(ctx, cfg.AWSRegion, cfg.OCRPollInterval, cfg.OCRMaxAttempts)
	default:
		return localocr.New(), nil
	}
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Printf("bootstrap: no LLM provider configured; using placeholder client")
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.ExtractModel, cfg.GenerateModel)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(client), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
