package uploads

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docqa-backend/internal/shared/server/respond"
	"docqa-backend/internal/shared/telemetry"
	"docqa-backend/internal/shared/util"
)

const maxUploadSize = 10 << 20 // 10MB

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".doc":  {},
	".txt":  {},
}

// Handler accepts document uploads and serves upload status queries. Start
// is invoked in a fresh goroutine for each accepted upload; the pipeline
// package supplies it at wiring time.
type Handler struct {
	Repo       UploadsRepo
	StagingDir string
	Start      func(uploadID string)
}

// NewHandler constructs a Handler.
func NewHandler(repo UploadsRepo, stagingDir string, start func(uploadID string)) *Handler {
	return &Handler{Repo: repo, StagingDir: stagingDir, Start: start}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/uploads/:id/status", h.status)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	sanitized, err := util.SanitizeFileName(fileHeader.Filename)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
		return
	}
	ext := strings.ToLower(filepath.Ext(sanitized))
	if _, ok := allowedExtensions[ext]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file type is not supported", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	uploadID := uuid.NewString()
	stagingPath, err := h.stage(uploadID, ext, file)
	if err != nil {
		telemetry.Error("uploads.stage.failed", map[string]any{
			"err":        err.Error(),
			"uploadId":   uploadID,
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store file", nil)
		return
	}

	up := Upload{
		ID:          uploadID,
		Filename:    sanitized,
		ContentType: fileHeader.Header.Get("Content-Type"),
		StagingPath: stagingPath,
		Status:      StatusPending,
		Progress:    0,
	}
	if err := h.Repo.Create(c.Request.Context(), up); err != nil {
		os.Remove(stagingPath)
		telemetry.Error("uploads.create.failed", map[string]any{
			"err":      err.Error(),
			"uploadId": uploadID,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record upload", nil)
		return
	}

	telemetry.Info("uploads.accepted", map[string]any{
		"uploadId": uploadID,
		"filename": sanitized,
	})

	go h.Start(uploadID)

	respond.Accepted(c, gin.H{"uploadId": uploadID})
}

// stage copies the incoming file to the staging directory so the pipeline
// goroutine can read it after this request returns.
func (h *Handler) stage(uploadID, ext string, r io.Reader) (string, error) {
	if err := os.MkdirAll(h.StagingDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.StagingDir, uploadID+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (h *Handler) status(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "upload id is required", nil)
		return
	}

	up, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "upload not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch upload", nil)
		}
		return
	}

	respond.OK(c, toStatusResponse(up))
}
