package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"turn2law-backend/service"
	"turn2law-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultMaxDatasetSize caps the size of an uploaded dataset
const DefaultMaxDatasetSize = 32 * 1024 * 1024 // 32MB

// DatasetHandler handles HTTP requests for lawyer dataset import and download
type DatasetHandler struct {
	datasets         *service.DatasetService
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(datasets *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		datasets:    datasets,
		maxFileSize: DefaultMaxDatasetSize,
		allowedMimeTypes: map[string]bool{
			"application/json":         true,
			"application/octet-stream": true,
			"text/plain":               true,
		},
	}
}

// Upload handles POST /api/datasets
func (h *DatasetHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": []service.FieldError{{Field: "file", Message: "is required"}},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
			"details": []service.FieldError{{
				Field:   "file",
				Message: fmt.Sprintf("exceeds maximum of %d bytes", h.maxFileSize),
			}},
		})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" && strings.EqualFold(path.Ext(fileHeader.Filename), ".json") {
		mimeType = "application/json"
	}
	if !h.allowedMimeTypes[mimeType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": []service.FieldError{{Field: "file", Message: "must be a JSON file"}},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		zap.L().Error("datasets: failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded dataset"})
		return
	}
	defer file.Close()

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	result, err := h.datasets.Import(c.Request.Context(), name, file)
	if err != nil {
		writeDatasetError(c, err, "Failed to import lawyer dataset")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Download handles GET /api/datasets/*key
func (h *DatasetHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": []service.FieldError{{Field: "key", Message: "is required"}},
		})
		return
	}

	reader, err := h.datasets.Open(c.Request.Context(), key)
	if err != nil {
		writeDatasetError(c, err, "Failed to download lawyer dataset")
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", path.Base(key)))
	c.DataFromReader(http.StatusOK, -1, "application/json", reader, nil)
}

func writeDatasetError(c *gin.Context, err error, message string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "details": ve.Details})
	case eris.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
	default:
		zap.L().Error("datasets: request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
