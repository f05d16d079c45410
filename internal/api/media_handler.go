package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"repwise/repwise-app/internal/storage"
)

// MediaHandler issues presigned URLs so devices move image bytes directly
// against the object store. The plan row only ever carries the resulting URL.
type MediaHandler struct {
	storage storage.FileStorage
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(fileStorage storage.FileStorage) *MediaHandler {
	return &MediaHandler{storage: fileStorage}
}

type CoverUploadRequest struct {
	PlanID      string `json:"planId" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl,omitempty"`
	ViewURL   string `json:"viewUrl,omitempty"`
	ObjectKey string `json:"objectKey"`
}

// RequestCoverUpload returns a presigned PUT URL for a plan cover image.
func (h *MediaHandler) RequestCoverUpload(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req CoverUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	key := storage.CoverImageKey(userID, req.PlanID)
	uploadURL, err := h.storage.GeneratePresignedUploadURL(c.Request.Context(), key, req.ContentType, 0)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, PresignedURLResponse{UploadURL: uploadURL, ObjectKey: key})
}

// GetExerciseMediaURL returns a presigned GET URL for a catalog exercise's
// demonstration media.
func (h *MediaHandler) GetExerciseMediaURL(c *gin.Context) {
	exerciseID := c.Param("exerciseId")
	if exerciseID == "" {
		abortWithError(c, http.StatusBadRequest, "exerciseId is required")
		return
	}

	key := storage.ExerciseMediaKey(exerciseID)
	viewURL, err := h.storage.GeneratePresignedDownloadURL(c.Request.Context(), key, 0)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		return
	}

	c.JSON(http.StatusOK, PresignedURLResponse{ViewURL: viewURL, ObjectKey: key})
}
