package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/repository"
)

// SyncHandler serves the two sync endpoints the devices drive: pull hands
// back everything that changed since the client's watermark, push merges the
// device's offline delta with last-write-wins.
type SyncHandler struct {
	syncRepo repository.ServerSyncRepository
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncRepo repository.ServerSyncRepository) *SyncHandler {
	return &SyncHandler{syncRepo: syncRepo}
}

// --- Request/Response Structs ---

type PullRequest struct {
	LastPulledAt int64  `json:"last_pulled_at"`
	SourceID     string `json:"source_id" binding:"required"`
}

type PullResponse struct {
	Changes   domain.ChangeSet `json:"changes"`
	Timestamp int64            `json:"timestamp"`
}

type PushRequest struct {
	Changes      domain.ChangeSet `json:"changes" binding:"required"`
	LastPulledAt int64            `json:"last_pulled_at"`
	SourceID     string           `json:"source_id" binding:"required"`
}

// --- Handler Methods ---

// Pull returns the authenticated user's changes since last_pulled_at.
func (h *SyncHandler) Pull(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req PullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	changes, timestamp, err := h.syncRepo.ChangesSince(c.Request.Context(), userID, req.LastPulledAt, req.SourceID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to collect changes")
		return
	}
	if changes == nil {
		changes = domain.ChangeSet{}
	}

	c.JSON(http.StatusOK, PullResponse{Changes: changes, Timestamp: timestamp})
}

// Push merges the device's offline delta into the server store. The merge is
// idempotent, so a device retrying after a lost ack is harmless.
func (h *SyncHandler) Push(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.syncRepo.ApplyPush(c.Request.Context(), userID, req.SourceID, req.Changes); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to apply changes")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted":  req.Changes.RecordCount(),
		"timestamp": time.Now().UnixMilli(),
	})
}
