package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/asterisk/internal/models"
	"github.com/example/asterisk/pkg/cache"
)

// SnapshotHandler handles the latest-form-snapshot endpoints.
type SnapshotHandler struct {
	snapshots cache.SnapshotCache
	logger    *zap.Logger
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshots cache.SnapshotCache, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots, logger: logger}
}

// GetLatest handles GET /v1/form-snapshots. The body is null until a form is published.
func (h *SnapshotHandler) GetLatest(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshots.Latest())
}

// Publish handles POST /v1/form-snapshots. It overwrites the cached snapshot.
func (h *SnapshotHandler) Publish(c *gin.Context) {
	var snapshot models.FormSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		h.logger.Warn("Invalid form snapshot", zap.Error(err))
		badRequest(c, err)
		return
	}
	if snapshot.Fingerprint.Hash == "" {
		snapshot.Fingerprint = models.ComputeFingerprint(snapshot.Fields)
	}

	h.snapshots.Publish(snapshot)
	h.logger.Info("Received form snapshot",
		zap.String("domain", snapshot.Domain),
		zap.Int("fields", len(snapshot.Fields)),
	)
	c.JSON(http.StatusOK, statusOK)
}
