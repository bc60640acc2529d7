package inventorylog

import (
	"context"
	"net/http"

	"imsystem/internal/inventory/viewer"
	"imsystem/pkg/models"
	"imsystem/pkg/roles"
	"imsystem/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResourceLogReader reads audit entries written for one resource.
type ResourceLogReader interface {
	GetResourceLog(ctx context.Context, id, resourceType string) ([]models.AuditLog, error)
}

// InventoryLog exposes the refresh, export and logout history recorded for
// viewer sessions.
type InventoryLog struct {
	reader ResourceLogReader
	logger *zap.Logger
}

func NewInventoryLog(reader ResourceLogReader, logger *zap.Logger) *InventoryLog {
	return &InventoryLog{reader: reader, logger: logger}
}

func (h *InventoryLog) RegisterRoutes(router gin.IRouter) {
	router.GET("/inventory/sessions/:sessionID/log", security.Authorize(roles.Moderator), h.GetSessionLog)
	router.GET("/inventory/log", security.Authorize(roles.User), h.GetOwnSessionLog)
}

// GetSessionLog returns the history of any session. Moderators only.
func (h *InventoryLog) GetSessionLog(c *gin.Context) {
	h.respond(c, c.Param("sessionID"))
}

// GetOwnSessionLog returns the history of the caller's session.
func (h *InventoryLog) GetOwnSessionLog(c *gin.Context) {
	sessionID, ok := security.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found in token"})
		return
	}
	h.respond(c, sessionID)
}

func (h *InventoryLog) respond(c *gin.Context, sessionID string) {
	entries, err := h.reader.GetResourceLog(c.Request.Context(), sessionID, viewer.ResourceType)
	if err != nil {
		h.logger.Error("Failed to fetch session log", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session log", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}
