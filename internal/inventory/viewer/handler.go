package viewer

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"imsystem/internal/inventory/grid"
	"imsystem/pkg/roles"
	"imsystem/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionRevoker interface {
	Revoke(sessionID string, expiresAt time.Time)
}

type InventoryHandler struct {
	service *Service
	revoker SessionRevoker
	logger  *zap.Logger
}

func NewInventoryHandler(service *Service, revoker SessionRevoker, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		revoker: revoker,
		logger:  logger,
	}
}

// RegisterRoutes expects a group that already runs the JWT middleware.
func (h *InventoryHandler) RegisterRoutes(router gin.IRouter) {
	inventory := router.Group("/inventory", security.Authorize(roles.User))
	inventory.GET("", h.GetView)
	inventory.GET("/departments", h.GetDepartments)
	inventory.PUT("/filter", h.SetFilter)
	inventory.POST("/sort/:column", h.ToggleSort)
	inventory.POST("/page/prev", h.PrevPage)
	inventory.POST("/page/next", h.NextPage)
	inventory.PUT("/page/:index", h.GoToPage)
	inventory.POST("/refresh", h.Refresh)
	inventory.GET("/export", h.Export)

	router.POST("/auth/logout", h.Logout)
}

func (h *InventoryHandler) GetView(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.View(actor.SessionID))
}

func (h *InventoryHandler) GetDepartments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"departments": h.service.Departments()})
}

func (h *InventoryHandler) SetFilter(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.service.SetFilter(actor.SessionID, req))
}

func (h *InventoryHandler) ToggleSort(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	view, err := h.service.ToggleSort(actor.SessionID, c.Param("column"))
	if errors.Is(err, grid.ErrUnknownColumn) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown column", "details": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to sort", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *InventoryHandler) PrevPage(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.PrevPage(actor.SessionID))
}

func (h *InventoryHandler) NextPage(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.NextPage(actor.SessionID))
}

func (h *InventoryHandler) GoToPage(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page index", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.service.GoToPage(actor.SessionID, index))
}

// Refresh always answers 200; a failed fetch shows up in status.last_error.
func (h *InventoryHandler) Refresh(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	view, _ := h.service.Refresh(c.Request.Context(), actor)
	c.JSON(http.StatusOK, view)
}

func (h *InventoryHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	report, err := h.service.Export(actor)
	if err != nil {
		h.logger.Error("Unable to export inventory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to export inventory", "details": err.Error()})
		return
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, XLSXContentType, report)
}

// Logout resets the caller's grid state and revokes the session token.
func (h *InventoryHandler) Logout(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	message := h.service.Logout(actor)

	var expiresAt time.Time
	if claims, ok := security.GetClaims(c); ok && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	h.revoker.Revoke(actor.SessionID, expiresAt)

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func actorFromContext(c *gin.Context) (Actor, bool) {
	sessionID, ok := security.GetSessionID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session missing from token"})
		return Actor{}, false
	}
	userID, _ := security.GetUserIDFromToken(c)

	return Actor{
		SessionID: sessionID,
		UserID:    userID,
		Username:  c.GetString(security.ContextUsername),
	}, true
}
