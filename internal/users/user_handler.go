package users

import (
	"net/http"

	custom_error "imsystem/pkg/errors"
	"imsystem/pkg/models"
	"imsystem/pkg/roles"
	"imsystem/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UsersHandler struct {
	Repository UserRepository
	logger     *zap.Logger
}

func NewHandler(r UserRepository, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		Repository: r,
		logger:     logger,
	}
}

func (h *UsersHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/users", security.Authorize(roles.Admin), h.RegisterUser)
	router.GET("/users", security.Authorize(roles.Moderator), h.GetUserList)
}

func (h *UsersHandler) RegisterUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role", "details": req.Role.String()})
		return
	}

	if err := CreateUser(c.Request.Context(), h.Repository, req); err != nil {
		if custom_error.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists", "details": err.Error()})
			return
		}
		h.logger.Error("Failed to create user", zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create user",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (h *UsersHandler) GetUserList(c *gin.Context) {
	users, err := h.Repository.GetUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not obtain list of users", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}
