package security

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"imsystem/internal/rate_limiter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginHandler struct {
	users       UserFinder
	tokens      *TokenManager
	rateLimiter *rate_limiter.RateLimiter
	logger      *zap.Logger
}

func NewLoginHandler(users UserFinder, tokens *TokenManager, limiter *rate_limiter.RateLimiter, logger *zap.Logger) *LoginHandler {
	return &LoginHandler{
		users:       users,
		tokens:      tokens,
		rateLimiter: limiter,
		logger:      logger,
	}
}

func (l *LoginHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/auth", l.LoginHandler())
}

func (l *LoginHandler) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := rateLimitKey(c)

		if !l.rateLimiter.IsAllowed(clientKey) {
			remaining := l.rateLimiter.GetRemainingRequests(clientKey)
			resetAt := time.Now().Add(l.rateLimiter.Window()).Format(time.RFC3339)
			c.Header("X-RateLimit-Limit", strconv.Itoa(l.rateLimiter.Limit()))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("X-RateLimit-Reset", resetAt)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many login attempts. Try again later.",
				"remaining": remaining,
				"reset_at":  resetAt,
			})
			return
		}

		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		user, err := AuthenticateUser(c.Request.Context(), req.Username, req.Password, l.users)
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		if err != nil {
			l.logger.Error("Unable to authenticate user", zap.String("username", req.Username), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to authenticate", "details": err.Error()})
			return
		}

		token, claims, err := l.tokens.GenerateJWT(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		l.logger.Info("User logged in", zap.String("username", user.Username), zap.String("session_id", claims.SessionID))
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": claims.ExpiresAt.Time.Format(time.RFC3339),
		})
	}
}

// rateLimitKey identifies the caller. Private addresses are shared by many
// clients behind one proxy, so the user agent is added to them.
func rateLimitKey(c *gin.Context) string {
	clientIP := c.GetHeader("X-Forwarded-For")
	if clientIP == "" {
		clientIP = c.GetHeader("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = c.ClientIP()
	}

	if strings.Contains(clientIP, ",") {
		clientIP = strings.Split(clientIP, ",")[0]
	}
	clientIP = strings.TrimSpace(clientIP)

	if isPrivateIP(clientIP) {
		return clientIP + ":" + c.GetHeader("User-Agent")
	}
	return clientIP
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsPrivate() || parsed.IsLoopback() || parsed.IsLinkLocalUnicast()
}
