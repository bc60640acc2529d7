package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"imsystem/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSessionTTL = 24 * time.Hour

	ContextUserID    = "userID"
	ContextRole      = "role"
	ContextUsername  = "username"
	ContextSessionID = "sessionID"
)

var (
	ErrMissingSecret      = errors.New("jwt secret is required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionRevoked     = errors.New("session has been logged out")
)

// Claims identify one login. SessionID keys the caller's grid state.
type Claims struct {
	UserID    string `json:"userID"`
	Role      string `json:"role"`
	Username  string `json:"username"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenManager signs and verifies session tokens and remembers which
// sessions have logged out until their tokens expire.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

func AuthenticateUser(ctx context.Context, username, password string, users UserFinder) (*models.User, error) {
	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GenerateJWT issues a token for a new session and returns its claims.
func (m *TokenManager) GenerateJWT(user *models.User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID:    strconv.Itoa(user.ID),
		Role:      user.Role.String(),
		Username:  user.Username,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (m *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	if m.IsRevoked(claims.SessionID) {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// Revoke rejects further use of the session until expiresAt.
func (m *TokenManager) Revoke(sessionID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for sid, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, sid)
		}
	}
	if expiresAt.IsZero() {
		expiresAt = now.Add(m.ttl)
	}
	m.revoked[sessionID] = expiresAt
}

func (m *TokenManager) IsRevoked(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.revoked[sessionID]
	return ok && exp.After(m.now())
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func GetUserIDFromToken(c *gin.Context) (string, error) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return "", fmt.Errorf("userID not present in context")
	}
	s, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("userID is not a string")
	}
	return s, nil
}

func GetSessionID(c *gin.Context) (string, bool) {
	sid := c.GetString(ContextSessionID)
	return sid, sid != ""
}

// GetClaims returns the claims stored by JWTMiddleware.
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get("claims")
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
