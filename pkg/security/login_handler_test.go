package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imsystem/internal/rate_limiter"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLoginRouter(t *testing.T, finder UserFinder, limit int) (*gin.Engine, *TokenManager) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	limiter := rate_limiter.NewRateLimiter(limit, time.Minute)
	t.Cleanup(limiter.Stop)

	router := gin.New()
	NewLoginHandler(finder, m, limiter, zap.NewNop()).RegisterRoutes(router)
	return router, m
}

func postLogin(router *gin.Engine, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginHandler(t *testing.T) {
	user := testUser(t, "secret123")

	tests := []struct {
		name           string
		body           any
		setupMock      func(*MockUserFinder)
		expectedStatus int
	}{
		{
			name: "successful login",
			body: map[string]string{"username": "clerk", "password": "secret123"},
			setupMock: func(f *MockUserFinder) {
				f.On("FindByUsername", mock.Anything, "clerk").Return(user, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "wrong password",
			body: map[string]string{"username": "clerk", "password": "wrong"},
			setupMock: func(f *MockUserFinder) {
				f.On("FindByUsername", mock.Anything, "clerk").Return(user, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "repository error",
			body: map[string]string{"username": "clerk", "password": "secret123"},
			setupMock: func(f *MockUserFinder) {
				f.On("FindByUsername", mock.Anything, "clerk").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "missing password",
			body:           map[string]string{"username": "clerk"},
			setupMock:      func(*MockUserFinder) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := new(MockUserFinder)
			tt.setupMock(finder)
			router, m := setupLoginRouter(t, finder, 10)

			w := postLogin(router, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				claims, err := m.ParseToken(resp["token"])
				require.NoError(t, err)
				assert.Equal(t, "clerk", claims.Username)
			}
			finder.AssertExpectations(t)
		})
	}
}

func TestLoginHandler_RateLimited(t *testing.T) {
	finder := new(MockUserFinder)
	finder.On("FindByUsername", mock.Anything, "clerk").Return(nil, nil)
	router, _ := setupLoginRouter(t, finder, 2)

	body := map[string]string{"username": "clerk", "password": "x"}
	assert.Equal(t, http.StatusUnauthorized, postLogin(router, body).Code)
	assert.Equal(t, http.StatusUnauthorized, postLogin(router, body).Code)

	w := postLogin(router, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, isPrivateIP("10.1.2.3"))
	assert.True(t, isPrivateIP("192.168.0.10"))
	assert.True(t, isPrivateIP("127.0.0.1"))
	assert.True(t, isPrivateIP("::1"))
	assert.False(t, isPrivateIP("203.0.113.9"))
	assert.False(t, isPrivateIP("not-an-ip"))
}
