package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"imsystem/pkg/models"
	"imsystem/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestManager(t *testing.T) *TokenManager {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func testUser(t *testing.T, password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: 7, Username: "clerk", PasswordHash: string(hash), Role: roles.User}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	m, err := NewTokenManager("s", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionTTL, m.TTL())
}

func TestGenerateAndParseToken(t *testing.T) {
	m := newTestManager(t)

	token, issued, err := m.GenerateJWT(&models.User{ID: 7, Username: "clerk", Role: roles.Moderator})
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.UserID)
	assert.Equal(t, "moderator", claims.Role)
	assert.Equal(t, "clerk", claims.Username)
	assert.Equal(t, issued.SessionID, claims.SessionID)
	assert.Len(t, claims.SessionID, 36)
}

func TestGenerateJWT_UniqueSessions(t *testing.T) {
	m := newTestManager(t)
	user := &models.User{ID: 1, Username: "a", Role: roles.User}

	_, first, err := m.GenerateJWT(user)
	require.NoError(t, err)
	_, second, err := m.GenerateJWT(user)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestParseToken_Rejects(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.GenerateJWT(&models.User{ID: 1, Role: roles.User})
	require.NoError(t, err)

	other, err := NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestRevoke(t *testing.T) {
	m := newTestManager(t)
	token, claims, err := m.GenerateJWT(&models.User{ID: 1, Role: roles.User})
	require.NoError(t, err)

	m.Revoke(claims.SessionID, claims.ExpiresAt.Time)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.True(t, m.IsRevoked(claims.SessionID))

	now := time.Now()
	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	assert.False(t, m.IsRevoked(claims.SessionID), "revocation lapses with the token")

	m.Revoke("another", time.Time{})
	m.mu.Lock()
	assert.NotContains(t, m.revoked, claims.SessionID, "expired entries are pruned")
	m.mu.Unlock()
}

func TestAuthenticateUser(t *testing.T) {
	user := testUser(t, "secret123")

	tests := []struct {
		name     string
		password string
		found    *models.User
		findErr  error
		wantErr  error
	}{
		{name: "valid", password: "secret123", found: user},
		{name: "wrong password", password: "nope", found: user, wantErr: ErrInvalidCredentials},
		{name: "unknown user", password: "secret123", wantErr: ErrInvalidCredentials},
		{name: "database error", password: "secret123", findErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := new(MockUserFinder)
			finder.On("FindByUsername", mock.Anything, "clerk").Return(tt.found, tt.findErr)

			got, err := AuthenticateUser(context.Background(), "clerk", tt.password, finder)

			switch {
			case tt.findErr != nil:
				assert.ErrorIs(t, err, tt.findErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			default:
				require.NoError(t, err)
				assert.Equal(t, user, got)
			}
			finder.AssertExpectations(t)
		})
	}
}
