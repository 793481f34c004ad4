package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biostorex/internal/domain/apperr"
	"biostorex/internal/domain/models"
)

func TestAuthorize(t *testing.T) {
	student := &models.User{ID: "u1", Role: models.RoleStudent, IsActive: true}
	keeper := &models.User{ID: "u2", Role: models.RoleStorekeeper, IsActive: true}
	admin := &models.User{ID: "u3", Role: models.RoleAdmin, IsActive: true}

	tests := []struct {
		name string
		user *models.User
		op   Operation
		kind apperr.Kind
	}{
		{name: "student may request", user: student, op: OpRequestItem},
		{name: "student may not add stock", user: student, op: OpAddStock, kind: apperr.KindAuthorization},
		{name: "storekeeper may add stock", user: keeper, op: OpAddStock},
		{name: "storekeeper may not request", user: keeper, op: OpRequestItem, kind: apperr.KindAuthorization},
		{name: "storekeeper may not provision", user: keeper, op: OpProvisionStorekeeper, kind: apperr.KindAuthorization},
		{name: "admin may issue", user: admin, op: OpIssueItem},
		{name: "admin may provision", user: admin, op: OpProvisionStorekeeper},
		{name: "nil user", user: nil, op: OpRequestItem, kind: apperr.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.op)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestAuthorizeInactiveUser(t *testing.T) {
	banned := &models.User{ID: "u4", Role: models.RoleAdmin, IsActive: false}
	err := Authorize(banned, OpListUsers)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := &models.User{ID: "u1", Role: models.RoleStudent}

	access, err := m.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, err := m.IssueRefreshToken(user)
	require.NoError(t, err)

	id, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	id, err = m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	// Tokens are not interchangeable across secrets.
	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)
	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", -time.Minute, time.Hour)
	user := &models.User{ID: "u1", Role: models.RoleStudent}

	access, err := m.IssueAccessToken(user)
	require.NoError(t, err)

	_, err = m.ParseAccessToken(access)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestGarbageTokenRejected(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	_, err := m.ParseAccessToken("not-a-token")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}
