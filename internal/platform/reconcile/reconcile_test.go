package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturapos/internal/database"
	"facturapos/internal/platform/user"
)

type mockPool struct{ mock.Mock }

func (m *mockPool) Users(ctx context.Context) ([]PoolUser, error) {
	args := m.Called(ctx)
	return args.Get(0).([]PoolUser), args.Error(1)
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) GetByCognitoSub(ctx context.Context, sub string) (*database.User, error) {
	args := m.Called(ctx, sub)
	if u, _ := args.Get(0).(*database.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDirectory) SyncSignup(ctx context.Context, signup user.Signup) (user.SyncAction, error) {
	args := m.Called(ctx, signup)
	return args.Get(0).(user.SyncAction), args.Error(1)
}

func poolUsers() []PoolUser {
	return []PoolUser{
		{Sub: "abc-123", Email: "owner@example.com", RestaurantName: "El Patio"},
		{Sub: "def-456", Email: "chef@example.com"},
	}
}

func TestAudit_ReportsMissingUsers(t *testing.T) {
	pool := &mockPool{}
	pool.On("Users", mock.Anything).Return(poolUsers(), nil)

	dir := &mockDirectory{}
	dir.On("GetByCognitoSub", mock.Anything, "abc-123").Return(&database.User{CognitoSub: "abc-123"}, nil)
	dir.On("GetByCognitoSub", mock.Anything, "def-456").Return(nil, user.ErrNotFound)

	report, err := NewAuditor(pool, dir).Audit(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 2, report.PoolUsers)
	assert.Equal(t, []string{"def-456"}, report.Missing)
	assert.Zero(t, report.Backfilled)
	dir.AssertNotCalled(t, "SyncSignup", mock.Anything, mock.Anything)
}

func TestAudit_BackfillsThroughSyncPath(t *testing.T) {
	pool := &mockPool{}
	pool.On("Users", mock.Anything).Return(poolUsers(), nil)

	dir := &mockDirectory{}
	dir.On("GetByCognitoSub", mock.Anything, "abc-123").Return(&database.User{CognitoSub: "abc-123"}, nil)
	dir.On("GetByCognitoSub", mock.Anything, "def-456").Return(nil, user.ErrNotFound)
	dir.On("SyncSignup", mock.Anything, user.Signup{
		CognitoSub: "def-456",
		Email:      "chef@example.com",
	}).Return(user.ActionCreated, nil)

	report, err := NewAuditor(pool, dir).Audit(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Backfilled)
	dir.AssertExpectations(t)
}

func TestAudit_PoolErrorPropagates(t *testing.T) {
	pool := &mockPool{}
	pool.On("Users", mock.Anything).Return([]PoolUser(nil), errors.New("access denied"))

	_, err := NewAuditor(pool, &mockDirectory{}).Audit(context.Background(), false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
