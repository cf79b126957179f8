package deadletter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturapos/internal/mail"
)

type mockArchive struct{ mock.Mock }

func (m *mockArchive) Store(ctx context.Context, env Envelope) (string, error) {
	args := m.Called(ctx, env)
	return args.String(0), args.Error(1)
}
func (m *mockArchive) Keys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
func (m *mockArchive) Fetch(ctx context.Context, key string) (Envelope, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(Envelope), args.Error(1)
}
func (m *mockArchive) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendMail(e *mail.Email) error {
	return m.Called(e).Error(0)
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope("abc-123", "connection refused", map[string]string{"userName": "ana"})

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "abc-123", env.CognitoSub)
	assert.Equal(t, "connection refused", env.Reason)
	assert.False(t, env.ReceivedAt.IsZero())
	assert.Contains(t, string(env.Event), "ana")
}

func TestReport_ArchivesAndAlerts(t *testing.T) {
	env := NewEnvelope("abc-123", "timeout", nil)

	ar := &mockArchive{}
	ar.On("Store", mock.Anything, env).Return("deadletter/abc-123.json", nil)

	ml := &mockMailer{}
	ml.On("SendMail", mock.MatchedBy(func(e *mail.Email) bool {
		return strings.Contains(e.Subject, "abc-123") &&
			strings.Contains(e.Body, "deadletter/abc-123.json") &&
			e.To[0] == "ops@facturapos.mx"
	})).Return(nil)

	r := NewReporter(ar, ml, "alerts@facturapos.mx", "ops@facturapos.mx")
	r.Report(context.Background(), env)

	ar.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestReport_AlertsEvenWhenArchiveFails(t *testing.T) {
	env := NewEnvelope("abc-123", "timeout", nil)

	ar := &mockArchive{}
	ar.On("Store", mock.Anything, env).Return("", errors.New("access denied"))

	ml := &mockMailer{}
	ml.On("SendMail", mock.MatchedBy(func(e *mail.Email) bool {
		return strings.Contains(e.Body, "(not archived)")
	})).Return(nil)

	r := NewReporter(ar, ml, "alerts@facturapos.mx", "ops@facturapos.mx")
	require.NotPanics(t, func() { r.Report(context.Background(), env) })

	ml.AssertExpectations(t)
}

func TestReport_NilDependenciesAreSafe(t *testing.T) {
	r := NewReporter(nil, nil, "", "")
	require.NotPanics(t, func() {
		r.Report(context.Background(), NewEnvelope("abc-123", "timeout", nil))
	})
}
