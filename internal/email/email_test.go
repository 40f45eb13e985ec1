package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueEmail(ctx context.Context, p queue.EmailDeliveryPayload) error {
	return m.Called(ctx, p).Error(0)
}

func newTestMailer(t *testing.T, q emailQueue) *Mailer {
	t.Helper()
	m, err := NewMailer(q,
		config.AppConfig{Name: "PawDesk", URL: "https://app.pawdesk.test/"},
		config.AuthConfig{VerificationExpiry: 24 * time.Hour},
	)
	require.NoError(t, err)
	return m
}

func TestSendVerification(t *testing.T) {
	q := &mockQueue{}
	m := newTestMailer(t, q)

	var sent queue.EmailDeliveryPayload
	q.On("EnqueueEmail", mock.Anything, mock.AnythingOfType("queue.EmailDeliveryPayload")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(queue.EmailDeliveryPayload) }).
		Return(nil).Once()

	require.NoError(t, m.SendVerification(context.Background(), "jane@example.com", "Jane <b>", "tok+en"))
	q.AssertExpectations(t)

	assert.Equal(t, "jane@example.com", sent.To)
	assert.Equal(t, "Verify your PawDesk account", sent.Subject)
	assert.Contains(t, sent.TextBody, "https://app.pawdesk.test/verify-email?token=tok%2Ben")
	assert.Contains(t, sent.TextBody, "24 hours")
	assert.Contains(t, sent.HTMLBody, "Jane &lt;b&gt;")
	assert.NotContains(t, sent.HTMLBody, "Jane <b>")
}

func TestSendVerification_QueueError(t *testing.T) {
	q := &mockQueue{}
	m := newTestMailer(t, q)
	q.On("EnqueueEmail", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	err := m.SendVerification(context.Background(), "jane@example.com", "Jane", "token")
	assert.EqualError(t, err, "redis down")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "3 days", humanDuration(72*time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "90 minutes", humanDuration(90*time.Minute))
	assert.Equal(t, "a short while", humanDuration(0))
}
