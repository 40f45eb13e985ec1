package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) error {
	return m.Called(ctx, to, subject, textBody, htmlBody).Error(0)
}

func emailTask(t *testing.T, p EmailDeliveryPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(TypeEmailDelivery, raw)
}

func TestHandleEmailDelivery_Sends(t *testing.T) {
	sender := &mockSender{}
	w := &Worker{emailService: sender}

	p := EmailDeliveryPayload{To: "a@example.com", Subject: "Hi", TextBody: "text", HTMLBody: "<p>html</p>"}
	sender.On("SendEmail", mock.Anything, "a@example.com", "Hi", "text", "<p>html</p>").Return(nil).Once()

	require.NoError(t, w.HandleEmailDelivery(context.Background(), emailTask(t, p)))
	sender.AssertExpectations(t)
}

func TestHandleEmailDelivery_BadPayloadSkipsRetry(t *testing.T) {
	w := &Worker{emailService: &mockSender{}}

	err := w.HandleEmailDelivery(context.Background(), asynq.NewTask(TypeEmailDelivery, []byte("{not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = w.HandleEmailDelivery(context.Background(), emailTask(t, EmailDeliveryPayload{Subject: "no recipient"}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleEmailDelivery_SendFailureRetries(t *testing.T) {
	sender := &mockSender{}
	w := &Worker{emailService: sender}
	sender.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("throttled"))

	err := w.HandleEmailDelivery(context.Background(), emailTask(t, EmailDeliveryPayload{To: "a@example.com"}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
