package notifier

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"github.com/stretchr/testify/assert"
)

// fakeMessagingClient records every message and fails the tokens listed in
// failTokens.
type fakeMessagingClient struct {
	sent       []*messaging.Message
	failTokens map[string]error
	onSend     func()
}

func (f *fakeMessagingClient) Send(_ context.Context, message *messaging.Message) (string, error) {
	f.sent = append(f.sent, message)
	if f.onSend != nil {
		f.onSend()
	}
	if err, ok := f.failTokens[message.Token]; ok {
		return "", err
	}
	return "projects/test/messages/" + message.Token, nil
}

func testPayload() Payload {
	return Payload{
		Title:    "New business update: RBI cuts rates",
		Body:     "The central bank lowered rates.",
		ImageURL: "https://example.com/thumb.jpg",
		Data:     map[string]string{"id": "42", "category": "business"},
	}
}

func TestSendToTokens_AllSucceed(t *testing.T) {
	client := &fakeMessagingClient{}
	dispatcher := NewDispatcher(client)

	result := dispatcher.SendToTokens(context.Background(),
		[]string{"tok-a", "tok-b", "tok-c"}, testPayload())

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Reason)
	assert.Len(t, client.sent, 3)

	msg := client.sent[0]
	assert.Equal(t, "tok-a", msg.Token)
	assert.Equal(t, "New business update: RBI cuts rates", msg.Notification.Title)
	assert.Equal(t, "42", msg.Data["id"])
	assert.Equal(t, "https://example.com/thumb.jpg", msg.Notification.ImageURL)
}

func TestSendToTokens_FailedTokenDoesNotAbortBatch(t *testing.T) {
	client := &fakeMessagingClient{
		failTokens: map[string]error{"tok-c": errors.New("registration-token-not-registered")},
	}
	dispatcher := NewDispatcher(client)

	tokens := []string{"tok-a", "tok-b", "tok-c", "tok-d", "tok-e"}
	result := dispatcher.SendToTokens(context.Background(), tokens, testPayload())

	assert.True(t, result.Success, "partial delivery still counts as success")
	assert.Equal(t, 4, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, client.sent, 5, "every token must be attempted")
}

func TestSendToTokens_AllFailStillReportsSuccess(t *testing.T) {
	client := &fakeMessagingClient{
		failTokens: map[string]error{
			"tok-a": errors.New("unavailable"),
			"tok-b": errors.New("unavailable"),
			"tok-c": errors.New("unavailable"),
		},
	}
	dispatcher := NewDispatcher(client)

	result := dispatcher.SendToTokens(context.Background(), []string{"tok-a", "tok-b", "tok-c"}, testPayload())

	assert.True(t, result.Success, "a completed loop is a success even when every send failed")
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 3, result.Failed)
}

func TestSendToTokens_EmptyTokenList(t *testing.T) {
	client := &fakeMessagingClient{}
	dispatcher := NewDispatcher(client)

	result := dispatcher.SendToTokens(context.Background(), nil, testPayload())

	assert.True(t, result.Success)
	assert.Equal(t, "no-tokens", result.Reason)
	assert.Empty(t, client.sent)
}

func TestSendToTokens_NilClient(t *testing.T) {
	dispatcher := NewDispatcher(nil)

	result := dispatcher.SendToTokens(context.Background(), []string{"tok-1"}, testPayload())

	assert.False(t, result.Success)
	assert.Equal(t, "not-initialized", result.Reason)
	assert.Zero(t, result.Sent)
}

func TestSendToTokens_CanceledContextStopsLoop(t *testing.T) {
	client := &fakeMessagingClient{}
	// Burst of 1 forces a limiter wait on the second token, which then
	// observes the canceled context.
	dispatcher := NewDispatcherWithLimiter(client, NewRateLimiter(0.001, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.onSend = cancel // cancel as soon as the first send goes through

	result := dispatcher.SendToTokens(ctx, []string{"tok-a", "tok-b", "tok-c"}, testPayload())

	assert.False(t, result.Success, "an aborted loop is not a completed dispatch")
	assert.Equal(t, "canceled", result.Reason)
	assert.Equal(t, 1, result.Sent)
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "dGVzdC10…", tokenPrefix("dGVzdC10b2tlbi12YWx1ZQ"))
	assert.Equal(t, "short", tokenPrefix("short"))
}
