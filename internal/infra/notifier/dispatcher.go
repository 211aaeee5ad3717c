package notifier

import (
	"context"
	"log/slog"
	"time"

	"firebase.google.com/go/v4/messaging"
)

// perSendTimeout bounds one FCM send so a single wedged request cannot
// stall the whole token loop.
const perSendTimeout = 10 * time.Second

// Payload is the notification content fanned out to every subscriber token.
type Payload struct {
	Title    string
	Body     string
	ImageURL string
	Data     map[string]string
}

// DispatchResult summarizes one fan-out.
type DispatchResult struct {
	// Success means the dispatch loop ran to completion, not that every
	// send succeeded: individual token failures are routine (stale
	// registrations) and are reported through Failed. False only when no
	// dispatch was possible (not-initialized) or the loop was aborted
	// (canceled).
	Success bool
	Sent    int
	Failed  int
	// Reason is set when no sends were attempted (no-tokens,
	// not-initialized, canceled).
	Reason string
}

// Dispatcher fans a notification out to subscriber tokens one send at a
// time. A failed token never aborts the loop: delivery is best-effort per
// subscriber, and FCM rejects individual stale tokens routinely.
type Dispatcher struct {
	client  MessagingClient
	limiter *RateLimiter
}

// NewDispatcher creates a dispatcher over the given messaging client with
// the default send pacing (5 sends/s, burst 10).
func NewDispatcher(client MessagingClient) *Dispatcher {
	return NewDispatcherWithLimiter(client, NewRateLimiter(5.0, 10))
}

// NewDispatcherWithLimiter creates a dispatcher with explicit pacing.
func NewDispatcherWithLimiter(client MessagingClient, limiter *RateLimiter) *Dispatcher {
	return &Dispatcher{client: client, limiter: limiter}
}

// SendToTokens delivers the payload to each token sequentially. Each send
// gets its own timeout and counts as sent or failed independently; the
// returned result reports totals rather than the first error.
func (d *Dispatcher) SendToTokens(ctx context.Context, tokens []string, payload Payload) DispatchResult {
	if d.client == nil {
		slog.Warn("dispatch skipped, messaging client not initialized",
			slog.Int("tokens", len(tokens)))
		return DispatchResult{Reason: "not-initialized"}
	}
	if len(tokens) == 0 {
		return DispatchResult{Success: true, Reason: "no-tokens"}
	}

	result := DispatchResult{}
	start := time.Now()

	for _, token := range tokens {
		if err := d.limiter.Allow(ctx); err != nil {
			slog.Warn("dispatch aborted",
				slog.Int("remaining", len(tokens)-result.Sent-result.Failed),
				slog.Any("error", err))
			result.Reason = "canceled"
			break
		}

		if err := d.sendOne(ctx, token, payload); err != nil {
			result.Failed++
			RecordNotificationSend("failed")
			slog.Warn("fcm send failed",
				slog.String("token_prefix", tokenPrefix(token)),
				slog.Bool("unregistered", messaging.IsRegistrationTokenNotRegistered(err)),
				slog.Any("error", err))
			continue
		}
		result.Sent++
		RecordNotificationSend("sent")
	}

	result.Success = result.Reason != "canceled"
	RecordDispatchDuration(time.Since(start))

	slog.Info("notification fan-out completed",
		slog.Int("tokens", len(tokens)),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(start)))

	return result
}

// sendOne sends the payload to a single token with its own timeout.
func (d *Dispatcher) sendOne(ctx context.Context, token string, payload Payload) error {
	sendCtx, cancel := context.WithTimeout(ctx, perSendTimeout)
	defer cancel()

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title:    payload.Title,
			Body:     payload.Body,
			ImageURL: payload.ImageURL,
		},
		Data: payload.Data,
	}

	_, err := d.client.Send(sendCtx, message)
	return err
}

// tokenPrefix returns a loggable prefix of a push token. Full tokens are
// credentials and stay out of the logs.
func tokenPrefix(token string) string {
	const visible = 8
	if len(token) <= visible {
		return token
	}
	return token[:visible] + "…"
}
