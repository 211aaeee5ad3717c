// Package notify implements the push-notification use case: given a freshly
// saved article, decide whether subscribers should hear about it and fan the
// notification out to their device tokens exactly once.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/infra/notifier"
	"newsxpress/internal/repository"
	"newsxpress/internal/utils/text"
)

const (
	// titleRuneLimit caps the article title inside the notification title.
	titleRuneLimit = 60

	// bodyWordLimit caps the summary inside the notification body.
	bodyWordLimit = 100
)

// TokenDispatcher abstracts the FCM fan-out for testing.
type TokenDispatcher interface {
	SendToTokens(ctx context.Context, tokens []string, payload notifier.Payload) notifier.DispatchResult
}

// Result reports what happened to one notification request.
type Result struct {
	// Success is true when the dispatch loop completed (individual token
	// failures are counted in Failed, not here), or when there was
	// legitimately nothing to do.
	Success bool
	Sent    int
	Failed  int
	// Skipped is true when no dispatch was attempted; Reason says why
	// (duplicate, in_flight, no_tokens).
	Skipped bool
	Reason  string
}

// Service sends category-scoped article notifications. It owns the
// idempotency decisions: the send cache suppresses repeats of a recently
// dispatched notification and the in-flight guard suppresses concurrent
// duplicates of one still being dispatched.
type Service struct {
	subscribers repository.SubscriberRepository
	dispatcher  TokenDispatcher
	cache       *notifier.SendCache
	guard       *notifier.InFlightGuard
	baseURL     string
}

// NewService creates a notify service. baseURL, when non-empty, is used to
// absolutize relative article image paths (PUBLIC_BASE_URL).
func NewService(
	subscribers repository.SubscriberRepository,
	dispatcher TokenDispatcher,
	cache *notifier.SendCache,
	guard *notifier.InFlightGuard,
	baseURL string,
) *Service {
	return &Service{
		subscribers: subscribers,
		dispatcher:  dispatcher,
		cache:       cache,
		guard:       guard,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// NotifySubscribers sends one article notification to every subscriber of
// the category. Failures are soft throughout: a notification that cannot be
// sent is logged and skipped, never an error that would fail the pipeline.
func (s *Service) NotifySubscribers(ctx context.Context, article *entity.Article, category string) Result {
	category = entity.NormalizeCategory(category)
	key := notifier.DedupeKey(category, articleID(article), article.Title)

	if s.cache.Seen(key) {
		notifier.RecordNotificationSkip("duplicate")
		slog.Info("notification suppressed, already sent recently",
			slog.String("key", key))
		return Result{Success: true, Skipped: true, Reason: "duplicate"}
	}

	if !s.guard.TryAcquire(key) {
		notifier.RecordNotificationSkip("in_flight")
		slog.Info("notification suppressed, dispatch already in flight",
			slog.String("key", key))
		return Result{Success: true, Skipped: true, Reason: "in_flight"}
	}
	defer s.guard.Release(key)

	tokens, err := s.subscribers.TokensForCategory(ctx, category)
	if err != nil || len(tokens) == 0 {
		notifier.RecordNotificationSkip("no_tokens")
		slog.Info("no subscribers for category, nothing to send",
			slog.String("category", category),
			slog.String("key", key))
		return Result{Success: true, Skipped: true, Reason: "no_tokens"}
	}

	payload := s.buildPayload(article, category)
	dispatched := s.dispatcher.SendToTokens(ctx, tokens, payload)

	// A dispatch attempt, even a partial one, counts as sent for
	// idempotency purposes: retrying would double-notify the subscribers
	// that did receive it.
	s.cache.MarkSent(key)

	slog.Info("article notification dispatched",
		slog.String("category", category),
		slog.String("key", key),
		slog.Int("subscribers", len(tokens)),
		slog.Int("sent", dispatched.Sent),
		slog.Int("failed", dispatched.Failed))

	return Result{
		Success: dispatched.Success,
		Sent:    dispatched.Sent,
		Failed:  dispatched.Failed,
		Reason:  dispatched.Reason,
	}
}

// buildPayload assembles the notification content for one article.
func (s *Service) buildPayload(article *entity.Article, category string) notifier.Payload {
	title := fmt.Sprintf("New %s update: %s",
		category, text.TruncateRunes(article.Title, titleRuneLimit))
	body := text.LimitWords(article.Summary, bodyWordLimit)
	image := s.absoluteImageURL(article.ImageURL)

	data := map[string]string{
		"id":       articleID(article),
		"category": category,
		"url":      article.OriginalURL,
		"summary":  body,
	}
	if image != "" {
		data["image"] = image
	}

	return notifier.Payload{
		Title:    title,
		Body:     body,
		ImageURL: image,
		Data:     data,
	}
}

// absoluteImageURL resolves a relative image path against the public base
// URL. FCM drops notification images it cannot fetch, so a relative path
// without a configured base is omitted entirely.
func (s *Service) absoluteImageURL(imageURL string) string {
	if imageURL == "" || strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return imageURL
	}
	if s.baseURL == "" {
		return ""
	}
	if !strings.HasPrefix(imageURL, "/") {
		imageURL = "/" + imageURL
	}
	return s.baseURL + imageURL
}

func articleID(article *entity.Article) string {
	if article.ID == 0 {
		return ""
	}
	return strconv.FormatInt(article.ID, 10)
}
