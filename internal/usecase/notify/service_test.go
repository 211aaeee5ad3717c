package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsxpress/internal/domain/entity"
	"newsxpress/internal/infra/notifier"
)

type fakeSubscribers struct {
	tokens []string
	err    error
	calls  []string
}

func (f *fakeSubscribers) TokensForCategory(_ context.Context, category string) ([]string, error) {
	f.calls = append(f.calls, category)
	return f.tokens, f.err
}

type fakeDispatcher struct {
	payloads  []notifier.Payload
	tokens    [][]string
	result    notifier.DispatchResult
	block     chan struct{} // when set, SendToTokens waits on it
	started   chan struct{} // when set, closed once a send begins
	startOnce sync.Once
}

func (f *fakeDispatcher) SendToTokens(_ context.Context, tokens []string, payload notifier.Payload) notifier.DispatchResult {
	f.tokens = append(f.tokens, tokens)
	f.payloads = append(f.payloads, payload)
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
	return f.result
}

func newTestService(subs *fakeSubscribers, disp *fakeDispatcher, baseURL string) *Service {
	return NewService(subs, disp, notifier.NewSendCache(), notifier.NewInFlightGuard(), baseURL)
}

func testArticle() *entity.Article {
	return &entity.Article{
		ID:          42,
		Title:       "RBI cuts repo rate by 25 basis points",
		Summary:     "The central bank lowered the repo rate citing easing inflation.",
		OriginalURL: "https://example.com/rbi",
		ImageURL:    "https://example.com/thumb.jpg",
	}
}

func TestNotifySubscribers_Dispatches(t *testing.T) {
	subs := &fakeSubscribers{tokens: []string{"tok-a", "tok-b"}}
	disp := &fakeDispatcher{result: notifier.DispatchResult{Success: true, Sent: 2}}
	svc := newTestService(subs, disp, "")

	result := svc.NotifySubscribers(context.Background(), testArticle(), "Business")

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Sent)
	assert.False(t, result.Skipped)

	require.Len(t, disp.payloads, 1)
	payload := disp.payloads[0]
	assert.Equal(t, "New business update: RBI cuts repo rate by 25 basis points", payload.Title)
	assert.Equal(t, "The central bank lowered the repo rate citing easing inflation.", payload.Body)
	assert.Equal(t, "42", payload.Data["id"])
	assert.Equal(t, "business", payload.Data["category"])
	assert.Equal(t, "https://example.com/rbi", payload.Data["url"])
	assert.Equal(t, []string{"tok-a", "tok-b"}, disp.tokens[0])
	assert.Equal(t, []string{"business"}, subs.calls, "category must be normalized before lookup")
}

func TestNotifySubscribers_TruncatesLongTitle(t *testing.T) {
	subs := &fakeSubscribers{tokens: []string{"tok-a"}}
	disp := &fakeDispatcher{result: notifier.DispatchResult{Success: true, Sent: 1}}
	svc := newTestService(subs, disp, "")

	article := testArticle()
	article.Title = strings.Repeat("x", 120)
	svc.NotifySubscribers(context.Background(), article, "business")

	require.Len(t, disp.payloads, 1)
	assert.Equal(t, "New business update: "+strings.Repeat("x", 60), disp.payloads[0].Title)
}

func TestNotifySubscribers_DuplicateSuppressed(t *testing.T) {
	subs := &fakeSubscribers{tokens: []string{"tok-a"}}
	disp := &fakeDispatcher{result: notifier.DispatchResult{Success: true, Sent: 1}}
	svc := newTestService(subs, disp, "")

	first := svc.NotifySubscribers(context.Background(), testArticle(), "business")
	second := svc.NotifySubscribers(context.Background(), testArticle(), "Business")

	assert.False(t, first.Skipped)
	assert.True(t, second.Skipped)
	assert.Equal(t, "duplicate", second.Reason)
	assert.Len(t, disp.payloads, 1, "second call must not dispatch")
}

func TestNotifySubscribers_DifferentCategoriesNotDuplicates(t *testing.T) {
	subs := &fakeSubscribers{tokens: []string{"tok-a"}}
	disp := &fakeDispatcher{result: notifier.DispatchResult{Success: true, Sent: 1}}
	svc := newTestService(subs, disp, "")

	svc.NotifySubscribers(context.Background(), testArticle(), "business")
	result := svc.NotifySubscribers(context.Background(), testArticle(), "sports")

	assert.False(t, result.Skipped)
	assert.Len(t, disp.payloads, 2)
}

func TestNotifySubscribers_NoTokens(t *testing.T) {
	subs := &fakeSubscribers{tokens: nil}
	disp := &fakeDispatcher{}
	svc := newTestService(subs, disp, "")

	result := svc.NotifySubscribers(context.Background(), testArticle(), "business")

	assert.True(t, result.Success)
	assert.True(t, result.Skipped)
	assert.Equal(t, "no_tokens", result.Reason)
	assert.Empty(t, disp.payloads)

	// A no-subscriber skip must not poison the cache: once tokens appear
	// the notification still goes out.
	subs.tokens = []string{"tok-a"}
	disp.result = notifier.DispatchResult{Success: true, Sent: 1}
	retry := svc.NotifySubscribers(context.Background(), testArticle(), "business")
	assert.False(t, retry.Skipped)
}

func TestNotifySubscribers_SubscriberErrorIsSoft(t *testing.T) {
	subs := &fakeSubscribers{err: errors.New("db down")}
	disp := &fakeDispatcher{}
	svc := newTestService(subs, disp, "")

	result := svc.NotifySubscribers(context.Background(), testArticle(), "business")

	assert.True(t, result.Skipped)
	assert.Equal(t, "no_tokens", result.Reason)
}

func TestNotifySubscribers_InFlightSuppressed(t *testing.T) {
	subs := &fakeSubscribers{tokens: []string{"tok-a"}}
	disp := &fakeDispatcher{
		result:  notifier.DispatchResult{Success: true, Sent: 1},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := newTestService(subs, disp, "")

	firstDone := make(chan Result)
	go func() {
		firstDone <- svc.NotifySubscribers(context.Background(), testArticle(), "business")
	}()

	// Wait for the first dispatch to be in flight.
	<-disp.started

	second := svc.NotifySubscribers(context.Background(), testArticle(), "business")
	assert.True(t, second.Skipped)
	assert.Equal(t, "in_flight", second.Reason)

	close(disp.block)
	first := <-firstDone
	assert.False(t, first.Skipped)
}

func TestNotifySubscribers_PartialFailureReported(t *testing.T) {
	subs := &fakeSubscribers{tokens: []string{"a", "b", "c", "d", "e"}}
	disp := &fakeDispatcher{result: notifier.DispatchResult{Success: true, Sent: 4, Failed: 1}}
	svc := newTestService(subs, disp, "")

	result := svc.NotifySubscribers(context.Background(), testArticle(), "business")

	assert.True(t, result.Success)
	assert.Equal(t, 4, result.Sent)
	assert.Equal(t, 1, result.Failed)
}

func TestAbsoluteImageURL(t *testing.T) {
	svc := newTestService(&fakeSubscribers{}, &fakeDispatcher{}, "https://cdn.example.com/")

	assert.Equal(t, "https://example.com/a.jpg", svc.absoluteImageURL("https://example.com/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/img/a.jpg", svc.absoluteImageURL("/img/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/img/a.jpg", svc.absoluteImageURL("img/a.jpg"))
	assert.Equal(t, "", svc.absoluteImageURL(""))

	bare := newTestService(&fakeSubscribers{}, &fakeDispatcher{}, "")
	assert.Equal(t, "", bare.absoluteImageURL("/img/a.jpg"), "relative path without base URL is dropped")
}
