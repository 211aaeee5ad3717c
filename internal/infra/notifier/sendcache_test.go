package notifier

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name     string
		category string
		id       string
		title    string
		expected string
	}{
		{"id wins over title", "Business", "42", "RBI cuts rates", "business|42"},
		{"title used when id empty", "Business", "", "RBI Cuts Rates", "business|rbi cuts rates"},
		{"unknown marker when both empty", "Business", "", "", "business|unknown"},
		{"category normalized", "  SPORTS ", "7", "", "sports|7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeKey(tt.category, tt.id, tt.title))
		})
	}
}

func TestSendCache_SeenWithinTTL(t *testing.T) {
	cache := NewSendCache()

	key := DedupeKey("business", "42", "")
	assert.False(t, cache.Seen(key))

	cache.MarkSent(key)
	assert.True(t, cache.Seen(key))

	// Different category, same article id is a different notification.
	assert.False(t, cache.Seen(DedupeKey("sports", "42", "")))
}

func TestSendCache_ExpiresAfterTTL(t *testing.T) {
	cache := NewSendCacheWith(5*time.Minute, 500)

	current := time.Now()
	cache.now = func() time.Time { return current }

	key := DedupeKey("business", "42", "")
	cache.MarkSent(key)
	assert.True(t, cache.Seen(key))

	current = current.Add(5*time.Minute + time.Second)
	assert.False(t, cache.Seen(key))
	assert.Equal(t, 0, cache.Len(), "expired entry should be removed on lookup")
}

func TestSendCache_PrunesExpiredWhenFull(t *testing.T) {
	cache := NewSendCacheWith(5*time.Minute, 10)

	current := time.Now()
	cache.now = func() time.Time { return current }

	for i := 0; i < 10; i++ {
		cache.MarkSent(DedupeKey("business", fmt.Sprintf("%d", i), ""))
	}
	assert.Equal(t, 10, cache.Len())

	// All entries expire; the next insert prunes them.
	current = current.Add(6 * time.Minute)
	cache.MarkSent(DedupeKey("business", "fresh", ""))
	assert.Equal(t, 1, cache.Len())
}

func TestSendCache_KeepsFreshEntriesWhenFull(t *testing.T) {
	cache := NewSendCacheWith(5*time.Minute, 3)

	for i := 0; i < 3; i++ {
		cache.MarkSent(DedupeKey("business", fmt.Sprintf("%d", i), ""))
	}
	cache.MarkSent(DedupeKey("business", "extra", ""))

	// Nothing was stale, so nothing is forgotten.
	assert.Equal(t, 4, cache.Len())
	assert.True(t, cache.Seen(DedupeKey("business", "0", "")))
}

func TestSendCache_ConcurrentAccess(t *testing.T) {
	cache := NewSendCache()
	done := make(chan struct{})

	for worker := 0; worker < 8; worker++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				key := DedupeKey("business", fmt.Sprintf("%d-%d", n, i), "")
				cache.MarkSent(key)
				cache.Seen(key)
			}
		}(worker)
	}
	for worker := 0; worker < 8; worker++ {
		<-done
	}
}
