// Package notifier provides the push-notification layer: idempotency
// tracking, the FCM messaging client, and the fan-out dispatcher that sends
// one message per subscriber token.
package notifier

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// defaultSendTTL is how long a dispatched notification suppresses
	// duplicates for the same article.
	defaultSendTTL = 5 * time.Minute

	// defaultMaxEntries bounds the cache; expired entries are pruned once
	// the cache grows past this size.
	defaultMaxEntries = 500
)

// DedupeKey derives the idempotency key for an article notification.
// The article id wins when present, then the title, then a fixed marker.
// The same rule feeds both the send cache and the in-flight guard so the
// two layers can never disagree about what "the same notification" means.
func DedupeKey(category, id, title string) string {
	discriminator := id
	if discriminator == "" {
		discriminator = title
	}
	if discriminator == "" {
		discriminator = "unknown"
	}
	return fmt.Sprintf("%s|%s",
		strings.ToLower(strings.TrimSpace(category)),
		strings.ToLower(strings.TrimSpace(discriminator)))
}

// SendCache remembers recently dispatched notifications so repeated pipeline
// runs, overlapping cron ticks, and manual triggers cannot notify
// subscribers twice about the same article.
//
// The cache is instantiable rather than process-global: each binary builds
// one and hands it to its notify service, which keeps tests isolated.
type SendCache struct {
	mu         sync.Mutex
	entries    map[string]time.Time // key -> time the notification was sent
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewSendCache creates a cache with the default TTL (5 minutes) and size
// bound (500 entries).
func NewSendCache() *SendCache {
	return NewSendCacheWith(defaultSendTTL, defaultMaxEntries)
}

// NewSendCacheWith creates a cache with explicit TTL and size bound.
// Non-positive arguments fall back to the defaults.
func NewSendCacheWith(ttl time.Duration, maxEntries int) *SendCache {
	if ttl <= 0 {
		ttl = defaultSendTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &SendCache{
		entries:    make(map[string]time.Time),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Seen reports whether a notification with this key was dispatched within
// the TTL. An expired entry is removed on the way out.
func (c *SendCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	sentAt, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(sentAt) > c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// MarkSent records that a notification with this key was dispatched.
// When the cache has outgrown its bound, expired entries are pruned first;
// if everything is still fresh the cache simply grows, staleness wins over
// forgetting a recent send.
func (c *SendCache) MarkSent(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.pruneLocked()
	}
	c.entries[key] = c.now()
}

// Len returns the number of cached entries, expired ones included.
func (c *SendCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// pruneLocked drops expired entries. Caller holds the lock.
func (c *SendCache) pruneLocked() {
	cutoff := c.now().Add(-c.ttl)
	for key, sentAt := range c.entries {
		if sentAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}
