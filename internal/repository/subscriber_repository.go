package repository

import "context"

// SubscriberRepository resolves the push tokens of users subscribed to a
// category. The backing schema has grown organically (several historical
// field names for tokens and subscriptions), so implementations resolve the
// actual shape once at startup and log which fields they settled on.
type SubscriberRepository interface {
	// TokensForCategory returns the de-duplicated push tokens of all profiles
	// subscribed to the given category (already lower-cased by the caller).
	//
	// Resolution failures are deliberately soft: a missing token column or a
	// database error yields an empty slice and a nil error, because subscriber
	// resolution must never abort the ingestion pipeline. The implementation
	// logs the underlying cause.
	TokensForCategory(ctx context.Context, category string) ([]string, error)
}
