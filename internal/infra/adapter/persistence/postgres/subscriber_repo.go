package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"newsxpress/internal/repository"

	"github.com/lib/pq"
)

// Historical schema shapes. The profiles table has carried push tokens and
// category subscriptions under several names over time; the resolver probes
// information_schema once and settles on the first match in priority order.
var (
	tokenFieldCandidates        = []string{"fcm_token", "fcm_tokens", "device_token", "device_tokens"}
	subscriptionFieldCandidates = []string{"categories", "topics", "actor", "subscriptions", "device_topics"}
)

// schemaShape is the resolved layout of subscriber data.
type schemaShape struct {
	hasDeviceTokenTable bool   // dedicated device_tokens(token, category) table
	tokenField          string // token column on profiles, "" when absent
	tokenIsArray        bool
	subscriptionField   string // subscription column on profiles, "" when absent
	subscriptionIsArray bool
}

// SubscriberRepo resolves push tokens for category subscribers from the
// profile store. Schema shape is detected once per process, not per call.
type SubscriberRepo struct {
	db    *sql.DB
	once  sync.Once
	shape schemaShape
}

func NewSubscriberRepo(db *sql.DB) repository.SubscriberRepository {
	return &SubscriberRepo{db: db}
}

// TokensForCategory returns the de-duplicated push tokens of profiles
// subscribed to the category. All failures are soft: schema gaps and query
// errors are logged and yield an empty list, never an error, because
// subscriber resolution must not abort the ingestion pipeline.
func (repo *SubscriberRepo) TokensForCategory(ctx context.Context, category string) ([]string, error) {
	shape := repo.resolveShape(ctx)

	if shape.hasDeviceTokenTable {
		tokens, err := repo.tokensFromDeviceTable(ctx, category)
		if err == nil {
			return tokens, nil
		}
		slog.Warn("device token table query failed, falling back to profiles",
			slog.String("category", category),
			slog.Any("error", err))
	}

	if shape.tokenField == "" {
		slog.Warn("no push token column found on profiles, returning no subscribers",
			slog.String("category", category),
			slog.String("expected_one_of", strings.Join(tokenFieldCandidates, ", ")))
		return []string{}, nil
	}
	if shape.subscriptionField == "" {
		slog.Warn("no subscription column found on profiles, returning no subscribers",
			slog.String("category", category))
		return []string{}, nil
	}

	tokens, err := repo.tokensFromProfiles(ctx, shape, category)
	if err != nil {
		slog.Error("subscriber token resolution failed",
			slog.String("category", category),
			slog.Any("error", err))
		return []string{}, nil
	}
	return tokens, nil
}

// tokensFromDeviceTable reads tokens directly from the dedicated
// device_tokens table.
func (repo *SubscriberRepo) tokensFromDeviceTable(ctx context.Context, category string) ([]string, error) {
	const query = `
SELECT token FROM device_tokens
WHERE LOWER(category) = $1 AND token IS NOT NULL AND token <> ''`

	rows, err := repo.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("query device_tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dedupeTokens(tokens), nil
}

// tokensFromProfiles queries profiles whose subscription column contains
// (array shape) or equals (scalar shape) the category, then plucks tokens.
// Profiles matched and tokens found are logged separately: a profile can be
// subscribed without having registered a token yet.
func (repo *SubscriberRepo) tokensFromProfiles(ctx context.Context, shape schemaShape, category string) ([]string, error) {
	// Column names come from a fixed candidate list, never from input.
	var where string
	if shape.subscriptionIsArray {
		where = fmt.Sprintf("$1 = ANY(%s)", pq.QuoteIdentifier(shape.subscriptionField))
	} else {
		where = fmt.Sprintf("LOWER(%s) = $1", pq.QuoteIdentifier(shape.subscriptionField))
	}
	query := fmt.Sprintf("SELECT %s FROM profiles WHERE %s",
		pq.QuoteIdentifier(shape.tokenField), where)

	rows, err := repo.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []string
	profilesMatched := 0
	profilesWithToken := 0

	for rows.Next() {
		profilesMatched++
		if shape.tokenIsArray {
			var vals []string
			if err := rows.Scan(pq.Array(&vals)); err != nil {
				return nil, fmt.Errorf("scan token array: %w", err)
			}
			added := false
			for _, v := range vals {
				if v != "" {
					tokens = append(tokens, v)
					added = true
				}
			}
			if added {
				profilesWithToken++
			}
		} else {
			var val sql.NullString
			if err := rows.Scan(&val); err != nil {
				return nil, fmt.Errorf("scan token: %w", err)
			}
			if val.Valid && val.String != "" {
				tokens = append(tokens, val.String)
				profilesWithToken++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unique := dedupeTokens(tokens)
	slog.Info("resolved subscriber tokens",
		slog.String("category", category),
		slog.String("subscription_field", shape.subscriptionField),
		slog.String("token_field", shape.tokenField),
		slog.Int("profiles_matched", profilesMatched),
		slog.Int("profiles_with_token", profilesWithToken),
		slog.Int("unique_tokens", len(unique)))

	return unique, nil
}

// resolveShape probes information_schema exactly once per process.
// A probe failure leaves the zero shape, which downgrades every later call
// to "no subscribers" rather than an error.
func (repo *SubscriberRepo) resolveShape(ctx context.Context) schemaShape {
	repo.once.Do(func() {
		shape, err := detectSchemaShape(ctx, repo.db)
		if err != nil {
			slog.Error("subscriber schema detection failed",
				slog.Any("error", err))
			return
		}
		repo.shape = shape
		slog.Info("subscriber schema resolved",
			slog.Bool("device_token_table", shape.hasDeviceTokenTable),
			slog.String("token_field", shape.tokenField),
			slog.Bool("token_is_array", shape.tokenIsArray),
			slog.String("subscription_field", shape.subscriptionField),
			slog.Bool("subscription_is_array", shape.subscriptionIsArray))
	})
	return repo.shape
}

func detectSchemaShape(ctx context.Context, db *sql.DB) (schemaShape, error) {
	var shape schemaShape

	const tableQuery = `
SELECT EXISTS(SELECT 1 FROM information_schema.columns
              WHERE table_name = 'device_tokens' AND column_name = 'token')
   AND EXISTS(SELECT 1 FROM information_schema.columns
              WHERE table_name = 'device_tokens' AND column_name = 'category')`
	if err := db.QueryRowContext(ctx, tableQuery).Scan(&shape.hasDeviceTokenTable); err != nil {
		return shape, fmt.Errorf("probe device_tokens table: %w", err)
	}

	const columnsQuery = `
SELECT column_name, data_type FROM information_schema.columns
WHERE table_name = 'profiles'`
	rows, err := db.QueryContext(ctx, columnsQuery)
	if err != nil {
		return shape, fmt.Errorf("probe profiles columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]string) // name -> data_type
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return shape, fmt.Errorf("scan column info: %w", err)
		}
		columns[name] = dataType
	}
	if err := rows.Err(); err != nil {
		return shape, err
	}

	for _, candidate := range tokenFieldCandidates {
		if dataType, ok := columns[candidate]; ok {
			shape.tokenField = candidate
			shape.tokenIsArray = dataType == "ARRAY"
			break
		}
	}

	for _, candidate := range subscriptionFieldCandidates {
		if dataType, ok := columns[candidate]; ok && dataType == "ARRAY" {
			shape.subscriptionField = candidate
			shape.subscriptionIsArray = true
			break
		}
	}
	if shape.subscriptionField == "" {
		if _, ok := columns["topic"]; ok {
			shape.subscriptionField = "topic"
		}
	}

	return shape, nil
}

// dedupeTokens removes duplicate tokens while preserving first-seen order.
func dedupeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}
