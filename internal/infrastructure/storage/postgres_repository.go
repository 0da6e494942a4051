package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"CodeNews/internal/domain"
	"CodeNews/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists items, the learned model, feedback identity
// and digest history.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ItemRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// KnownIDs returns a map with the IDs that already exist in storage.
func (r *PostgresRepository) KnownIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if r.db == nil || len(ids) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("id").From("items").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// GetItem loads a single item by identity.
func (r *PostgresRepository) GetItem(ctx context.Context, id string) (domain.Item, bool, error) {
	if r.db == nil {
		return domain.Item{}, false, nil
	}

	query, args, err := itemSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("build query: %w", err)
	}

	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return domain.Item{}, false, nil
	}
	if err != nil {
		return domain.Item{}, false, fmt.Errorf("load item: %w", err)
	}
	return item, true, nil
}

// SaveItem upserts a freshly scanned item.
func (r *PostgresRepository) SaveItem(ctx context.Context, item domain.Item) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Insert("items").
		Columns("id", "title", "summary", "url", "source", "published_at", "fetched_at", "score", "matched_keywords", "state").
		Values(item.ID, item.Title, item.Summary, item.URL, item.Source,
			item.PublishedAt, item.FetchedAt, item.Score, pq.StringArray(item.MatchedKeywords), string(item.State)).
		Suffix(`ON CONFLICT (id) DO UPDATE
			SET score = EXCLUDED.score,
			    matched_keywords = EXCLUDED.matched_keywords,
			    state = EXCLUDED.state`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}

// UpdateItem writes back a changed score or state.
func (r *PostgresRepository) UpdateItem(ctx context.Context, item domain.Item) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Update("items").
		Set("score", item.Score).
		Set("matched_keywords", pq.StringArray(item.MatchedKeywords)).
		Set("state", string(item.State)).
		Where(sq.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// DigestCandidates loads items still eligible for digest curation.
func (r *PostgresRepository) DigestCandidates(ctx context.Context) ([]domain.Item, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := itemSelect().
		Where(sq.Eq{"state": []string{string(domain.StatePending), string(domain.StateNotified)}}).
		OrderBy("published_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return items, nil
}

// SaveModel persists the weight snapshot and the acceptance threshold.
func (r *PostgresRepository) SaveModel(ctx context.Context, weights map[string]domain.TermWeight, threshold float64) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for term, tw := range weights {
		query, args, err := psql.Insert("preferences").
			Columns("term", "weight", "positive_count", "negative_count").
			Values(term, tw.Weight, tw.Positive, tw.Negative).
			Suffix(`ON CONFLICT (term) DO UPDATE
				SET weight = EXCLUDED.weight,
				    positive_count = EXCLUDED.positive_count,
				    negative_count = EXCLUDED.negative_count,
				    updated_at = NOW()`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build preference insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert preference %s: %w", term, err)
		}
	}

	query, args, err := psql.Insert("engine_state").
		Columns("id", "threshold").
		Values(1, threshold).
		Suffix(`ON CONFLICT (id) DO UPDATE SET threshold = EXCLUDED.threshold`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build state insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert engine state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit model snapshot: %w", err)
	}
	return nil
}

// LoadModel restores the weight snapshot and threshold saved last. The
// boolean reports whether a threshold row exists at all.
func (r *PostgresRepository) LoadModel(ctx context.Context) (map[string]domain.TermWeight, float64, bool, error) {
	weights := make(map[string]domain.TermWeight)
	if r.db == nil {
		return weights, 0, false, nil
	}

	query, args, err := psql.Select("term", "weight", "positive_count", "negative_count").
		From("preferences").ToSql()
	if err != nil {
		return nil, 0, false, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, false, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var term string
		var tw domain.TermWeight
		if err := rows.Scan(&term, &tw.Weight, &tw.Positive, &tw.Negative); err != nil {
			return nil, 0, false, fmt.Errorf("scan preference: %w", err)
		}
		weights[term] = tw
	}
	if err := rows.Err(); err != nil {
		return nil, 0, false, fmt.Errorf("rows iteration: %w", err)
	}

	var threshold float64
	hasThreshold := true
	stateQuery, stateArgs, err := psql.Select("threshold").From("engine_state").Where(sq.Eq{"id": 1}).ToSql()
	if err != nil {
		return nil, 0, false, fmt.Errorf("build state query: %w", err)
	}
	err = r.db.QueryRowContext(ctx, stateQuery, stateArgs...).Scan(&threshold)
	if err == sql.ErrNoRows {
		hasThreshold = false
	} else if err != nil {
		return nil, 0, false, fmt.Errorf("load engine state: %w", err)
	}

	return weights, threshold, hasThreshold, nil
}

// SaveFeedback records an applied event's identity for replay detection.
func (r *PostgresRepository) SaveFeedback(ctx context.Context, event domain.FeedbackEvent) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Insert("feedback").
		Columns("key", "item_id", "signal", "occurred_at").
		Values(event.Key(), event.ItemID, string(event.Signal), event.OccurredAt).
		Suffix(`ON CONFLICT (key) DO NOTHING`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// AppliedFeedbackKeys lists every recorded feedback identity.
func (r *PostgresRepository) AppliedFeedbackKeys(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := psql.Select("key").From("feedback").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return keys, nil
}

// SaveDigest records a published digest for history.
func (r *PostgresRepository) SaveDigest(ctx context.Context, record domain.DigestRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := psql.Insert("digests").
		Columns("id", "title", "item_ids", "page_url", "generated_at").
		Values(record.ID, record.Title, pq.StringArray(record.ItemIDs), record.PageURL, record.GeneratedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert digest: %w", err)
	}
	return nil
}

func itemSelect() sq.SelectBuilder {
	return psql.Select("id", "title", "summary", "url", "source",
		"published_at", "fetched_at", "score", "matched_keywords", "state").
		From("items")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var item domain.Item
	var keywords pq.StringArray
	var state string
	err := row.Scan(&item.ID, &item.Title, &item.Summary, &item.URL, &item.Source,
		&item.PublishedAt, &item.FetchedAt, &item.Score, &keywords, &state)
	if err != nil {
		return domain.Item{}, err
	}
	item.MatchedKeywords = keywords
	item.State = domain.ItemState(state)
	return item, nil
}
