package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
)

// PostgresStore implements Store on PostgreSQL + pgvector.
//
// Similarity uses the cosine distance operator (<=>); scores are
// reported as 1 - distance. The metadata JSONB column is filtered with
// the containment operator (@>), which the GIN index serves.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, logger log.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Upsert writes records in a single transaction. Existing ids are
// overwritten, including their embedding and metadata.
func (s *PostgresStore) Upsert(ctx context.Context, namespace string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %v: %w", err, fault.ErrUpstream)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range records {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %q: %w", rec.ID, err)
		}
		batch.Queue(`
			INSERT INTO saint_chunks (id, namespace, embedding, metadata, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (id) DO UPDATE SET
				namespace = EXCLUDED.namespace,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata,
				updated_at = now()`,
			rec.ID, namespace, pgvector.NewVector(rec.Values), meta)
	}

	results := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("upsert batch: %v: %w", err, fault.ErrUpstream)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close upsert batch: %v: %w", err, fault.ErrUpstream)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %v: %w", err, fault.ErrUpstream)
	}

	s.logger.Debug("upserted vector records", "namespace", namespace, "count", len(records))
	return nil
}

// Query runs a cosine similarity search within the namespace.
func (s *PostgresStore) Query(ctx context.Context, namespace string, vec []float32, topK int, filter *Filter) ([]Match, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("query: topK must be positive, got %d: %w", topK, fault.ErrInvalidArgument)
	}

	query := `
		SELECT id, metadata, 1 - (embedding <=> $1) AS score
		FROM saint_chunks
		WHERE namespace = $2`
	args := []any{pgvector.NewVector(vec), namespace}

	if filter != nil && !filter.IsZero() {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		query += ` AND metadata @> $3`
		args = append(args, filterJSON)
	}

	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topK)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector query: %v: %w", err, fault.ErrUpstream)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var meta []byte
		if err := rows.Scan(&m.ID, &meta, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %v: %w", err, fault.ErrUpstream)
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %q: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %v: %w", err, fault.ErrUpstream)
	}

	s.logger.Debug("vector query", "namespace", namespace, "top_k", topK, "matches", len(matches))
	return matches, nil
}

// DeleteByFilter removes records whose metadata contains the filter
// fields. Refuses a zero filter.
func (s *PostgresStore) DeleteByFilter(ctx context.Context, namespace string, filter Filter) error {
	if filter.IsZero() {
		return fmt.Errorf("delete: empty filter would clear namespace %q: %w", namespace, fault.ErrInvalidArgument)
	}

	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return fmt.Errorf("marshal filter: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM saint_chunks WHERE namespace = $1 AND metadata @> $2`,
		namespace, filterJSON)
	if err != nil {
		return fmt.Errorf("delete by filter: %v: %w", err, fault.ErrUpstream)
	}

	s.logger.Debug("deleted vector records", "namespace", namespace, "deleted", tag.RowsAffected())
	return nil
}
