package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, logger log.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

const saintColumns = `slug, name, gender, feast_day, era, bio,
	birth_date, death_date, birth_place, image_url, has_beard,
	aliases, patronage, quotes, prayers, source_urls, created_at, updated_at`

func scanSaint(row pgx.Row) (Saint, error) {
	var s Saint
	err := row.Scan(&s.Slug, &s.Name, &s.Gender, &s.FeastDay, &s.Era, &s.Bio,
		&s.BirthDate, &s.DeathDate, &s.BirthPlace, &s.ImageURL, &s.HasBeard,
		&s.Aliases, &s.Patronage, &s.Quotes, &s.Prayers, &s.SourceURLs, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (p *PostgresStore) CreateSaint(ctx context.Context, s Saint) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO saints (slug, name, gender, feast_day, era, bio,
			birth_date, death_date, birth_place, image_url, has_beard,
			aliases, patronage, quotes, prayers, source_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.Slug, s.Name, s.Gender, s.FeastDay, s.Era, s.Bio,
		s.BirthDate, s.DeathDate, s.BirthPlace, s.ImageURL, s.HasBeard,
		textArray(s.Aliases), textArray(s.Patronage), textArray(s.Quotes), textArray(s.Prayers),
		sourceURLs(s.SourceURLs))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("saint %q already exists: %w", s.Slug, fault.ErrConflict)
		}
		return fmt.Errorf("create saint %q: %v: %w", s.Slug, err, fault.ErrUpstream)
	}
	p.logger.Info("saint created", "slug", s.Slug)
	return nil
}

func (p *PostgresStore) GetSaint(ctx context.Context, slug string) (Saint, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+saintColumns+` FROM saints WHERE slug = $1`, slug)
	s, err := scanSaint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Saint{}, fmt.Errorf("saint %q: %w", slug, fault.ErrNotFound)
		}
		return Saint{}, fmt.Errorf("get saint %q: %v: %w", slug, err, fault.ErrUpstream)
	}
	return s, nil
}

func (p *PostgresStore) ListSaints(ctx context.Context) ([]Saint, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+saintColumns+` FROM saints ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list saints: %v: %w", err, fault.ErrUpstream)
	}
	defer rows.Close()

	var saints []Saint
	for rows.Next() {
		s, err := scanSaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saint: %v: %w", err, fault.ErrUpstream)
		}
		saints = append(saints, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saints: %v: %w", err, fault.ErrUpstream)
	}
	return saints, nil
}

func (p *PostgresStore) UpdateSaint(ctx context.Context, s Saint) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE saints SET
			name = $2, gender = $3, feast_day = $4, era = $5, bio = $6,
			birth_date = $7, death_date = $8, birth_place = $9, image_url = $10, has_beard = $11,
			aliases = $12, patronage = $13, quotes = $14, prayers = $15, source_urls = $16,
			updated_at = now()
		WHERE slug = $1`,
		s.Slug, s.Name, s.Gender, s.FeastDay, s.Era, s.Bio,
		s.BirthDate, s.DeathDate, s.BirthPlace, s.ImageURL, s.HasBeard,
		textArray(s.Aliases), textArray(s.Patronage), textArray(s.Quotes), textArray(s.Prayers),
		sourceURLs(s.SourceURLs))
	if err != nil {
		return fmt.Errorf("update saint %q: %v: %w", s.Slug, err, fault.ErrUpstream)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saint %q: %w", s.Slug, fault.ErrNotFound)
	}
	return nil
}

func (p *PostgresStore) DeleteSaint(ctx context.Context, slug string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %v: %w", err, fault.ErrUpstream)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM raw_documents WHERE saint_slug = $1`, slug); err != nil {
		return fmt.Errorf("delete raw documents for %q: %v: %w", slug, err, fault.ErrUpstream)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM saints WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete saint %q: %v: %w", slug, err, fault.ErrUpstream)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saint %q: %w", slug, fault.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %v: %w", err, fault.ErrUpstream)
	}
	p.logger.Info("saint deleted", "slug", slug)
	return nil
}

// FillProfile creates the row if missing; otherwise fills only columns
// that are currently empty. COALESCE/NULLIF keeps the populated value.
func (p *PostgresStore) FillProfile(ctx context.Context, s Saint) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO saints (slug, name, gender, feast_day, era, bio,
			birth_date, death_date, birth_place, image_url, has_beard,
			aliases, patronage, quotes, prayers, source_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (slug) DO UPDATE SET
			name = COALESCE(NULLIF(saints.name, ''), EXCLUDED.name),
			gender = COALESCE(NULLIF(saints.gender, ''), EXCLUDED.gender),
			feast_day = COALESCE(NULLIF(saints.feast_day, ''), EXCLUDED.feast_day),
			era = COALESCE(NULLIF(saints.era, ''), EXCLUDED.era),
			bio = COALESCE(NULLIF(saints.bio, ''), EXCLUDED.bio),
			birth_date = COALESCE(NULLIF(saints.birth_date, ''), EXCLUDED.birth_date),
			death_date = COALESCE(NULLIF(saints.death_date, ''), EXCLUDED.death_date),
			birth_place = COALESCE(NULLIF(saints.birth_place, ''), EXCLUDED.birth_place),
			image_url = COALESCE(NULLIF(saints.image_url, ''), EXCLUDED.image_url),
			has_beard = saints.has_beard OR EXCLUDED.has_beard,
			aliases = CASE WHEN cardinality(saints.aliases) = 0 THEN EXCLUDED.aliases ELSE saints.aliases END,
			patronage = CASE WHEN cardinality(saints.patronage) = 0 THEN EXCLUDED.patronage ELSE saints.patronage END,
			quotes = CASE WHEN cardinality(saints.quotes) = 0 THEN EXCLUDED.quotes ELSE saints.quotes END,
			prayers = CASE WHEN cardinality(saints.prayers) = 0 THEN EXCLUDED.prayers ELSE saints.prayers END,
			source_urls = CASE WHEN jsonb_array_length(saints.source_urls) = 0 THEN EXCLUDED.source_urls ELSE saints.source_urls END,
			updated_at = now()`,
		s.Slug, s.Name, s.Gender, s.FeastDay, s.Era, s.Bio,
		s.BirthDate, s.DeathDate, s.BirthPlace, s.ImageURL, s.HasBeard,
		textArray(s.Aliases), textArray(s.Patronage), textArray(s.Quotes), textArray(s.Prayers),
		sourceURLs(s.SourceURLs))
	if err != nil {
		return fmt.Errorf("fill profile %q: %v: %w", s.Slug, err, fault.ErrUpstream)
	}
	return nil
}

func (p *PostgresStore) AddRawDocument(ctx context.Context, doc RawDocument) error {
	if doc.Content == "" {
		return fmt.Errorf("raw document for %q has no content: %w", doc.SaintSlug, fault.ErrInvalidArgument)
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO raw_documents (id, saint_slug, url, publisher, name, feast_day, era, patronage, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.SaintSlug, doc.URL, doc.Publisher, doc.Name, doc.FeastDay, doc.Era,
		textArray(doc.Patronage), doc.Content)
	if err != nil {
		return fmt.Errorf("add raw document for %q: %v: %w", doc.SaintSlug, err, fault.ErrUpstream)
	}
	p.logger.Debug("raw document staged", "slug", doc.SaintSlug, "id", doc.ID, "url", doc.URL)
	return nil
}

func (p *PostgresStore) ListRawDocuments(ctx context.Context, slug string) ([]RawDocument, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, saint_slug, url, publisher, name, feast_day, era, patronage, content, created_at
		FROM raw_documents WHERE saint_slug = $1 ORDER BY created_at`, slug)
	if err != nil {
		return nil, fmt.Errorf("list raw documents for %q: %v: %w", slug, err, fault.ErrUpstream)
	}
	defer rows.Close()

	var docs []RawDocument
	for rows.Next() {
		var d RawDocument
		if err := rows.Scan(&d.ID, &d.SaintSlug, &d.URL, &d.Publisher, &d.Name, &d.FeastDay,
			&d.Era, &d.Patronage, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan raw document: %v: %w", err, fault.ErrUpstream)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw documents: %v: %w", err, fault.ErrUpstream)
	}
	return docs, nil
}

// textArray keeps nil slices out of pgx array encoding.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// sourceURLs keeps nil slices from encoding as JSON null; the column
// is NOT NULL with a '[]' default.
func sourceURLs(s []SourceURL) []SourceURL {
	if s == nil {
		return []SourceURL{}
	}
	return s
}
