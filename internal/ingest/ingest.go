// Package ingest turns staged raw documents into searchable vector
// records.
//
// The pipeline for one saint: reconcile the profile from raw document
// hints (fill-only, populated fields win), chunk every document, embed
// the chunks, then replace the saint's records in the vector store.
// Replacement is delete-then-upsert under the saint's metadata filter,
// so chunks from removed sources do not linger across re-ingestions.
package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/chunker"
	"github.com/skymessage/skymessage/internal/embed"
	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/vector"
)

const (
	// embedBatchSize bounds how many chunks go to the embedder per call.
	embedBatchSize = 32

	// embedConcurrency bounds parallel embedder calls.
	embedConcurrency = 4
)

// Result reports what one ingestion run wrote.
type Result struct {
	Upserted  int    `json:"upserted"`
	SaintSlug string `json:"saintSlug"`
}

// Pipeline ingests one saint's raw documents end to end.
type Pipeline struct {
	catalog   catalog.Store
	embedder  embed.Embedder
	vectors   vector.Store
	namespace string
	logger    log.Logger
}

// NewPipeline creates an ingestion pipeline writing into namespace.
func NewPipeline(cat catalog.Store, embedder embed.Embedder, vectors vector.Store, namespace string, logger log.Logger) *Pipeline {
	return &Pipeline{
		catalog:   cat,
		embedder:  embedder,
		vectors:   vectors,
		namespace: namespace,
		logger:    logger,
	}
}

// Run ingests all raw documents staged for slug.
//
// Returns fault.ErrInvalidArgument for an empty slug and
// fault.ErrNotFound when the saint has no raw documents.
func (p *Pipeline) Run(ctx context.Context, slug string) (Result, error) {
	if slug == "" {
		return Result{}, fmt.Errorf("ingest: saintSlug required: %w", fault.ErrInvalidArgument)
	}

	docs, err := p.catalog.ListRawDocuments(ctx, slug)
	if err != nil {
		return Result{}, fmt.Errorf("ingest %q: %w", slug, err)
	}
	if len(docs) == 0 {
		return Result{}, fmt.Errorf("ingest %q: no raw documents: %w", slug, fault.ErrNotFound)
	}

	if err := p.reconcileProfile(ctx, slug, docs); err != nil {
		return Result{}, fmt.Errorf("ingest %q: %w", slug, err)
	}

	records := p.buildRecords(slug, docs)
	if len(records) == 0 {
		return Result{}, fmt.Errorf("ingest %q: raw documents contain no text: %w", slug, fault.ErrNotFound)
	}

	if err := p.embedRecords(ctx, records); err != nil {
		return Result{}, fmt.Errorf("ingest %q: %w", slug, err)
	}

	// Replace, don't accumulate: stale chunks from dropped sources must
	// not survive a re-ingestion.
	if err := p.vectors.DeleteByFilter(ctx, p.namespace, vector.Filter{SaintSlug: slug}); err != nil {
		return Result{}, fmt.Errorf("ingest %q: %w", slug, err)
	}
	if err := p.vectors.Upsert(ctx, p.namespace, records); err != nil {
		return Result{}, fmt.Errorf("ingest %q: %w", slug, err)
	}

	p.logger.Info("ingestion complete", "slug", slug, "documents", len(docs), "chunks", len(records))
	return Result{Upserted: len(records), SaintSlug: slug}, nil
}

// reconcileProfile fills gaps in the saint profile from raw document
// hints. The first non-empty value per field wins; existing populated
// fields are never overwritten (the store enforces that).
func (p *Pipeline) reconcileProfile(ctx context.Context, slug string, docs []catalog.RawDocument) error {
	profile := catalog.Saint{Slug: slug, Name: slug}
	seen := make(map[string]bool)
	for _, doc := range docs {
		if profile.Name == slug && doc.Name != "" {
			profile.Name = doc.Name
		}
		if profile.FeastDay == "" {
			profile.FeastDay = doc.FeastDay
		}
		if profile.Era == "" {
			profile.Era = doc.Era
		}
		if len(profile.Patronage) == 0 {
			profile.Patronage = doc.Patronage
		}
		if doc.URL != "" && !seen[doc.URL] {
			seen[doc.URL] = true
			profile.SourceURLs = append(profile.SourceURLs, catalog.SourceURL{URL: doc.URL, Publisher: doc.Publisher})
		}
	}
	return p.catalog.FillProfile(ctx, profile)
}

// buildRecords chunks every document and assembles records with
// deterministic ids. The chunk index is global across documents, so
// ids stay stable as long as document order and content do.
func (p *Pipeline) buildRecords(slug string, docs []catalog.RawDocument) []vector.Record {
	var records []vector.Record
	idx := 0
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		for _, part := range chunker.Split(doc.Content) {
			records = append(records, vector.Record{
				ID: chunker.ChunkID(slug, idx, part),
				Metadata: vector.Metadata{
					SaintSlug:  slug,
					Name:       doc.Name,
					Text:       part,
					URL:        doc.URL,
					Publisher:  doc.Publisher,
					FeastDay:   doc.FeastDay,
					Era:        doc.Era,
					Patronage:  doc.Patronage,
					ChunkIndex: idx,
				},
			})
			idx++
		}
	}
	return records
}

// embedRecords fills in Values for every record, batching upstream
// calls and running batches concurrently.
func (p *Pipeline) embedRecords(ctx context.Context, records []vector.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(records); start += embedBatchSize {
		end := min(start+embedBatchSize, len(records))
		batch := records[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, rec := range batch {
				texts[i] = rec.Metadata.Text
			}
			vecs, err := p.embedder.EmbedDocuments(ctx, texts)
			if err != nil {
				return err
			}
			for i := range batch {
				batch[i].Values = vecs[i]
			}
			return nil
		})
	}

	return g.Wait()
}
