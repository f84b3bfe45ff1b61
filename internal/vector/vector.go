// Package vector provides namespaced vector storage and similarity
// search over PostgreSQL + pgvector.
//
// Records carry a typed metadata payload stored as JSONB; queries can
// constrain matches with a containment filter on that payload. Scores
// are cosine similarity in [0, 1], higher is more similar.
package vector

import "context"

// Metadata is the payload stored alongside each vector record.
// Field names match the JSON keys used by filters, so JSONB containment
// on a marshaled partial Metadata works directly.
type Metadata struct {
	SaintSlug  string   `json:"saintSlug"`
	Name       string   `json:"name,omitempty"`
	Text       string   `json:"text"`
	URL        string   `json:"url,omitempty"`
	Publisher  string   `json:"publisher,omitempty"`
	FeastDay   string   `json:"feastDay,omitempty"`
	Era        string   `json:"era,omitempty"`
	Patronage  []string `json:"patronage,omitempty"`
	ChunkIndex int      `json:"chunkIndex"`
}

// Record is a vector with its id and metadata, ready to upsert.
type Record struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Match is a query hit.
type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// Filter constrains queries and deletes to records whose metadata
// contains the given fields. Zero-value fields are ignored.
type Filter struct {
	SaintSlug string `json:"saintSlug,omitempty"`
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Store is the vector persistence boundary used by the ingestion and
// ask pipelines.
type Store interface {
	// Upsert writes records into the namespace, overwriting records
	// with the same id.
	Upsert(ctx context.Context, namespace string, records []Record) error

	// Query returns up to topK records most similar to vec, ordered by
	// descending score. A non-nil filter restricts candidates.
	Query(ctx context.Context, namespace string, vec []float32, topK int, filter *Filter) ([]Match, error)

	// DeleteByFilter removes all records in the namespace whose
	// metadata matches the filter. A zero filter is rejected: it would
	// wipe the namespace.
	DeleteByFilter(ctx context.Context, namespace string, filter Filter) error
}
