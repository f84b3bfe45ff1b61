// Package catalog manages saint profiles and their raw source
// documents.
//
// Profiles are the authoritative record for a saint (name, feast day,
// patronage, era). Raw documents are fetched source texts staged for
// ingestion; they may carry partial profile metadata used to fill gaps
// in the profile, never to overwrite populated fields.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Saint is a catalog profile.
type Saint struct {
	Slug       string      `json:"slug"`
	Name       string      `json:"name"`
	Gender     string      `json:"gender,omitempty"`
	FeastDay   string      `json:"feastDay,omitempty"`
	Era        string      `json:"era,omitempty"`
	Bio        string      `json:"bio,omitempty"`
	BirthDate  string      `json:"birthDate,omitempty"`
	DeathDate  string      `json:"deathDate,omitempty"`
	BirthPlace string      `json:"birthPlace,omitempty"`
	ImageURL   string      `json:"imageUrl,omitempty"`
	HasBeard   bool        `json:"hasBeard,omitempty"`
	Aliases    []string    `json:"aliases,omitempty"`
	Patronage  []string    `json:"patronage,omitempty"`
	Quotes     []string    `json:"quotes,omitempty"`
	Prayers    []string    `json:"prayers,omitempty"`
	SourceURLs []SourceURL `json:"sourceUrls,omitempty"`
	CreatedAt  time.Time   `json:"createdAt,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
}

// SourceURL is a provenance record for a page a saint's profile or
// documents were fetched from.
type SourceURL struct {
	URL       string `json:"url"`
	Publisher string `json:"publisher,omitempty"`
}

// RawDocument is a staged source text for one saint. The optional
// profile fields are hints extracted at fetch time.
type RawDocument struct {
	ID        uuid.UUID `json:"id"`
	SaintSlug string    `json:"saintSlug"`
	URL       string    `json:"url,omitempty"`
	Publisher string    `json:"publisher,omitempty"`
	Name      string    `json:"name,omitempty"`
	FeastDay  string    `json:"feastDay,omitempty"`
	Era       string    `json:"era,omitempty"`
	Patronage []string  `json:"patronage,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Store is the catalog persistence boundary.
type Store interface {
	// CreateSaint inserts a new profile. Returns fault.ErrConflict if
	// the slug already exists.
	CreateSaint(ctx context.Context, s Saint) error

	// GetSaint returns the profile for slug, or fault.ErrNotFound.
	GetSaint(ctx context.Context, slug string) (Saint, error)

	// ListSaints returns all profiles ordered by slug.
	ListSaints(ctx context.Context) ([]Saint, error)

	// UpdateSaint replaces the profile for s.Slug. Returns
	// fault.ErrNotFound if absent.
	UpdateSaint(ctx context.Context, s Saint) error

	// DeleteSaint removes the profile and its raw documents. Returns
	// fault.ErrNotFound if absent.
	DeleteSaint(ctx context.Context, slug string) error

	// FillProfile creates the profile if missing, or fills only its
	// empty fields from s. Populated fields are never overwritten.
	FillProfile(ctx context.Context, s Saint) error

	// AddRawDocument stages a source text for ingestion.
	AddRawDocument(ctx context.Context, doc RawDocument) error

	// ListRawDocuments returns all staged texts for the saint, oldest
	// first. An empty result is not an error; the ingestion pipeline
	// decides what absence means.
	ListRawDocuments(ctx context.Context, slug string) ([]RawDocument, error)
}
