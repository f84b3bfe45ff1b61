// Package fetch downloads a source page and extracts its readable text
// as a raw document staged for ingestion.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "skymessage-fetch/1.0"
)

// Fetcher downloads pages and extracts article text.
type Fetcher struct {
	client *http.Client
	logger log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a Fetcher.
func New(logger log.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Document downloads rawURL and returns a raw document for saintSlug.
// Publisher falls back to the page's site name, then the host, when the
// caller passes none. Returns fault.ErrInvalidArgument on a bad URL,
// fault.ErrUpstream on transport or HTTP failure, and fault.ErrParse
// when no readable text can be extracted.
func (f *Fetcher) Document(ctx context.Context, saintSlug, rawURL, publisher string) (catalog.RawDocument, error) {
	saintSlug = strings.TrimSpace(saintSlug)
	if saintSlug == "" {
		return catalog.RawDocument{}, fmt.Errorf("fetch: saint slug required: %w", fault.ErrInvalidArgument)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return catalog.RawDocument{}, fmt.Errorf("fetch: invalid url %q: %w", rawURL, fault.ErrInvalidArgument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return catalog.RawDocument{}, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return catalog.RawDocument{}, fmt.Errorf("fetch %s: %v: %w", parsed.Host, err, fault.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return catalog.RawDocument{}, fmt.Errorf("fetch %s: status %d: %w", parsed.Host, resp.StatusCode, fault.ErrUpstream)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return catalog.RawDocument{}, fmt.Errorf("extract %s: %v: %w", parsed.Host, err, fault.ErrParse)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return catalog.RawDocument{}, fmt.Errorf("extract %s: no readable text: %w", parsed.Host, fault.ErrParse)
	}

	if publisher == "" {
		publisher = article.SiteName
	}
	if publisher == "" {
		publisher = parsed.Host
	}

	f.logger.Info("fetched source page",
		"saint", saintSlug,
		"url", parsed.String(),
		"publisher", publisher,
		"chars", len(content))

	return catalog.RawDocument{
		ID:        uuid.New(),
		SaintSlug: saintSlug,
		URL:       parsed.String(),
		Publisher: publisher,
		Name:      strings.TrimSpace(article.Title),
		Content:   content,
	}, nil
}
