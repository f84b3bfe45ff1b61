package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/skymessage/skymessage/internal/catalog"
	"github.com/skymessage/skymessage/internal/fault"
	"github.com/skymessage/skymessage/internal/log"
	"github.com/skymessage/skymessage/internal/vector"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockCatalog is a flexible mock for catalog.Store.
type mockCatalog struct {
	catalog.Store
	rawDocs       []catalog.RawDocument
	rawErr        error
	filledProfile *catalog.Saint
	fillErr       error
}

func (m *mockCatalog) ListRawDocuments(ctx context.Context, slug string) ([]catalog.RawDocument, error) {
	return m.rawDocs, m.rawErr
}

func (m *mockCatalog) FillProfile(ctx context.Context, s catalog.Saint) error {
	m.filledProfile = &s
	return m.fillErr
}

// mockEmbedder implements embed.Embedder with a fixed vector.
type mockEmbedder struct {
	embedErr  error
	callCount int
	embedded  []string
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.embedded = append(m.embedded, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

// mockVectorStore records upserts and deletes.
type mockVectorStore struct {
	upserted   []vector.Record
	deleted    []vector.Filter
	deleteErr  error
	upsertErr  error
	operations []string
}

func (m *mockVectorStore) Upsert(ctx context.Context, ns string, records []vector.Record) error {
	m.operations = append(m.operations, "upsert")
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, records...)
	return nil
}

func (m *mockVectorStore) Query(ctx context.Context, ns string, vec []float32, topK int, f *vector.Filter) ([]vector.Match, error) {
	return nil, nil
}

func (m *mockVectorStore) DeleteByFilter(ctx context.Context, ns string, f vector.Filter) error {
	m.operations = append(m.operations, "delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, f)
	return nil
}

func rawDoc(slug, content string) catalog.RawDocument {
	return catalog.RawDocument{
		ID:        uuid.New(),
		SaintSlug: slug,
		URL:       "https://example.org/" + slug,
		Publisher: "Example Press",
		Content:   content,
	}
}

func newTestPipeline(cat *mockCatalog, emb *mockEmbedder, vs *mockVectorStore) *Pipeline {
	return NewPipeline(cat, emb, vs, "saints-test", log.NewNop())
}

func TestRun_EmptySlug(t *testing.T) {
	p := newTestPipeline(&mockCatalog{}, &mockEmbedder{}, &mockVectorStore{})
	_, err := p.Run(context.Background(), "")
	if !errors.Is(err, fault.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestRun_NoRawDocuments(t *testing.T) {
	p := newTestPipeline(&mockCatalog{}, &mockEmbedder{}, &mockVectorStore{})
	_, err := p.Run(context.Background(), "francis-of-assisi")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRun_Success(t *testing.T) {
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{
		rawDoc("francis-of-assisi", "Francis preached to the birds near Bevagna."),
		rawDoc("francis-of-assisi", "He composed the Canticle of the Sun."),
	}}
	emb := &mockEmbedder{}
	vs := &mockVectorStore{}

	res, err := newTestPipeline(cat, emb, vs).Run(context.Background(), "francis-of-assisi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.SaintSlug != "francis-of-assisi" {
		t.Errorf("SaintSlug = %q", res.SaintSlug)
	}
	if res.Upserted != 2 {
		t.Errorf("Upserted = %d, want 2", res.Upserted)
	}
	if len(vs.upserted) != 2 {
		t.Fatalf("upserted %d records", len(vs.upserted))
	}
	for i, rec := range vs.upserted {
		if rec.ID == "" {
			t.Errorf("record %d has empty id", i)
		}
		if len(rec.Values) == 0 {
			t.Errorf("record %d has no embedding", i)
		}
		if rec.Metadata.SaintSlug != "francis-of-assisi" {
			t.Errorf("record %d slug = %q", i, rec.Metadata.SaintSlug)
		}
		if rec.Metadata.Publisher != "Example Press" {
			t.Errorf("record %d publisher = %q", i, rec.Metadata.Publisher)
		}
	}
}

func TestRun_DeleteBeforeUpsert(t *testing.T) {
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{rawDoc("joan-of-arc", "Joan led armies at seventeen.")}}
	vs := &mockVectorStore{}

	_, err := newTestPipeline(cat, &mockEmbedder{}, vs).Run(context.Background(), "joan-of-arc")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(vs.operations) != 2 || vs.operations[0] != "delete" || vs.operations[1] != "upsert" {
		t.Errorf("operations = %v, want [delete upsert]", vs.operations)
	}
	if len(vs.deleted) != 1 || vs.deleted[0].SaintSlug != "joan-of-arc" {
		t.Errorf("deleted = %+v", vs.deleted)
	}
}

func TestRun_ProfileFillFromRawHints(t *testing.T) {
	docs := []catalog.RawDocument{
		rawDoc("scholastica", "Scholastica founded a community of nuns."),
		rawDoc("scholastica", "She was the twin sister of Benedict."),
	}
	// Only the second document carries profile hints.
	docs[1].Name = "St. Scholastica"
	docs[1].Era = "6th century"
	docs[1].Patronage = []string{"nuns", "storms"}

	cat := &mockCatalog{rawDocs: docs}
	_, err := newTestPipeline(cat, &mockEmbedder{}, &mockVectorStore{}).Run(context.Background(), "scholastica")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if cat.filledProfile == nil {
		t.Fatal("profile was not reconciled")
	}
	if cat.filledProfile.Name != "St. Scholastica" {
		t.Errorf("Name = %q", cat.filledProfile.Name)
	}
	if cat.filledProfile.Era != "6th century" {
		t.Errorf("Era = %q", cat.filledProfile.Era)
	}
	if len(cat.filledProfile.Patronage) != 2 {
		t.Errorf("Patronage = %v", cat.filledProfile.Patronage)
	}
	// Both documents share a URL, so provenance dedupes to one entry.
	if len(cat.filledProfile.SourceURLs) != 1 {
		t.Fatalf("SourceURLs = %v, want one deduped entry", cat.filledProfile.SourceURLs)
	}
	if cat.filledProfile.SourceURLs[0].URL != "https://example.org/scholastica" {
		t.Errorf("SourceURLs[0].URL = %q", cat.filledProfile.SourceURLs[0].URL)
	}
	if cat.filledProfile.SourceURLs[0].Publisher != "Example Press" {
		t.Errorf("SourceURLs[0].Publisher = %q", cat.filledProfile.SourceURLs[0].Publisher)
	}
}

func TestRun_ProfileNameDefaultsToSlug(t *testing.T) {
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{rawDoc("padre-pio", "Pio bore the stigmata for fifty years.")}}
	_, err := newTestPipeline(cat, &mockEmbedder{}, &mockVectorStore{}).Run(context.Background(), "padre-pio")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cat.filledProfile.Name != "padre-pio" {
		t.Errorf("Name = %q, want slug fallback", cat.filledProfile.Name)
	}
}

func TestRun_SkipsEmptyDocuments(t *testing.T) {
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{
		{ID: uuid.New(), SaintSlug: "padre-pio", Content: ""},
		rawDoc("padre-pio", "Pio heard confessions for hours each day."),
	}}
	vs := &mockVectorStore{}

	res, err := newTestPipeline(cat, &mockEmbedder{}, vs).Run(context.Background(), "padre-pio")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Upserted != 1 {
		t.Errorf("Upserted = %d, want 1", res.Upserted)
	}
}

func TestRun_AllDocumentsEmpty(t *testing.T) {
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{
		{ID: uuid.New(), SaintSlug: "padre-pio", Content: "   "},
	}}
	_, err := newTestPipeline(cat, &mockEmbedder{}, &mockVectorStore{}).Run(context.Background(), "padre-pio")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRun_EmbedFailureAborts(t *testing.T) {
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{rawDoc("joan-of-arc", "Joan of Arc.")}}
	emb := &mockEmbedder{embedErr: errors.New("rate limited")}
	vs := &mockVectorStore{}

	_, err := newTestPipeline(cat, emb, vs).Run(context.Background(), "joan-of-arc")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(vs.operations) != 0 {
		t.Errorf("vector store should be untouched on embed failure, got %v", vs.operations)
	}
}

func TestRun_LongDocumentChunksWithStableIDs(t *testing.T) {
	long := strings.Repeat("The wolf of Gubbio was tamed by gentle words. ", 200)
	cat := &mockCatalog{rawDocs: []catalog.RawDocument{rawDoc("francis-of-assisi", long)}}
	vs := &mockVectorStore{}

	res, err := newTestPipeline(cat, &mockEmbedder{}, vs).Run(context.Background(), "francis-of-assisi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Upserted < 2 {
		t.Fatalf("long document should produce multiple chunks, got %d", res.Upserted)
	}

	// Re-running the same input yields the same ids.
	vs2 := &mockVectorStore{}
	_, err = newTestPipeline(cat, &mockEmbedder{}, vs2).Run(context.Background(), "francis-of-assisi")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for i := range vs.upserted {
		if vs.upserted[i].ID != vs2.upserted[i].ID {
			t.Errorf("chunk %d id changed across identical runs", i)
		}
	}
}
