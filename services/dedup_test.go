package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"research-hub/models"
	"research-hub/readers"
)

// fakeStore ist ein In-Memory-Ersatz für das Gateway.
type fakeStore struct {
	nextID  uint
	papers  []*models.Paper
	authors map[string]*models.Author
	links   map[[2]uint]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		authors: make(map[string]*models.Author),
		links:   make(map[[2]uint]bool),
	}
}

func (f *fakeStore) FindByHash(_ context.Context, hash string) (*models.Paper, error) {
	for _, p := range f.papers {
		if p.ContentHash != nil && *p.ContentHash == hash {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByTitle(_ context.Context, title string) (*models.Paper, error) {
	for _, p := range f.papers {
		if p.Title == title {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpsertPaper(_ context.Context, paper *models.Paper) error {
	if paper.ID == 0 {
		f.nextID++
		paper.ID = f.nextID
		f.papers = append(f.papers, paper)
	}
	return nil
}

func (f *fakeStore) FindAuthorByName(_ context.Context, name string) (*models.Author, error) {
	if a, ok := f.authors[name]; ok {
		return a, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateAuthor(_ context.Context, author *models.Author) error {
	if existing, ok := f.authors[author.Name]; ok {
		*author = *existing
		return nil
	}
	f.nextID++
	author.ID = f.nextID
	f.authors[author.Name] = author
	return nil
}

func (f *fakeStore) LinkPaperToAuthor(_ context.Context, paperID, authorID uint) error {
	f.links[[2]uint{paperID, authorID}] = true
	return nil
}

func newTestIngest(f *fakeStore) *IngestService {
	logger := zap.NewNop()
	return &IngestService{
		Logger:  logger,
		Store:   f,
		Authors: NewAuthorResolver(logger, NewRoster([]string{"Peter Buxmann"}), f),
	}
}

func hashed(h string) *ContentResult {
	return &ContentResult{ContentHash: &h}
}

func TestIngestSameHashDifferentTitlesMergeIntoOne(t *testing.T) {
	f := newFakeStore()
	s := newTestIngest(f)
	stats := &RunStats{}

	rec1 := readers.RawRecord{Title: "Learning to Play Chess", Platform: "arXiv"}
	require.NoError(t, s.ingestCandidate(t.Context(), rec1, hashed("h1"), stats))

	rec2 := readers.RawRecord{Title: "Learning to Play Chess (Preprint)", Platform: "PubMed"}
	require.NoError(t, s.ingestCandidate(t.Context(), rec2, hashed("h1"), stats))

	require.Len(t, f.papers, 1)
	assert.Equal(t, "Learning to Play Chess (Preprint)", f.papers[0].Title)
	assert.JSONEq(t, `["arXiv","PubMed"]`, string(f.papers[0].Platforms))
	assert.Equal(t, 1, stats.NewPapers)
	assert.Equal(t, 1, stats.UpdatedPapers)
}

func TestIngestSameTitleDifferentHashesStaySeparate(t *testing.T) {
	f := newFakeStore()
	s := newTestIngest(f)
	stats := &RunStats{}

	rec := readers.RawRecord{Title: "Learning to Play Chess", Platform: "arXiv"}
	require.NoError(t, s.ingestCandidate(t.Context(), rec, hashed("h1"), stats))
	require.NoError(t, s.ingestCandidate(t.Context(), rec, hashed("h2"), stats))

	// gleicher Titel, aber zwei verschiedene PDFs -> zwei Dokumente
	require.Len(t, f.papers, 2)
	assert.Equal(t, 2, stats.NewPapers)
	assert.Equal(t, 0, stats.UpdatedPapers)
}

func TestIngestTitleFallbackWithoutHash(t *testing.T) {
	f := newFakeStore()
	s := newTestIngest(f)
	stats := &RunStats{}

	rec := readers.RawRecord{Title: "Paper Without PDF", Abstract: "v1"}
	require.NoError(t, s.ingestCandidate(t.Context(), rec, &ContentResult{}, stats))

	rec.Abstract = "v2"
	require.NoError(t, s.ingestCandidate(t.Context(), rec, &ContentResult{}, stats))

	require.Len(t, f.papers, 1)
	assert.Equal(t, "v2", f.papers[0].Abstract)
	assert.Equal(t, 1, stats.NewPapers)
	assert.Equal(t, 1, stats.UpdatedPapers)
}

func TestIngestRepeatIsIdempotent(t *testing.T) {
	f := newFakeStore()
	s := newTestIngest(f)
	stats := &RunStats{}

	rec := readers.RawRecord{
		Title:       "Learning to Play Chess",
		AuthorNames: []string{"Buxmann P"},
		Platform:    "arXiv",
	}
	require.NoError(t, s.ingestCandidate(t.Context(), rec, hashed("h1"), stats))
	require.Len(t, f.papers, 1)
	require.Len(t, f.links, 1)

	// Serving-Layer setzt zwischen zwei Läufen relevance/views
	f.papers[0].Relevance = 5
	f.papers[0].Views = 99

	require.NoError(t, s.ingestCandidate(t.Context(), rec, hashed("h1"), stats))

	require.Len(t, f.papers, 1)
	assert.Len(t, f.links, 1)
	assert.Equal(t, 5, f.papers[0].Relevance)
	assert.Equal(t, 99, f.papers[0].Views)
}
