package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-hub/models"
	"research-hub/readers"
)

func strPtr(s string) *string { return &s }

func TestBuildPaperClassifiesContent(t *testing.T) {
	rec := readers.RawRecord{
		Title:       "Learning to Play Chess",
		AuthorNames: []string{"Buxmann P"},
		Published:   "2021-03-01T00:00:00Z",
		Platform:    "arXiv",
	}
	content := &ContentResult{
		Content:     strPtr("work supported by hessian.ai"),
		ContentHash: strPtr("abc123"),
		Path:        strPtr("pdfs/learning_to_play_chess.pdf"),
	}

	p := buildPaper(rec, content)
	assert.Equal(t, models.AffiliationVerified, p.AffiliationConfidence)
	require.NotNil(t, p.Published)
	assert.Equal(t, 2021, p.Published.Year())
	assert.JSONEq(t, `["Buxmann P"]`, string(p.Authors))
	assert.JSONEq(t, `["arXiv"]`, string(p.Platforms))
}

func TestBuildPaperWithoutContentStaysUnchecked(t *testing.T) {
	p := buildPaper(readers.RawRecord{Title: "X"}, &ContentResult{})
	assert.Equal(t, models.AffiliationUnchecked, p.AffiliationConfidence)
	assert.Nil(t, p.ContentHash)
}

func TestMergePaperPreservesServingFields(t *testing.T) {
	existing := &models.Paper{
		Title:     "Old Title",
		Relevance: 7,
		Views:     123,
		Citations: 3,
		Authors:   jsonList([]string{"Buxmann P"}),
		Platforms: jsonList([]string{"arXiv"}),
	}
	incoming := &models.Paper{
		Title:     "New Title",
		Citations: 9,
		Authors:   jsonList([]string{"Roth S"}),
		Platforms: jsonList([]string{"PubMed"}),
	}

	mergePaper(existing, incoming)

	assert.Equal(t, "New Title", existing.Title)
	assert.Equal(t, 9, existing.Citations)
	// relevance und views gehören dem Serving-Layer
	assert.Equal(t, 7, existing.Relevance)
	assert.Equal(t, 123, existing.Views)
	assert.JSONEq(t, `["Buxmann P","Roth S"]`, string(existing.Authors))
	assert.JSONEq(t, `["arXiv","PubMed"]`, string(existing.Platforms))
}

func TestMergePaperDoesNotClobberWithEmptyFields(t *testing.T) {
	hash := "deadbeef"
	existing := &models.Paper{
		Title:       "Kept",
		Abstract:    "kept abstract",
		DOI:         "10.1/kept",
		ContentHash: &hash,
		Content:     strPtr("text"),
	}
	mergePaper(existing, &models.Paper{Title: "Untitled"})

	assert.Equal(t, "Kept", existing.Title)
	assert.Equal(t, "kept abstract", existing.Abstract)
	assert.Equal(t, "10.1/kept", existing.DOI)
	require.NotNil(t, existing.ContentHash)
	assert.Equal(t, hash, *existing.ContentHash)
	assert.NotNil(t, existing.Content)
}

func TestMergePaperIdempotent(t *testing.T) {
	incoming := &models.Paper{
		Title:     "Stable",
		Abstract:  "abstract",
		Citations: 5,
		Authors:   jsonList([]string{"Buxmann P"}),
		Platforms: jsonList([]string{"arXiv"}),
	}
	existing := &models.Paper{Relevance: 2, Views: 10}

	mergePaper(existing, incoming)
	once := *existing
	mergePaper(existing, incoming)

	assert.Equal(t, once.Title, existing.Title)
	assert.Equal(t, once.Citations, existing.Citations)
	assert.Equal(t, string(once.Authors), string(existing.Authors))
	assert.Equal(t, string(once.Platforms), string(existing.Platforms))
	assert.Equal(t, 2, existing.Relevance)
	assert.Equal(t, 10, existing.Views)
}

func TestParsePublished(t *testing.T) {
	cases := []struct {
		in   string
		year int
	}{
		{"2021-03-01T00:00:00Z", 2021},
		{"2022-11-30", 2022},
		{"2023 Mar 4", 2023},
		{"2024 Jan", 2024},
		{"2020", 2020},
	}
	for _, tc := range cases {
		ts := parsePublished(tc.in)
		require.NotNil(t, ts, "input %q", tc.in)
		assert.Equal(t, tc.year, ts.Year())
	}
	assert.Nil(t, parsePublished(""))
	assert.Nil(t, parsePublished("irgendwann"))
}

func TestUnionListSetSemantics(t *testing.T) {
	a := jsonList([]string{"arXiv", "PubMed"})
	b := jsonList([]string{"PubMed", "SemanticScholar"})
	assert.JSONEq(t, `["arXiv","PubMed","SemanticScholar"]`, string(unionList(a, b)))

	assert.JSONEq(t, `[]`, string(unionList(nil, nil)))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.xml", "a.xml", "skip.json", filepath.Join("sub", "c.XML")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := listFiles(dir, ".xml")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.xml"), files[0])
}

func TestRunStatsAccumulate(t *testing.T) {
	var total readers.Stats
	total.Add(readers.Stats{Entries: 3, Dropped: 1})
	total.Add(readers.Stats{Entries: 2, Malformed: 1})
	assert.Equal(t, 5, total.Entries)
	assert.Equal(t, 1, total.Dropped)
	assert.Equal(t, 1, total.Malformed)
}
