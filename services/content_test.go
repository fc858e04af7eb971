package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestFindLocalPDFMatchesOnPrefix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "group_a", "learning_to_play_chess_2021.pdf"))
	touch(t, filepath.Join(dir, "group_b", "unrelated_paper.pdf"))

	cr := NewContentResolver(zap.NewNop(), dir, t.TempDir())

	got, err := cr.findLocalPDF(NormalizeTitle("Learning to Play Chess"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "group_a", "learning_to_play_chess_2021.pdf"), got)
}

func TestFindLocalPDFUsesFirstTwentyChars(t *testing.T) {
	dir := t.TempDir()
	// Dateiname weicht hinter den ersten 20 Zeichen ab
	touch(t, filepath.Join(dir, "deep_neural_networks_for_chess_variants.pdf"))

	cr := NewContentResolver(zap.NewNop(), dir, t.TempDir())

	got, err := cr.findLocalPDF(NormalizeTitle("Deep Neural Networks For Go"))
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestFindLocalPDFIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "learning_to_play_chess.txt"))

	cr := NewContentResolver(zap.NewNop(), dir, t.TempDir())

	got, err := cr.findLocalPDF(NormalizeTitle("Learning to Play Chess"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindLocalPDFMissingDir(t *testing.T) {
	cr := NewContentResolver(zap.NewNop(), filepath.Join(t.TempDir(), "nope"), t.TempDir())

	got, err := cr.findLocalPDF("anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveWithoutPDFIsNonFatal(t *testing.T) {
	cr := NewContentResolver(zap.NewNop(), t.TempDir(), t.TempDir())

	res := cr.Resolve(t.Context(), "No Matching Paper Anywhere", "")
	require.NotNil(t, res)
	assert.Nil(t, res.Path)
	assert.Nil(t, res.Content)
	assert.Nil(t, res.ContentHash)
	assert.Nil(t, res.PathImage)
}
