package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Learning to Play Chess", "learning_to_play_chess"},
		{"punctuation", "Attention, Is All: You Need!", "attention_is_all_you_need"},
		{"kept chars", "v2.1-beta_final", "v2.1-beta_final"},
		{"collapses runs", "a   --  b", "a_--_b"},
		{"unicode replaced", "Über große Modelle", "ber_gro_e_modelle"},
		{"empty", "", ""},
		{"only invalid", "???", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeTitle(tc.in))
		})
	}
}

func TestNormalizeTitleTruncates(t *testing.T) {
	long := "this is a very long paper title that keeps going and going beyond fifty characters"
	got := NormalizeTitle(long)
	assert.LessOrEqual(t, len(got), MaxTitleLength)
	assert.Equal(t, "this_is_a_very_long_paper_title_that_keeps_going_a", got)
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	titles := []string{
		"Learning to Play Chess",
		"Über große Modelle!",
		"a   --  b",
		"this is a very long paper title that keeps going and going beyond fifty characters",
	}
	for _, title := range titles {
		once := NormalizeTitle(title)
		assert.Equal(t, once, NormalizeTitle(once))
	}
}

func TestNormalizeAuthorName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Doe J", "doe, j"},
		{"J Doe", "doe, j"},
		{"John Doe", "doe, john"},
		{"Doe, John", "doe, john"},
		{"  Madonna  ", "madonna"},
		{"Jan Peter van der Berg", "jan peter van der berg"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeAuthorName(tc.in), "input %q", tc.in)
	}
}

func TestToRosterFormat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Carlo d'Eramo", "D'Eramo C"},
		{"Carlo d’Eramo", "D'Eramo C"},
		{"Peter Buxmann", "Buxmann P"},
		{"Jan Peter Berg", "Berg JP"},
		{"Madonna", "Madonna"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToRosterFormat(tc.in), "input %q", tc.in)
	}
}

func TestRosterResolveRoundTrip(t *testing.T) {
	roster := NewRoster([]string{"Peter Buxmann", "Carlo d'Eramo", "Stefan Roth"})

	for _, name := range roster.Names() {
		got, ok := roster.Resolve(ToRosterFormat(name))
		require.True(t, ok, "roster name %q", name)
		assert.Equal(t, name, got)
	}

	// Case-insensitiv, inklusive typografischem Apostroph
	got, ok := roster.Resolve("d’eramo c")
	require.True(t, ok)
	assert.Equal(t, "Carlo d'Eramo", got)

	_, ok = roster.Resolve("Unknown X")
	assert.False(t, ok)
}

func TestLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authors.json")
	content := `{
  "zlab": ["Stefan Roth"],
  "alab": ["Peter Buxmann", "Carlo d'Eramo"]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	assert.Equal(t, 3, roster.Len())
	// Gruppen werden alphabetisch durchlaufen
	assert.Equal(t, []string{"Peter Buxmann", "Carlo d'Eramo", "Stefan Roth"}, roster.Names())
}
