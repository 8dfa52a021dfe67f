package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCorpus_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"title": "survey", "url": "https://example.edu/survey", "text": "reference body"},
		{"title": "empty"}
	]`), 0o600))

	corpus, err := loadCorpus(path)
	require.NoError(t, err)

	require.Len(t, corpus.References, 2)
	assert.Equal(t, "survey", corpus.References[0].Title)
	// Entries without text are kept in the corpus but filtered downstream.
	require.Len(t, corpus.ValidReferences(), 1)
}

func TestLoadCorpus_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), []byte("first reference"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.txt"), []byte("second reference"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o600))

	corpus, err := loadCorpus(dir)
	require.NoError(t, err)

	require.Len(t, corpus.References, 2)
	assert.Equal(t, "alpha", corpus.References[0].Title)
	assert.Equal(t, "first reference", corpus.References[0].Text)
}

func TestLoadCorpus_EmptyPath(t *testing.T) {
	corpus, err := loadCorpus("")
	require.NoError(t, err)
	assert.True(t, corpus.Empty())
}

func TestLoadCorpus_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := loadCorpus(path)
	assert.Error(t, err)
}
