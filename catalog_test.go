package synlex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAMLGrammar = `
name: Sample
scope: source.sample
file_extensions: [smpl, sample]
contexts:
  main:
    - match: '\d+'
      scope: constant.numeric.value.sample
`

func writeSampleGrammar(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sampleYAMLGrammar), 0o644))
	return path
}

func TestCatalogFromScopeAndFileType(t *testing.T) {
	dir := t.TempDir()
	writeSampleGrammar(t, dir, "sample.sublime-syntax")

	cat := NewCatalogFromDir(dir, false)

	g, err := cat.FromScope("source.sample")
	require.NoError(t, err)
	assert.Equal(t, "source.sample", g.Scope)

	g2, err := cat.FromFileType("smpl", 0)
	require.NoError(t, err)
	assert.Same(t, g, g2, "FromScope and FromFileType should share the compiled cache")

	_, err = cat.FromScope("source.unknown")
	assert.Error(t, err)

	_, err = cat.FromFileType("sample", 1)
	assert.Error(t, err, "only one grammar is registered for this extension")
}

func TestCatalogSkipsUndecodableFile(t *testing.T) {
	dir := t.TempDir()
	writeSampleGrammar(t, dir, "sample.sublime-syntax")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.sublime-syntax"), []byte("not: [valid"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a grammar"), 0o644))

	cat := NewCatalogFromDir(dir, false)

	_, err := cat.FromScope("source.sample")
	require.NoError(t, err)

	scopes := make([]string, 0)
	for s := range cat.Scopes() {
		scopes = append(scopes, s)
	}
	assert.Equal(t, []string{"source.sample"}, scopes)
}

func TestCatalogReindexPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeSampleGrammar(t, dir, "sample.sublime-syntax")

	cat := NewCatalogFromDir(dir, false)
	_, err := cat.FromScope("source.sample")
	require.NoError(t, err)

	updated := `
name: Sample
scope: source.sample.v2
file_extensions: [smpl]
contexts:
  main:
    - match: '\d+'
      scope: constant.numeric.value.sample
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	cat.reindexFile(path)

	_, err = cat.FromScope("source.sample")
	assert.Error(t, err, "the old scope should have been dropped on reload")

	g, err := cat.FromScope("source.sample.v2")
	require.NoError(t, err)
	assert.Equal(t, "source.sample.v2", g.Scope)
}
