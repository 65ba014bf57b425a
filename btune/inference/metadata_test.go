package inference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadata(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFileName), []byte(contents), 0o644))
}

func TestLoadMetadata_ValidCategories(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, `
features: [entropy_cratio, arange_speed, zeros_speed, typesize, chunksize]
categories:
  - codec: zstd
    filter: shuffle
    split_mode: auto
    clevel: 3
  - codec: lz4
    filter: nofilter
    split_mode: never
    clevel: 1
`)
	categories, err := loadMetadata(dir)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, 3, categories[0].Clevel)
}

func TestLoadMetadata_MissingFile_ReturnsModelMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := loadMetadata(dir)
	assert.ErrorIs(t, err, ErrModelMissing)
}

func TestLoadMetadata_EmptyCategories_NoError(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, `
features: [entropy_cratio]
categories: []
`)
	categories, err := loadMetadata(dir)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestLoadMetadata_UnknownCodec_SkipsCategory(t *testing.T) {
	dir := t.TempDir()
	writeMetadata(t, dir, `
features: [entropy_cratio]
categories:
  - codec: not-a-codec
    filter: shuffle
    split_mode: auto
    clevel: 3
`)
	categories, err := loadMetadata(dir)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
