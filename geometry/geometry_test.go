package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/geometry"
)

func TestDefaultMatchesSpecGeometry(t *testing.T) {
	g := geometry.Default()
	assert.Equal(t, uint32(10240), g.TotalBlocks)
	assert.Equal(t, int64(10240), g.BitmapBytes())
	assert.Equal(t, int64(10240)*block.Size+10240, g.TotalImageBytes())
}

func TestLookupKnownPresets(t *testing.T) {
	for _, slug := range []string{"default", "tiny", "floppy"} {
		g, err := geometry.Lookup(slug)
		require.NoError(t, err)
		assert.Equal(t, slug, g.Slug)
		assert.Greater(t, g.TotalBlocks, uint32(0))
	}
}

func TestLookupUnknownSlugFails(t *testing.T) {
	_, err := geometry.Lookup("nonexistent")
	assert.Error(t, err)
}

func TestTotalImageBytesIsBlocksPlusOneByteBitmapPerBlock(t *testing.T) {
	g, err := geometry.Lookup("tiny")
	require.NoError(t, err)
	assert.Equal(t, int64(g.TotalBlocks)*block.Size+int64(g.TotalBlocks), g.TotalImageBytes())
}
