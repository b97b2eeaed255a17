// Package testutil builds in-memory fixtures for the driver's tests: a
// formatted disk image backed by a byte slice instead of a real file,
// following the teacher repo's own "testing" helper package
// (github.com/dargueta/disko/testing), which backs its block cache tests
// with bytesextra.NewReadWriteSeeker rather than a temp file on disk.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/charlottechen1993/os-project4/bitmap"
	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/roottable"
)

// NewBlankImage allocates an all-zero in-memory image of totalBlocks blocks
// plus its trailing one-byte-per-block bitmap region, wraps it in a Device,
// and loads an Allocator over it. Block 0 is left unformatted; callers that
// need a ready-to-use root block should call NewImage instead.
func NewBlankImage(t *testing.T, totalBlocks uint32) (*block.Device, *bitmap.Allocator) {
	t.Helper()

	raw := make([]byte, int64(totalBlocks)*block.Size+int64(totalBlocks))
	stream := bytesextra.NewReadWriteSeeker(raw)
	dev := block.New(stream, totalBlocks)

	alloc, err := bitmap.Load(dev, totalBlocks)
	require.NoError(t, err)

	return dev, alloc
}

// NewImage builds a freshly formatted image: block 0 holds an empty root
// table and is marked used in the bitmap, exactly what cmd/mkfs's format
// subcommand produces for a real file.
func NewImage(t *testing.T, totalBlocks uint32) (*block.Device, *bitmap.Allocator) {
	t.Helper()

	dev, alloc := NewBlankImage(t, totalBlocks)

	require.NoError(t, alloc.MarkUsed(0))

	raw, err := roottable.Encode(&roottable.Table{})
	require.NoError(t, err)
	require.NoError(t, dev.WriteBlock(0, raw))

	return dev, alloc
}

// TinyTotalBlocks is a small geometry for fast, deterministic allocator
// tests: big enough to hold a handful of directories and files, small
// enough to keep bitmap scans trivial to reason about by hand.
const TinyTotalBlocks = 32
