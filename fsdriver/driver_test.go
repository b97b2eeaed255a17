package fsdriver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlottechen1993/os-project4/bitmap"
	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/errors"
	"github.com/charlottechen1993/os-project4/fsck"
	"github.com/charlottechen1993/os-project4/fsdriver"
	"github.com/charlottechen1993/os-project4/roottable"
)

const testTotalBlocks = 64

// newFormattedDriver creates a fresh, correctly formatted image file in a
// temp directory (block 0 marked used and holding an empty root table,
// matching what cmd/mkfs's format subcommand produces) and returns a Driver
// bound to it.
func newFormattedDriver(t *testing.T) *fsdriver.Driver {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, ".disk")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Truncate(int64(testTotalBlocks)*block.Size+testTotalBlocks))

	dev := block.New(f, testTotalBlocks)
	alloc, err := bitmap.Load(dev, testTotalBlocks)
	require.NoError(t, err)
	require.NoError(t, alloc.MarkUsed(0))

	raw, err := roottable.Encode(&roottable.Table{})
	require.NoError(t, err)
	require.NoError(t, dev.WriteBlock(0, raw))

	return fsdriver.New(path, testTotalBlocks)
}

func assertConsistent(t *testing.T, path string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	require.NoError(t, err)
	defer f.Close()

	dev := block.New(f, testTotalBlocks)
	assert.NoError(t, fsck.Check(dev, testTotalBlocks))
}

// Scenario 1 (spec.md §8): fresh image, mkdir, readdir, getattr.
func TestScenarioMkdirThenReaddirAndGetattr(t *testing.T) {
	d := newFormattedDriver(t)

	require.NoError(t, d.Mkdir("/notes"))

	names, err := d.Readdir("/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{".", "..", "notes"}, names)

	st, err := d.Getattr("/notes")
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	assertConsistent(t, d.ImagePath)
}

// Scenario 2: mkdir, mknod, getattr size 0, readdir shows the file.
func TestScenarioMknodCreatesEmptyFileVisibleInReaddir(t *testing.T) {
	d := newFormattedDriver(t)

	require.NoError(t, d.Mkdir("/notes"))
	require.NoError(t, d.Mknod("/notes/todo.txt"))

	st, err := d.Getattr("/notes/todo.txt")
	require.NoError(t, err)
	assert.False(t, st.IsDir())
	assert.Equal(t, int64(0), st.Size)

	names, err := d.Readdir("/notes")
	require.NoError(t, err)
	assert.Contains(t, names, "todo.txt")

	assertConsistent(t, d.ImagePath)
}

// Scenario 3: mknod under a directory that was never mkdir'd.
func TestScenarioMknodWithoutParentDirectoryFails(t *testing.T) {
	d := newFormattedDriver(t)

	err := d.Mknod("/a/b.c")
	assert.ErrorIs(t, err, errors.NotFound)
}

// Scenario 4: directory name over 8 characters.
func TestScenarioMkdirNameTooLong(t *testing.T) {
	d := newFormattedDriver(t)

	err := d.Mkdir("/longerthan8")
	assert.ErrorIs(t, err, errors.NameTooLong)
}

// Scenario 5: a multi-block write/read round trip, and the file spans at
// least ceil(1024/504) = 3 data blocks.
func TestScenarioWriteReadRoundTripSpansMultipleBlocks(t *testing.T) {
	d := newFormattedDriver(t)

	require.NoError(t, d.Mkdir("/x"))
	require.NoError(t, d.Mknod("/x/f.dat"))

	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 256)
	}

	written, err := d.Write("/x/f.dat", data, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), written)

	got, err := d.Read("/x/f.dat", 1024, 0)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	st, err := d.Getattr("/x/f.dat")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), st.Size)

	assertConsistent(t, d.ImagePath)
}

// Scenario 6: unlink removes the file, a subsequent mknod succeeds, and fsck
// finds no block left marked used by the unlinked file.
func TestScenarioUnlinkFreesBlocksForReuse(t *testing.T) {
	d := newFormattedDriver(t)

	require.NoError(t, d.Mkdir("/x"))
	require.NoError(t, d.Mknod("/x/f.dat"))

	data := make([]byte, 1024)
	_, err := d.Write("/x/f.dat", data, 0)
	require.NoError(t, err)

	require.NoError(t, d.Unlink("/x/f.dat"))

	_, err = d.Getattr("/x/f.dat")
	assert.ErrorIs(t, err, errors.NotFound)

	require.NoError(t, d.Mknod("/x/g.dat"))

	assertConsistent(t, d.ImagePath)
}

func TestMkdirIsIdempotentlyRejectedAndLeavesImageUnchanged(t *testing.T) {
	d := newFormattedDriver(t)

	require.NoError(t, d.Mkdir("/notes"))

	before, err := os.ReadFile(d.ImagePath)
	require.NoError(t, err)

	err = d.Mkdir("/notes")
	assert.ErrorIs(t, err, errors.Exists)

	after, err := os.ReadFile(d.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMkdirOnRootIsExists(t *testing.T) {
	d := newFormattedDriver(t)
	assert.ErrorIs(t, d.Mkdir("/"), errors.Exists)
}

func TestMkdirFileUnderDirectoryIsNotPermitted(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))
	assert.ErrorIs(t, d.Mkdir("/a/b"), errors.OperationNotPermitted)
}

func TestMknodDuplicateIsExists(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))
	require.NoError(t, d.Mknod("/a/f.txt"))

	err := d.Mknod("/a/f.txt")
	assert.ErrorIs(t, err, errors.Exists)
}

func TestMknodFileAtRootIsNotPermitted(t *testing.T) {
	d := newFormattedDriver(t)
	err := d.Mknod("/f.txt")
	assert.ErrorIs(t, err, errors.OperationNotPermitted)
}

func TestUnlinkOnDirectoryIsDirectoryError(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))
	assert.ErrorIs(t, d.Unlink("/a"), errors.IsDirectory)
}

func TestUnlinkMissingIsNotFound(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))
	assert.ErrorIs(t, d.Unlink("/a/missing.txt"), errors.NotFound)
}

func TestWriteOffsetPastEndOfFileIsFileTooBig(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))
	require.NoError(t, d.Mknod("/a/f.txt"))

	_, err := d.Write("/a/f.txt", []byte("x"), 1)
	assert.ErrorIs(t, err, errors.FileTooBig)
}

func TestReadOnDirectoryIsDirectoryError(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))

	_, err := d.Read("/a", 10, 0)
	assert.ErrorIs(t, err, errors.IsDirectory)
}

func TestReadZeroSizeReturnsNoBytesAndNoError(t *testing.T) {
	d := newFormattedDriver(t)
	require.NoError(t, d.Mkdir("/a"))
	require.NoError(t, d.Mknod("/a/f.txt"))

	got, err := d.Read("/a/f.txt", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTruncateOpenFlushRmdirStubsAlwaysSucceed(t *testing.T) {
	d := newFormattedDriver(t)
	assert.NoError(t, d.Truncate("/anything", 0))
	assert.NoError(t, d.Open("/anything"))
	assert.NoError(t, d.Flush("/anything"))
	assert.NoError(t, d.Rmdir("/anything"))
}
