package dirtable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlottechen1993/os-project4/dirtable"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tbl := &dirtable.Table{}
	require.NoError(t, tbl.Insert("todo", "txt", 1024))
	require.NoError(t, tbl.Insert("notes", "md", 2048))

	raw, err := dirtable.Encode(tbl)
	require.NoError(t, err)

	decoded, err := dirtable.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, tbl.Files, decoded.Files)
}

func TestFindMissingReturnsFalse(t *testing.T) {
	tbl := &dirtable.Table{}
	_, ok := tbl.Find("nope", "txt")
	assert.False(t, ok)
}

func TestInsertStartsAtZeroSize(t *testing.T) {
	tbl := &dirtable.Table{}
	require.NoError(t, tbl.Insert("todo", "txt", 4096))

	entry, ok := tbl.Find("todo", "txt")
	require.True(t, ok)
	assert.Equal(t, int64(0), entry.Size)
	assert.Equal(t, int64(4096), entry.StartOffset)
}

func TestUpdateSize(t *testing.T) {
	tbl := &dirtable.Table{}
	require.NoError(t, tbl.Insert("todo", "txt", 4096))

	ok := tbl.UpdateSize("todo", "txt", 17)
	require.True(t, ok)

	entry, _ := tbl.Find("todo", "txt")
	assert.Equal(t, int64(17), entry.Size)
}

func TestUpdateSizeMissingReturnsFalse(t *testing.T) {
	tbl := &dirtable.Table{}
	assert.False(t, tbl.UpdateSize("nope", "txt", 1))
}

func TestRemoveShiftsLaterEntriesLeft(t *testing.T) {
	tbl := &dirtable.Table{}
	require.NoError(t, tbl.Insert("a", "1", 0))
	require.NoError(t, tbl.Insert("b", "2", 0))
	require.NoError(t, tbl.Insert("c", "3", 0))

	require.True(t, tbl.Remove("b", "2"))

	names := []string{}
	for _, f := range tbl.List() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestRemoveMissingReturnsFalse(t *testing.T) {
	tbl := &dirtable.Table{}
	assert.False(t, tbl.Remove("nope", "txt"))
}

func TestInsertFailsWhenFull(t *testing.T) {
	tbl := &dirtable.Table{}
	for i := 0; i < dirtable.MaxFiles; i++ {
		require.NoError(t, tbl.Insert("f", "ext", int64(i)))
	}
	err := tbl.Insert("overflow", "txt", 0)
	assert.Error(t, err)
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	_, err := dirtable.Decode(make([]byte, 10))
	assert.Error(t, err)
}

func TestListSkipsNothingButCallerFiltersEmptyNames(t *testing.T) {
	tbl := &dirtable.Table{Files: []dirtable.Descriptor{{Name: "", Ext: ""}}}
	assert.Len(t, tbl.List(), 1)
}
