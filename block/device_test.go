package block_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/charlottechen1993/os-project4/block"
)

func newDevice(t *testing.T, totalBlocks uint32) *block.Device {
	t.Helper()
	raw := make([]byte, int64(totalBlocks)*block.Size)
	return block.New(bytesextra.NewReadWriteSeeker(raw), totalBlocks)
}

func TestWriteBlockThenReadBlockRoundTrips(t *testing.T) {
	dev := newDevice(t, 4)

	payload := make([]byte, block.Size)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, dev.WriteBlock(2, payload))

	got, err := dev.ReadBlock(2)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteBlockRejectsWrongLength(t *testing.T) {
	dev := newDevice(t, 4)
	err := dev.WriteBlock(0, make([]byte, block.Size-1))
	assert.Error(t, err)
}

func TestReadBlockOutOfRangeFails(t *testing.T) {
	dev := newDevice(t, 4)
	_, err := dev.ReadBlock(4)
	assert.Error(t, err)
}

func TestReadAtWriteAtCrossesBlockBoundaries(t *testing.T) {
	dev := newDevice(t, 4)

	data := []byte("hello world, this spans blocks")
	offset := int64(block.Size) - 10

	require.NoError(t, dev.WriteAt(offset, data))

	got, err := dev.ReadAt(offset, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSeekFromEndLocatesTrailingRegion(t *testing.T) {
	dev := newDevice(t, 4)
	offset, err := dev.SeekFromEnd(-100)
	require.NoError(t, err)
	assert.Equal(t, int64(block.Size)*4-100, offset)
}

func TestBlockNumberOffsetRoundTrip(t *testing.T) {
	assert.Equal(t, int64(5*block.Size), block.BlockNumberToOffset(5))
	assert.Equal(t, uint32(5), block.OffsetToBlockNumber(int64(5*block.Size)))
}

func TestImageSize(t *testing.T) {
	dev := newDevice(t, 10)
	size, err := dev.ImageSize()
	require.NoError(t, err)
	assert.Equal(t, int64(10*block.Size), size)
}
