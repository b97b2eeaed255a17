// Package bitmap implements the free-space allocator that tracks block
// usage in the trailing region of the disk image: one byte per block, 0 for
// free and 1 for used.
package bitmap

import (
	gobitmap "github.com/boljen/go-bitmap"

	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/errors"
)

// Allocator tracks which blocks in a Device are in use. The in-memory
// representation is a packed go-bitmap.Bitmap for fast Get/Set during a scan;
// the on-disk representation required by the image format is one full byte
// per block, so persisting and loading convert between the two explicitly
// rather than handing go-bitmap's own packed encoding to the device.
type Allocator struct {
	bits         gobitmap.Bitmap
	device       *block.Device
	regionOffset int64
	totalBlocks  uint32
}

// Load reads the trailing totalBlocks-byte bitmap region of device into a new
// Allocator.
func Load(device *block.Device, totalBlocks uint32) (*Allocator, error) {
	offset, err := device.SeekFromEnd(-int64(totalBlocks))
	if err != nil {
		return nil, err
	}

	raw, err := device.ReadAt(offset, int(totalBlocks))
	if err != nil {
		return nil, err
	}

	bits := gobitmap.New(int(totalBlocks))
	for i, b := range raw {
		bits.Set(i, b != 0)
	}

	return &Allocator{
		bits:         bits,
		device:       device,
		regionOffset: offset,
		totalBlocks:  totalBlocks,
	}, nil
}

// persist rewrites the entire bitmap region from the in-memory bits.
// Allocate, Release and MarkUsed each call it before returning, so the
// bitmap is written as soon as a block changes state: an allocated block is
// marked used on disk before its caller zeroes it or links it into a table,
// and a released block is marked free before its caller removes the table
// entry that referenced it. The bitmap is not written last.
func (a *Allocator) persist() error {
	raw := make([]byte, a.totalBlocks)
	for i := uint32(0); i < a.totalBlocks; i++ {
		if a.bits.Get(int(i)) {
			raw[i] = 1
		}
	}
	return a.device.WriteAt(a.regionOffset, raw)
}

// Allocate finds the lowest-numbered free block at index 1 or above (block 0
// is permanently reserved for the root block), marks it used, persists the
// bitmap, and returns its index.
func (a *Allocator) Allocate() (uint32, error) {
	for i := uint32(1); i < a.totalBlocks; i++ {
		if !a.bits.Get(int(i)) {
			a.bits.Set(int(i), true)
			if err := a.persist(); err != nil {
				return 0, err
			}
			return i, nil
		}
	}
	return 0, errors.NoSpace.WithMessage("no free blocks remain")
}

// Release marks a block free again and persists the bitmap.
func (a *Allocator) Release(blockNumber uint32) error {
	if blockNumber >= a.totalBlocks {
		return errors.InvalidArgument.WithMessage("block number out of range")
	}
	a.bits.Set(int(blockNumber), false)
	return a.persist()
}

// IsUsed reports whether a block is currently marked used.
func (a *Allocator) IsUsed(blockNumber uint32) bool {
	if blockNumber >= a.totalBlocks {
		return false
	}
	return a.bits.Get(int(blockNumber))
}

// MarkUsed forces a block to the used state without going through Allocate.
// It exists for the image-formatting tool, which must reserve block 0 for
// the root block before any handler runs.
func (a *Allocator) MarkUsed(blockNumber uint32) error {
	if blockNumber >= a.totalBlocks {
		return errors.InvalidArgument.WithMessage("block number out of range")
	}
	a.bits.Set(int(blockNumber), true)
	return a.persist()
}
