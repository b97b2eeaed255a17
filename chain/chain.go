// Package chain walks and mutates the singly-linked chains of data blocks
// that hold file contents: each block is an 8-byte next-block byte offset
// (0 at the end of the chain) followed by 504 bytes of payload.
package chain

import (
	"encoding/binary"

	"github.com/charlottechen1993/os-project4/bitmap"
	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/errors"
)

const linkFieldSize = 8

// PayloadSize is the number of content bytes held by a single data block:
// the full block size less the in-band next-block pointer.
const PayloadSize = block.Size - linkFieldSize

// ReadLink reads the block at blockOffset and splits it into its next-block
// offset and payload. It's exported so the consistency checker can walk
// chains without duplicating the block layout.
func ReadLink(device *block.Device, blockOffset int64) (next int64, payload []byte, err error) {
	raw, err := device.ReadBlock(block.OffsetToBlockNumber(blockOffset))
	if err != nil {
		return 0, nil, err
	}
	next = int64(binary.NativeEndian.Uint64(raw[:linkFieldSize]))
	return next, raw[linkFieldSize:], nil
}

// writeLink rewrites the block at blockOffset with the given next pointer
// and payload.
func writeLink(device *block.Device, blockOffset int64, next int64, payload []byte) error {
	raw := make([]byte, block.Size)
	binary.NativeEndian.PutUint64(raw[:linkFieldSize], uint64(next))
	copy(raw[linkFieldSize:], payload)
	return device.WriteBlock(block.OffsetToBlockNumber(blockOffset), raw)
}

// setNext rewrites only the next-block pointer of an existing block, leaving
// its payload untouched.
func setNext(device *block.Device, blockOffset int64, next int64) error {
	_, payload, err := ReadLink(device, blockOffset)
	if err != nil {
		return err
	}
	return writeLink(device, blockOffset, next, payload)
}

// allocateZeroed allocates a fresh block, writes it as an all-zero block
// (an empty payload with a chain-terminating next pointer), and returns its
// byte offset. The block is fully persisted before any table or chain link
// is made to point at it, per the handler persist-ordering rule: a crash
// right after this call leaves only a leaked allocation, never a dangling
// pointer.
func allocateZeroed(device *block.Device, alloc *bitmap.Allocator) (int64, error) {
	blockNumber, err := alloc.Allocate()
	if err != nil {
		return 0, err
	}
	if err := device.WriteBlock(blockNumber, make([]byte, block.Size)); err != nil {
		return 0, err
	}
	return block.BlockNumberToOffset(blockNumber), nil
}

// AllocateChain allocates the single zeroed data block a newly created file
// starts with and returns its byte offset.
func AllocateChain(device *block.Device, alloc *bitmap.Allocator) (int64, error) {
	return allocateZeroed(device, alloc)
}

// Read copies up to size bytes starting at offset from the chain beginning
// at startOffset, stopping at the lesser of the requested size and the
// number of bytes remaining in a file of fileSize bytes. It never reads past
// fileSize, which is what keeps a read of a file whose last block ends
// exactly on a block boundary from wandering into the stale bytes beyond a
// nextBlock == 0 terminator.
func Read(device *block.Device, startOffset int64, fileSize, offset, size int64) ([]byte, error) {
	if size <= 0 || offset >= fileSize {
		return nil, nil
	}

	remainingInFile := fileSize - offset
	toRead := size
	if remainingInFile < toRead {
		toRead = remainingInFile
	}

	blockIndex := offset / PayloadSize
	posInBlock := offset % PayloadSize

	cur := startOffset
	for i := int64(0); i < blockIndex; i++ {
		next, _, err := ReadLink(device, cur)
		if err != nil {
			return nil, err
		}
		if next == 0 {
			return nil, errors.IOFailed.WithMessage("file chain ended before requested offset")
		}
		cur = next
	}

	result := make([]byte, 0, toRead)
	pos := posInBlock
	for int64(len(result)) < toRead {
		next, payload, err := ReadLink(device, cur)
		if err != nil {
			return nil, err
		}

		available := PayloadSize - pos
		remaining := toRead - int64(len(result))
		n := available
		if remaining < n {
			n = remaining
		}
		result = append(result, payload[pos:pos+n]...)
		pos += n

		if int64(len(result)) >= toRead {
			break
		}
		if next == 0 {
			// The file's recorded size promised more bytes than the chain
			// actually holds. Stop instead of reading past the terminator.
			break
		}
		cur = next
		pos = 0
	}
	return result, nil
}

// Write copies data into the chain beginning at startOffset, starting at
// offset bytes into the file. It extends the chain with newly allocated
// blocks as needed, including the edge case of appending exactly at a block
// boundary where offset falls one byte past the last existing block's
// payload. It returns the number of bytes written.
func Write(device *block.Device, alloc *bitmap.Allocator, startOffset int64, offset int64, data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	blockIndex := offset / PayloadSize
	posInBlock := offset % PayloadSize

	cur := startOffset
	for i := int64(0); i < blockIndex; i++ {
		next, _, err := ReadLink(device, cur)
		if err != nil {
			return 0, err
		}
		if next == 0 {
			newOffset, err := allocateZeroed(device, alloc)
			if err != nil {
				return 0, err
			}
			if err := setNext(device, cur, newOffset); err != nil {
				return 0, err
			}
			next = newOffset
		}
		cur = next
	}

	written := int64(0)
	pos := posInBlock
	for written < int64(len(data)) {
		next, payload, err := ReadLink(device, cur)
		if err != nil {
			return written, err
		}

		available := PayloadSize - pos
		remaining := int64(len(data)) - written
		n := available
		if remaining < n {
			n = remaining
		}
		copy(payload[pos:pos+n], data[written:written+n])
		written += n
		pos += n

		if written >= int64(len(data)) {
			if err := writeLink(device, cur, next, payload); err != nil {
				return written, err
			}
			break
		}

		if next == 0 {
			newOffset, err := allocateZeroed(device, alloc)
			if err != nil {
				return written, err
			}
			next = newOffset
		}
		if err := writeLink(device, cur, next, payload); err != nil {
			return written, err
		}
		cur = next
		pos = 0
	}

	return written, nil
}

// Free walks the chain starting at startOffset, releasing every block in the
// bitmap and zeroing its contents on disk, in the order: capture the next
// pointer, release the block, zero it, advance.
func Free(device *block.Device, alloc *bitmap.Allocator, startOffset int64) error {
	cur := startOffset
	for cur != 0 {
		next, _, err := ReadLink(device, cur)
		if err != nil {
			return err
		}

		blockNumber := block.OffsetToBlockNumber(cur)
		if err := alloc.Release(blockNumber); err != nil {
			return err
		}
		if err := device.WriteBlock(blockNumber, make([]byte, block.Size)); err != nil {
			return err
		}

		cur = next
	}
	return nil
}
