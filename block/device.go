// Package block implements the fixed-size block device the rest of the
// driver is built on: an image file addressed in 512-byte units, with every
// write flushed to the backing stream before the call returns.
package block

import (
	"io"

	"github.com/charlottechen1993/os-project4/errors"
)

// Size is the fixed block size of the disk image, in bytes. ReadBlock and
// WriteBlock always transfer exactly this many bytes; ReadAt and WriteAt
// take arbitrary byte offsets and lengths.
const Size = 512

// syncer is implemented by *os.File and anything else that can force its
// writes out to stable storage. Streams that don't implement it (e.g. an
// in-memory buffer used in tests) are flushed implicitly by Go's own writes.
type syncer interface {
	Sync() error
}

// Device is a block-addressable view over an io.ReadWriteSeeker. It never
// retains buffered state between calls: every method seeks, performs its I/O,
// and flushes before returning, so the caller can assume durability the
// instant a call succeeds.
type Device struct {
	TotalBlocks uint32
	stream      io.ReadWriteSeeker
}

// New wraps stream as a Device with totalBlocks blocks of Size bytes each.
func New(stream io.ReadWriteSeeker, totalBlocks uint32) *Device {
	return &Device{TotalBlocks: totalBlocks, stream: stream}
}

// offsetOf converts a block number to a byte offset, failing if the block is
// outside [0, TotalBlocks).
func (d *Device) offsetOf(n uint32) (int64, error) {
	if n >= d.TotalBlocks {
		return 0, errors.IOFailed.WithMessage("block number out of range")
	}
	return int64(n) * Size, nil
}

// ReadBlock reads the full Size bytes of block n.
func (d *Device) ReadBlock(n uint32) ([]byte, error) {
	offset, err := d.offsetOf(n)
	if err != nil {
		return nil, err
	}
	return d.ReadAt(offset, Size)
}

// WriteBlock overwrites block n with data, which must be exactly Size bytes.
func (d *Device) WriteBlock(n uint32, data []byte) error {
	if len(data) != Size {
		return errors.IOFailed.WithMessage("write_block requires exactly one block of data")
	}
	offset, err := d.offsetOf(n)
	if err != nil {
		return err
	}
	return d.WriteAt(offset, data)
}

// ReadAt reads length bytes starting at the given byte offset, regardless of
// block boundaries. Used for the trailing bitmap region, which isn't
// block-aligned to file content the way root/directory/data blocks are.
func (d *Device) ReadAt(offset int64, length int) ([]byte, error) {
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return nil, errors.IOFailed.WrapError(err)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return nil, errors.IOFailed.WrapError(err)
	}
	return buf, nil
}

// WriteAt writes data at the given byte offset and flushes the stream.
func (d *Device) WriteAt(offset int64, data []byte) error {
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return errors.IOFailed.WrapError(err)
	}

	if _, err := d.stream.Write(data); err != nil {
		return errors.IOFailed.WrapError(err)
	}

	if s, ok := d.stream.(syncer); ok {
		if err := s.Sync(); err != nil {
			return errors.IOFailed.WrapError(err)
		}
	}
	return nil
}

// SeekFromEnd seeks to negativeOffset bytes before the end of the stream and
// returns the resulting absolute offset. negativeOffset is expected to be
// zero or negative; it's used to locate the trailing bitmap region from the
// end of the image rather than hard-coding the image size.
func (d *Device) SeekFromEnd(negativeOffset int64) (int64, error) {
	offset, err := d.stream.Seek(negativeOffset, io.SeekEnd)
	if err != nil {
		return 0, errors.IOFailed.WrapError(err)
	}
	return offset, nil
}

// BlockNumberToOffset converts a block number to the byte offset stored on
// disk wherever the format records a "start block" — root and directory
// descriptors persist this byte offset directly rather than a bare block
// index, matching the original image layout.
func BlockNumberToOffset(n uint32) int64 {
	return int64(n) * Size
}

// OffsetToBlockNumber is the inverse of BlockNumberToOffset.
func OffsetToBlockNumber(offset int64) uint32 {
	return uint32(offset / Size)
}

// ImageSize returns the total size of the backing image, in bytes.
func (d *Device) ImageSize() (int64, error) {
	size, err := d.stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.IOFailed.WrapError(err)
	}
	return size, nil
}
