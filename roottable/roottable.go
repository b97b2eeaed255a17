// Package roottable reads and writes the root block: an ordered, densely
// packed list of directory descriptors.
package roottable

import (
	"encoding/binary"
	"strings"

	"github.com/noxer/bytewriter"

	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/errors"
)

const (
	nameFieldSize   = 9
	offsetFieldSize = 8
	descriptorSize  = nameFieldSize + offsetFieldSize
	countFieldSize  = 4

	// MaxDirectories is the number of directory descriptors that fit in a
	// root block alongside the leading count field.
	MaxDirectories = (block.Size - countFieldSize) / descriptorSize
)

// Descriptor is one entry of the root table: a directory's name and the byte
// offset of its directory block.
type Descriptor struct {
	Name        string
	StartOffset int64
}

// Table is the decoded contents of the root block. Directories is always
// densely packed: no empty slots between index 0 and len(Directories).
type Table struct {
	Directories []Descriptor
}

// Decode parses a raw 512-byte root block.
func Decode(raw []byte) (*Table, error) {
	if len(raw) != block.Size {
		return nil, errors.IOFailed.WithMessage("root block is not one block long")
	}

	count := int(binary.NativeEndian.Uint32(raw[0:countFieldSize]))
	if count < 0 || count > MaxDirectories {
		return nil, errors.IOFailed.WithMessage("root block nDirectories out of range")
	}

	dirs := make([]Descriptor, 0, count)
	offset := countFieldSize
	for i := 0; i < count; i++ {
		nameBytes := raw[offset : offset+nameFieldSize]
		name := strings.TrimRight(string(nameBytes), "\x00")
		start := int64(binary.NativeEndian.Uint64(raw[offset+nameFieldSize : offset+descriptorSize]))
		dirs = append(dirs, Descriptor{Name: name, StartOffset: start})
		offset += descriptorSize
	}

	return &Table{Directories: dirs}, nil
}

// Encode serializes the table back into a zero-padded 512-byte root block.
func Encode(t *Table) ([]byte, error) {
	buf := make([]byte, block.Size)
	w := bytewriter.New(buf)

	if err := binary.Write(w, binary.NativeEndian, int32(len(t.Directories))); err != nil {
		return nil, errors.IOFailed.WrapError(err)
	}

	for _, d := range t.Directories {
		nameBytes := make([]byte, nameFieldSize)
		copy(nameBytes, d.Name)
		if _, err := w.Write(nameBytes); err != nil {
			return nil, errors.IOFailed.WrapError(err)
		}
		if err := binary.Write(w, binary.NativeEndian, d.StartOffset); err != nil {
			return nil, errors.IOFailed.WrapError(err)
		}
	}

	return buf, nil
}

// Find does a linear scan for a directory by name.
func (t *Table) Find(name string) (int64, bool) {
	for _, d := range t.Directories {
		if d.Name == name {
			return d.StartOffset, true
		}
	}
	return 0, false
}

// Insert appends a new directory descriptor at index len(Directories). The
// caller is responsible for checking for a pre-existing entry with the same
// name; Insert never deduplicates.
func (t *Table) Insert(name string, startOffset int64) error {
	if len(t.Directories) >= MaxDirectories {
		return errors.NoSpace.WithMessage("root directory table is full")
	}
	t.Directories = append(t.Directories, Descriptor{Name: name, StartOffset: startOffset})
	return nil
}

// List returns every directory descriptor in order.
func (t *Table) List() []Descriptor {
	return t.Directories
}
