// Package dirtable reads and writes a directory block: an ordered, densely
// packed list of file descriptors.
package dirtable

import (
	"encoding/binary"
	"strings"

	"github.com/noxer/bytewriter"
	"golang.org/x/exp/slices"

	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/errors"
)

const (
	nameFieldSize   = 9
	extFieldSize    = 4
	sizeFieldSize   = 8
	offsetFieldSize = 8
	descriptorSize  = nameFieldSize + extFieldSize + sizeFieldSize + offsetFieldSize
	countFieldSize  = 4

	// MaxFiles is the number of file descriptors that fit in a directory
	// block alongside the leading count field.
	MaxFiles = (block.Size - countFieldSize) / descriptorSize
)

// Descriptor is one entry of a directory table.
type Descriptor struct {
	Name        string
	Ext         string
	Size        int64
	StartOffset int64
}

// Table is the decoded contents of a directory block, densely packed: no
// empty slots between index 0 and len(Files).
type Table struct {
	Files []Descriptor
}

// Decode parses a raw 512-byte directory block.
func Decode(raw []byte) (*Table, error) {
	if len(raw) != block.Size {
		return nil, errors.IOFailed.WithMessage("directory block is not one block long")
	}

	count := int(binary.NativeEndian.Uint32(raw[0:countFieldSize]))
	if count < 0 || count > MaxFiles {
		return nil, errors.IOFailed.WithMessage("directory block nFiles out of range")
	}

	files := make([]Descriptor, 0, count)
	offset := countFieldSize
	for i := 0; i < count; i++ {
		name := strings.TrimRight(string(raw[offset:offset+nameFieldSize]), "\x00")
		extOff := offset + nameFieldSize
		ext := strings.TrimRight(string(raw[extOff:extOff+extFieldSize]), "\x00")
		sizeOff := extOff + extFieldSize
		size := int64(binary.NativeEndian.Uint64(raw[sizeOff : sizeOff+sizeFieldSize]))
		startOff := sizeOff + sizeFieldSize
		start := int64(binary.NativeEndian.Uint64(raw[startOff : startOff+offsetFieldSize]))

		files = append(files, Descriptor{Name: name, Ext: ext, Size: size, StartOffset: start})
		offset += descriptorSize
	}

	return &Table{Files: files}, nil
}

// Encode serializes the table back into a zero-padded 512-byte directory
// block.
func Encode(t *Table) ([]byte, error) {
	buf := make([]byte, block.Size)
	w := bytewriter.New(buf)

	if err := binary.Write(w, binary.NativeEndian, int32(len(t.Files))); err != nil {
		return nil, errors.IOFailed.WrapError(err)
	}

	for _, f := range t.Files {
		nameBytes := make([]byte, nameFieldSize)
		copy(nameBytes, f.Name)
		if _, err := w.Write(nameBytes); err != nil {
			return nil, errors.IOFailed.WrapError(err)
		}

		extBytes := make([]byte, extFieldSize)
		copy(extBytes, f.Ext)
		if _, err := w.Write(extBytes); err != nil {
			return nil, errors.IOFailed.WrapError(err)
		}

		if err := binary.Write(w, binary.NativeEndian, f.Size); err != nil {
			return nil, errors.IOFailed.WrapError(err)
		}
		if err := binary.Write(w, binary.NativeEndian, f.StartOffset); err != nil {
			return nil, errors.IOFailed.WrapError(err)
		}
	}

	return buf, nil
}

// Find does a linear scan for a file by (name, ext).
func (t *Table) Find(name, ext string) (Descriptor, bool) {
	for _, f := range t.Files {
		if f.Name == name && f.Ext == ext {
			return f, true
		}
	}
	return Descriptor{}, false
}

// Insert appends a new zero-size file descriptor at index len(Files). The
// caller is responsible for checking for a pre-existing (name, ext) pair;
// Insert never deduplicates.
func (t *Table) Insert(name, ext string, startOffset int64) error {
	if len(t.Files) >= MaxFiles {
		return errors.NoSpace.WithMessage("directory is full")
	}
	t.Files = append(t.Files, Descriptor{Name: name, Ext: ext, Size: 0, StartOffset: startOffset})
	return nil
}

// UpdateSize rewrites the stored size of an existing file descriptor.
func (t *Table) UpdateSize(name, ext string, newSize int64) bool {
	for i := range t.Files {
		if t.Files[i].Name == name && t.Files[i].Ext == ext {
			t.Files[i].Size = newSize
			return true
		}
	}
	return false
}

// Remove deletes the (name, ext) entry, shifting every later entry left by
// one slot to keep the table densely packed (invariant 6).
func (t *Table) Remove(name, ext string) bool {
	i := slices.IndexFunc(t.Files, func(f Descriptor) bool {
		return f.Name == name && f.Ext == ext
	})
	if i < 0 {
		return false
	}
	t.Files = slices.Delete(t.Files, i, i+1)
	return true
}

// List returns every file descriptor in order, including empty-name slots
// should any exist (callers rendering readdir output must skip those).
func (t *Table) List() []Descriptor {
	return t.Files
}
