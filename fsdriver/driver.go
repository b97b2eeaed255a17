// Package fsdriver implements the request handlers that compose the block
// device, bitmap allocator, root/directory tables, and file chain I/O into
// the POSIX-shaped operations a userspace filesystem host dispatches:
// getattr, readdir, mkdir, mknod, unlink, read, write, and the open/flush/
// truncate/rmdir stubs.
//
// Every handler opens the image fresh on entry and closes it on every exit
// path, matching the single-threaded, no-retained-state model the host
// assumes: one handler runs to completion before the next begins, and
// nothing survives between calls except what's on disk.
package fsdriver

import (
	"os"

	"github.com/charlottechen1993/os-project4/bitmap"
	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/chain"
	"github.com/charlottechen1993/os-project4/dirtable"
	"github.com/charlottechen1993/os-project4/errors"
	"github.com/charlottechen1993/os-project4/pathname"
	"github.com/charlottechen1993/os-project4/roottable"
)

// Driver binds the handlers to one disk image. TotalBlocks is B: the number
// of 512-byte blocks addressed by the Block Device, not counting the
// trailing bitmap region.
type Driver struct {
	ImagePath   string
	TotalBlocks uint32
}

// New returns a Driver bound to an already-formatted image.
func New(imagePath string, totalBlocks uint32) *Driver {
	return &Driver{ImagePath: imagePath, TotalBlocks: totalBlocks}
}

// session is the per-handler-call image handle: an open file, the block
// device over it, and the bitmap allocator loaded from its tail.
type session struct {
	file   *os.File
	device *block.Device
	alloc  *bitmap.Allocator
}

func (d *Driver) open() (*session, error) {
	f, err := os.OpenFile(d.ImagePath, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.IOFailed.WrapError(err)
	}

	dev := block.New(f, d.TotalBlocks)
	alloc, err := bitmap.Load(dev, d.TotalBlocks)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &session{file: f, device: dev, alloc: alloc}, nil
}

func (s *session) close() {
	s.file.Close()
}

func loadRoot(dev *block.Device) (*roottable.Table, error) {
	raw, err := dev.ReadBlock(0)
	if err != nil {
		return nil, err
	}
	return roottable.Decode(raw)
}

func persistRoot(dev *block.Device, t *roottable.Table) error {
	raw, err := roottable.Encode(t)
	if err != nil {
		return err
	}
	return dev.WriteBlock(0, raw)
}

func loadDirTable(dev *block.Device, startOffset int64) (*dirtable.Table, error) {
	raw, err := dev.ReadBlock(block.OffsetToBlockNumber(startOffset))
	if err != nil {
		return nil, err
	}
	return dirtable.Decode(raw)
}

func persistDirTable(dev *block.Device, startOffset int64, t *dirtable.Table) error {
	raw, err := dirtable.Encode(t)
	if err != nil {
		return err
	}
	return dev.WriteBlock(block.OffsetToBlockNumber(startOffset), raw)
}

// Getattr implements getattr(path).
func (d *Driver) Getattr(path string) (Stat, error) {
	parsed := pathname.Parse(path)

	s, err := d.open()
	if err != nil {
		return Stat{}, err
	}
	defer s.close()

	switch parsed.Kind {
	case pathname.Root:
		return Stat{Mode: ModeDir, Nlinks: 2}, nil

	case pathname.Directory:
		root, err := loadRoot(s.device)
		if err != nil {
			return Stat{}, err
		}
		if _, ok := root.Find(parsed.Dir); ok {
			return Stat{Mode: ModeDir, Nlinks: 2}, nil
		}
		return Stat{}, errors.NotFound

	case pathname.File:
		root, err := loadRoot(s.device)
		if err != nil {
			return Stat{}, err
		}
		startOffset, ok := root.Find(parsed.Dir)
		if !ok {
			return Stat{}, errors.NotFound
		}
		dt, err := loadDirTable(s.device, startOffset)
		if err != nil {
			return Stat{}, err
		}
		entry, ok := dt.Find(parsed.Name, parsed.Ext)
		if !ok {
			return Stat{}, errors.NotFound
		}
		return Stat{Mode: ModeFile, Nlinks: 1, Size: entry.Size}, nil

	default:
		return Stat{}, errors.NotFound
	}
}

// Readdir implements readdir(path).
func (d *Driver) Readdir(path string) ([]string, error) {
	parsed := pathname.Parse(path)

	s, err := d.open()
	if err != nil {
		return nil, err
	}
	defer s.close()

	switch parsed.Kind {
	case pathname.Root:
		root, err := loadRoot(s.device)
		if err != nil {
			return nil, err
		}
		names := []string{".", ".."}
		for _, dir := range root.List() {
			names = append(names, dir.Name)
		}
		return names, nil

	case pathname.Directory:
		root, err := loadRoot(s.device)
		if err != nil {
			return nil, err
		}
		startOffset, ok := root.Find(parsed.Dir)
		if !ok {
			return nil, errors.NotFound
		}
		dt, err := loadDirTable(s.device, startOffset)
		if err != nil {
			return nil, err
		}
		names := []string{".", ".."}
		for _, f := range dt.List() {
			if f.Name == "" {
				continue
			}
			names = append(names, f.Name+"."+f.Ext)
		}
		return names, nil

	default:
		return nil, errors.NotFound
	}
}

// Mkdir implements mkdir(path). Error checks run in the priority order the
// handler protocol requires: EXISTS for the root path, NAME_TOO_LONG for an
// overlong directory name, OPERATION_NOT_PERMITTED for a two-level (file)
// path, then EXISTS again for a name collision in the Root Table.
func (d *Driver) Mkdir(path string) error {
	parsed := pathname.Parse(path)

	if parsed.Kind == pathname.Root {
		return errors.Exists
	}

	var dirName string
	switch parsed.Kind {
	case pathname.Directory:
		dirName = parsed.Dir
	case pathname.File:
		dirName = parsed.Dir
	default:
		return errors.OperationNotPermitted
	}

	if len(dirName) > pathname.MaxNameLength {
		return errors.NameTooLong
	}
	if parsed.Kind == pathname.File {
		return errors.OperationNotPermitted
	}

	s, err := d.open()
	if err != nil {
		return err
	}
	defer s.close()

	root, err := loadRoot(s.device)
	if err != nil {
		return err
	}
	if _, ok := root.Find(dirName); ok {
		return errors.Exists
	}

	blockNumber, err := s.alloc.Allocate()
	if err != nil {
		return err
	}
	if err := s.device.WriteBlock(blockNumber, make([]byte, block.Size)); err != nil {
		return err
	}
	startOffset := block.BlockNumberToOffset(blockNumber)

	if err := root.Insert(dirName, startOffset); err != nil {
		return err
	}
	return persistRoot(s.device, root)
}

// Mknod implements mknod(path, mode, dev). Error checks run in priority
// order: OPERATION_NOT_PERMITTED if the path isn't a two-level file path,
// NAME_TOO_LONG for an overlong name or extension, NOT_FOUND if the
// parent directory doesn't exist, EXISTS if the (name, ext) pair is already
// present. The existence check is a single linear Table.Find over the
// correct index range, which is what keeps duplicate detection correct.
func (d *Driver) Mknod(path string) error {
	parsed := pathname.Parse(path)

	if parsed.Kind != pathname.File {
		return errors.OperationNotPermitted
	}
	if len(parsed.Name) > pathname.MaxNameLength || len(parsed.Ext) > pathname.MaxExtLength {
		return errors.NameTooLong
	}

	s, err := d.open()
	if err != nil {
		return err
	}
	defer s.close()

	root, err := loadRoot(s.device)
	if err != nil {
		return err
	}
	startOffset, ok := root.Find(parsed.Dir)
	if !ok {
		return errors.NotFound
	}

	dt, err := loadDirTable(s.device, startOffset)
	if err != nil {
		return err
	}
	if _, ok := dt.Find(parsed.Name, parsed.Ext); ok {
		return errors.Exists
	}

	newOffset, err := chain.AllocateChain(s.device, s.alloc)
	if err != nil {
		return err
	}

	if err := dt.Insert(parsed.Name, parsed.Ext, newOffset); err != nil {
		return err
	}
	return persistDirTable(s.device, startOffset, dt)
}

// Unlink implements unlink(path).
func (d *Driver) Unlink(path string) error {
	parsed := pathname.Parse(path)

	if parsed.Kind == pathname.Root {
		return errors.IsDirectory
	}

	s, err := d.open()
	if err != nil {
		return err
	}
	defer s.close()

	root, err := loadRoot(s.device)
	if err != nil {
		return err
	}

	if parsed.Kind == pathname.Directory {
		if _, ok := root.Find(parsed.Dir); ok {
			return errors.IsDirectory
		}
		return errors.NotFound
	}
	if parsed.Kind != pathname.File {
		return errors.NotFound
	}

	startOffset, ok := root.Find(parsed.Dir)
	if !ok {
		return errors.NotFound
	}

	dt, err := loadDirTable(s.device, startOffset)
	if err != nil {
		return err
	}
	entry, ok := dt.Find(parsed.Name, parsed.Ext)
	if !ok {
		return errors.NotFound
	}

	if err := chain.Free(s.device, s.alloc, entry.StartOffset); err != nil {
		return err
	}
	dt.Remove(parsed.Name, parsed.Ext)
	return persistDirTable(s.device, startOffset, dt)
}

// Read implements read(path, buf, size, offset), returning the bytes
// actually copied.
func (d *Driver) Read(path string, size, offset int64) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	parsed := pathname.Parse(path)
	if parsed.Kind == pathname.Root || parsed.Kind == pathname.Directory {
		return nil, errors.IsDirectory
	}
	if parsed.Kind != pathname.File {
		return nil, errors.NotFound
	}

	s, err := d.open()
	if err != nil {
		return nil, err
	}
	defer s.close()

	root, err := loadRoot(s.device)
	if err != nil {
		return nil, err
	}
	startOffset, ok := root.Find(parsed.Dir)
	if !ok {
		return nil, errors.NotFound
	}

	dt, err := loadDirTable(s.device, startOffset)
	if err != nil {
		return nil, err
	}
	entry, ok := dt.Find(parsed.Name, parsed.Ext)
	if !ok {
		return nil, errors.NotFound
	}

	return chain.Read(s.device, entry.StartOffset, entry.Size, offset, size)
}

// Write implements write(path, buf, size, offset), returning the bytes
// actually written and updating the file's recorded size.
func (d *Driver) Write(path string, data []byte, offset int64) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	parsed := pathname.Parse(path)
	if parsed.Kind != pathname.File {
		return 0, errors.NotFound
	}

	s, err := d.open()
	if err != nil {
		return 0, err
	}
	defer s.close()

	root, err := loadRoot(s.device)
	if err != nil {
		return 0, err
	}
	startOffset, ok := root.Find(parsed.Dir)
	if !ok {
		return 0, errors.NotFound
	}

	dt, err := loadDirTable(s.device, startOffset)
	if err != nil {
		return 0, err
	}
	entry, ok := dt.Find(parsed.Name, parsed.Ext)
	if !ok {
		return 0, errors.NotFound
	}
	if offset > entry.Size {
		return 0, errors.FileTooBig
	}

	written, err := chain.Write(s.device, s.alloc, entry.StartOffset, offset, data)
	if err != nil {
		return written, err
	}

	newSize := entry.Size
	if offset+written > newSize {
		newSize = offset + written
	}
	dt.UpdateSize(parsed.Name, parsed.Ext, newSize)
	if err := persistDirTable(s.device, startOffset, dt); err != nil {
		return written, err
	}
	return written, nil
}

// Truncate is a stub required by the host protocol at file-creation time;
// the real initialization happens in Mknod.
func (d *Driver) Truncate(path string, size int64) error { return nil }

// Open has no per-call state: every handler opens the image anew.
func (d *Driver) Open(path string) error { return nil }

// Flush has no per-call state for the same reason as Open.
func (d *Driver) Flush(path string) error { return nil }

// Rmdir is a stub: directory blocks are never deallocated in this design.
func (d *Driver) Rmdir(path string) error { return nil }
