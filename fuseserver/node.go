// Package fuseserver hosts the request handlers in fsdriver behind a FUSE
// mount, using github.com/hanwen/go-fuse/v2. Every Node just remembers the
// path it represents; all actual state lives on disk and is reached through
// a *fsdriver.Driver, matching the handler protocol's no-retained-state rule.
package fuseserver

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/charlottechen1993/os-project4/errors"
	"github.com/charlottechen1993/os-project4/fsdriver"
)

// Node is a FUSE inode bound to one path in the two-level namespace.
type Node struct {
	fs.Inode
	driver *fsdriver.Driver
	path   string
}

var (
	_ = (fs.NodeGetattrer)((*Node)(nil))
	_ = (fs.NodeLookuper)((*Node)(nil))
	_ = (fs.NodeReaddirer)((*Node)(nil))
	_ = (fs.NodeMkdirer)((*Node)(nil))
	_ = (fs.NodeCreater)((*Node)(nil))
	_ = (fs.NodeUnlinker)((*Node)(nil))
	_ = (fs.NodeOpener)((*Node)(nil))
	_ = (fs.NodeReader)((*Node)(nil))
	_ = (fs.NodeWriter)((*Node)(nil))
	_ = (fs.NodeFlusher)((*Node)(nil))
)

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

func statToAttr(st fsdriver.Stat, attr *fuse.Attr) {
	if st.IsDir() {
		attr.Mode = syscall.S_IFDIR | 0o755
	} else {
		attr.Mode = syscall.S_IFREG | 0o644
	}
	attr.Nlink = st.Nlinks
	attr.Size = uint64(st.Size)
}

// Getattr implements fs.NodeGetattrer.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	st, err := n.driver.Getattr(n.path)
	if err != nil {
		return errors.ToErrno(err)
	}
	statToAttr(st, &out.Attr)
	return 0
}

// Lookup implements fs.NodeLookuper.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	path := childPath(n.path, name)
	st, err := n.driver.Getattr(path)
	if err != nil {
		return nil, errors.ToErrno(err)
	}

	statToAttr(st, &out.Attr)
	child := &Node{driver: n.driver, path: path}
	mode := uint32(syscall.S_IFREG)
	if st.IsDir() {
		mode = syscall.S_IFDIR
	}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: mode}), 0
}

// Readdir implements fs.NodeReaddirer.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.driver.Readdir(n.path)
	if err != nil {
		return nil, errors.ToErrno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		mode := uint32(syscall.S_IFREG)
		if name == "." || name == ".." {
			mode = syscall.S_IFDIR
		} else if n.path == "/" {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: mode})
	}
	return fs.NewListDirStream(entries), 0
}

// Mkdir implements fs.NodeMkdirer.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	path := childPath(n.path, name)
	if err := n.driver.Mkdir(path); err != nil {
		return nil, errors.ToErrno(err)
	}

	out.Attr.Mode = syscall.S_IFDIR | 0o755
	child := &Node{driver: n.driver, path: path}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR}), 0
}

// Create implements fs.NodeCreater. It returns no file handle: reads and
// writes on the new file go to the child Node's own Read and Write, since
// this driver has no per-open state beyond the path.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	path := childPath(n.path, name)
	if err := n.driver.Mknod(path); err != nil {
		return nil, nil, 0, errors.ToErrno(err)
	}

	out.Attr.Mode = syscall.S_IFREG | 0o644
	child := &Node{driver: n.driver, path: path}
	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG})
	return inode, nil, 0, 0
}

// Unlink implements fs.NodeUnlinker.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return errors.ToErrno(n.driver.Unlink(childPath(n.path, name)))
}

// Open implements fs.NodeOpener. truncate/open/flush are stubs in the
// handler layer, so this just surfaces whatever they return.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, errors.ToErrno(n.driver.Open(n.path))
}

// Read implements fs.NodeReader.
func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, err := n.driver.Read(n.path, int64(len(dest)), off)
	if err != nil {
		return nil, errors.ToErrno(err)
	}
	return fuse.ReadResultData(data), 0
}

// Write implements fs.NodeWriter.
func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.driver.Write(n.path, data, off)
	if err != nil {
		return uint32(written), errors.ToErrno(err)
	}
	return uint32(written), 0
}

// Flush implements fs.NodeFlusher.
func (n *Node) Flush(ctx context.Context, f fs.FileHandle) syscall.Errno {
	return errors.ToErrno(n.driver.Flush(n.path))
}
