package fuseserver

import (
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/charlottechen1993/os-project4/fsdriver"
)

// Mount starts serving driver's namespace at mountPoint and returns the
// running server. Callers call Wait on the result to block until the mount
// is torn down (e.g. by fusermount -u).
func Mount(mountPoint string, driver *fsdriver.Driver, opts *fs.Options) (*fuse.Server, error) {
	root := &Node{driver: driver, path: "/"}
	return fs.Mount(mountPoint, root, opts)
}
