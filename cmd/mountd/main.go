// Command mountd is the host entrypoint, with no program-specific flags. It
// takes the mount point as its first argument; any further arguments are
// ignored and not passed to the FUSE host. It opens ".disk" in the working
// directory and serves it at that mount point until the mount is torn down.
// The mount runs single-threaded, so one handler completes before the next
// request is dispatched.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/charlottechen1993/os-project4/fsdriver"
	"github.com/charlottechen1993/os-project4/fuseserver"
	"github.com/charlottechen1993/os-project4/geometry"
)

const imageName = ".disk"

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <mount-point>", os.Args[0])
	}
	mountPoint := os.Args[1]

	g := geometry.Default()
	driver := fsdriver.New(imageName, g.TotalBlocks)

	opts := &fs.Options{MountOptions: fuse.MountOptions{SingleThreaded: true}}
	server, err := fuseserver.Mount(mountPoint, driver, opts)
	if err != nil {
		log.Fatalf("mount failed: %s", err.Error())
	}

	// Catch the usual shutdown signals and unmount cleanly rather than
	// leaving a stale mount point behind if the process is killed.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		if err := unix.Unmount(mountPoint, 0); err != nil {
			log.Printf("unmount failed: %s", err.Error())
		}
	}()

	server.Wait()
}
