// Command mkfs creates and formats a disk image for the two-level
// filesystem: it pre-sizes the image file, writes an empty root block, and
// reserves block 0 in the bitmap. It also exposes an fsck subcommand for
// auditing an existing image's structural invariants.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/charlottechen1993/os-project4/bitmap"
	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/fsck"
	"github.com/charlottechen1993/os-project4/geometry"
	"github.com/charlottechen1993/os-project4/roottable"
)

func main() {
	app := cli.App{
		Usage: "Create, format, and audit two-level filesystem images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image file",
				Action:    formatImage,
				ArgsUsage: "IMAGE_PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "geometry",
						Usage: "predefined geometry slug (default, tiny, floppy)",
						Value: "default",
					},
				},
			},
			{
				Name:      "fsck",
				Usage:     "Audit an existing image for structural inconsistencies",
				Action:    fsckImage,
				ArgsUsage: "IMAGE_PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "geometry",
						Usage: "predefined geometry slug the image was formatted with",
						Value: "default",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func formatImage(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing IMAGE_PATH argument", 1)
	}

	g, err := geometry.Lookup(c.String("geometry"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	if err := f.Truncate(g.TotalImageBytes()); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	dev := block.New(f, g.TotalBlocks)

	alloc, err := bitmap.Load(dev, g.TotalBlocks)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := alloc.MarkUsed(0); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	raw, err := roottable.Encode(&roottable.Table{})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := dev.WriteBlock(0, raw); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func fsckImage(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("missing IMAGE_PATH argument", 1)
	}

	g, err := geometry.Lookup(c.String("geometry"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer f.Close()

	dev := block.New(f, g.TotalBlocks)
	if err := fsck.Check(dev, g.TotalBlocks); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	log.Println("image is consistent")
	return nil
}
