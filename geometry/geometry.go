// Package geometry holds named disk-image size presets: the image-creation
// tool's equivalent of a floppy-format table, sized for this driver's
// one-byte-per-block bitmap instead of an FS's cluster geometry.
package geometry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/charlottechen1993/os-project4/block"
)

// Geometry describes one predefined image size.
type Geometry struct {
	Slug        string `csv:"slug"`
	Description string `csv:"description"`
	// TotalBlocks is B: the number of 512-byte blocks addressed by the Block
	// Device. The trailing bitmap region is exactly TotalBlocks bytes, one
	// per block.
	TotalBlocks uint32 `csv:"total_blocks"`
}

// BitmapBytes is the size of the trailing bitmap region: one byte per block.
func (g Geometry) BitmapBytes() int64 {
	return int64(g.TotalBlocks)
}

// TotalImageBytes is the full size an image file must be pre-sized to:
// B * 512 bytes of blocks plus the B-byte bitmap region.
func (g Geometry) TotalImageBytes() int64 {
	return int64(g.TotalBlocks)*block.Size + g.BitmapBytes()
}

//go:embed geometries.csv
var rawCSV string

var presets map[string]Geometry

func init() {
	presets = make(map[string]Geometry)
	reader := strings.NewReader(rawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := presets[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry preset %q", row.Slug)
		}
		presets[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Lookup returns a predefined geometry by slug.
func Lookup(slug string) (Geometry, error) {
	g, ok := presets[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined image geometry named %q", slug)
	}
	return g, nil
}

// Default is the geometry named in the external interface spec: a 5 MiB
// image with B = 10240 blocks.
func Default() Geometry {
	g, err := Lookup("default")
	if err != nil {
		panic(err)
	}
	return g
}
