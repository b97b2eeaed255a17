// Package fsck checks a mounted image against the structural invariants the
// driver is supposed to maintain: bitmap/table agreement on which blocks are
// in use, and name uniqueness within the root and directory tables. It's a
// read-only auditor, not a repair tool — every violation found is collected
// and returned together rather than stopping at the first one.
package fsck

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/charlottechen1993/os-project4/bitmap"
	"github.com/charlottechen1993/os-project4/block"
	"github.com/charlottechen1993/os-project4/chain"
	"github.com/charlottechen1993/os-project4/dirtable"
	"github.com/charlottechen1993/os-project4/roottable"
)

// Check audits device, whose bitmap region covers totalBlocks blocks, and
// returns a multierror.Error aggregating every invariant violation found, or
// nil if none were.
func Check(device *block.Device, totalBlocks uint32) error {
	var result *multierror.Error

	alloc, err := bitmap.Load(device, totalBlocks)
	if err != nil {
		return err
	}

	reachable := make(map[uint32]bool)
	reachable[0] = true

	rootRaw, err := device.ReadBlock(0)
	if err != nil {
		return err
	}
	root, err := roottable.Decode(rootRaw)
	if err != nil {
		return err
	}

	seenDirNames := make(map[string]bool)
	for _, dir := range root.List() {
		if seenDirNames[dir.Name] {
			result = multierror.Append(result, fmt.Errorf("duplicate directory name %q in root table", dir.Name))
		}
		seenDirNames[dir.Name] = true

		dirBlock := block.OffsetToBlockNumber(dir.StartOffset)
		reachable[dirBlock] = true
		if !alloc.IsUsed(dirBlock) {
			result = multierror.Append(result, fmt.Errorf("directory %q start block %d is not marked used", dir.Name, dirBlock))
		}

		raw, err := device.ReadBlock(dirBlock)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		dt, err := dirtable.Decode(raw)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		seenFileNames := make(map[string]bool)
		for _, f := range dt.Files {
			if f.Name == "" {
				continue
			}
			key := f.Name + "." + f.Ext
			if seenFileNames[key] {
				result = multierror.Append(result, fmt.Errorf("duplicate file %q in directory %q", key, dir.Name))
			}
			seenFileNames[key] = true

			if err := checkChain(device, alloc, reachable, f, dir.Name); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	for i := uint32(1); i < totalBlocks; i++ {
		if alloc.IsUsed(i) && !reachable[i] {
			result = multierror.Append(result, fmt.Errorf("block %d is marked used but unreachable from any table", i))
		}
	}

	return result.ErrorOrNil()
}

func checkChain(device *block.Device, alloc *bitmap.Allocator, reachable map[uint32]bool, f dirtable.Descriptor, dirName string) error {
	var result *multierror.Error

	visited := make(map[int64]bool)
	cur := f.StartOffset
	hops := 0
	maxHops := (f.Size+int64(chain.PayloadSize)-1)/int64(chain.PayloadSize) + 1
	if maxHops < 1 {
		maxHops = 1
	}

	for cur != 0 {
		if visited[cur] {
			result = multierror.Append(result, fmt.Errorf("chain for %q in %q loops back on block offset %d", f.Name+"."+f.Ext, dirName, cur))
			break
		}
		visited[cur] = true

		blockNumber := block.OffsetToBlockNumber(cur)
		reachable[blockNumber] = true
		if !alloc.IsUsed(blockNumber) {
			result = multierror.Append(result, fmt.Errorf("block %d in chain for %q in %q is not marked used", blockNumber, f.Name+"."+f.Ext, dirName))
		}

		next, _, err := chain.ReadLink(device, cur)
		if err != nil {
			result = multierror.Append(result, err)
			break
		}

		hops++
		if int64(hops) > maxHops {
			result = multierror.Append(result, fmt.Errorf("chain for %q in %q exceeds expected length for its recorded size %d", f.Name+"."+f.Ext, dirName, f.Size))
			break
		}
		cur = next
	}

	return result.ErrorOrNil()
}
