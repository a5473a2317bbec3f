// Package storage holds the primitive types shared by every layer of the
// storage engine: block addressing (BlockID) and the on-disk field encoding
// (the codec) that datapage.DataPage and wal.LogPage both encode their
// directories with.
package storage

import "fmt"

// BlockID identifies a fixed-size slot within a named file.
// It is a small value type: cheap to copy, comparable with ==.
type BlockID struct {
	filename string
	number   uint64
}

// NewBlockID returns the block identified by filename and number.
func NewBlockID(filename string, number uint64) BlockID {
	return BlockID{filename: filename, number: number}
}

func (b BlockID) FileName() string {
	return b.filename
}

func (b BlockID) Number() uint64 {
	return b.number
}

// Previous returns the block preceding b in the same file, and false if b is
// already block zero.
func (b BlockID) Previous() (BlockID, bool) {
	if b.number == 0 {
		return BlockID{}, false
	}

	return BlockID{filename: b.filename, number: b.number - 1}, true
}

func (b BlockID) Equals(other BlockID) bool {
	return b.filename == other.filename && b.number == other.number
}

func (b BlockID) String() string {
	return fmt.Sprintf("file %q block %d", b.filename, b.number)
}
