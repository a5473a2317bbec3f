// Package wal implements the append-only write-ahead log: a LogPage with
// the same tail-directory layout as a datapage.DataPage but holding opaque
// byte-string records, and a LogManager that owns the current log block
// and provides backward iteration across block boundaries.
package wal

import (
	"fmt"

	"github.com/luigitni/diskstore/storage"
)

const reservedForCount = 2
const sizeOfOffsetEntry = 4

// LogPage packs records forward from offset zero and, once finalized,
// writes an offset directory and record count growing from the tail -
// identical in spirit to datapage.DataPage, but without a type vector:
// every record is an opaque byte string.
type LogPage struct {
	buf             []byte
	startingOffsets []uint32
	writeOffset     uint32
}

// NewLogPage returns an empty page backed by a fresh, zeroed buffer of
// blockSize bytes.
func NewLogPage(blockSize int) *LogPage {
	return &LogPage{buf: make([]byte, blockSize)}
}

// NumRecords returns how many records are currently held in the page.
func (p *LogPage) NumRecords() int {
	return len(p.startingOffsets)
}

// Add appends record to the page and returns true, or returns false
// without mutating the page if there is not enough free space left for the
// record, its length prefix, a new offset directory entry, and the
// existing directory plus count suffix.
func (p *LogPage) Add(record []byte) bool {
	existingDirectory := len(p.startingOffsets)*sizeOfOffsetEntry + reservedForCount
	free := len(p.buf) - int(p.writeOffset) - existingDirectory
	needed := storage.SizeNeededBytes(record) + sizeOfOffsetEntry

	if free < needed {
		return false
	}

	storage.EncodeBytes(p.buf, int(p.writeOffset), record)
	p.startingOffsets = append(p.startingOffsets, p.writeOffset)
	p.writeOffset += uint32(storage.SizeNeededBytes(record))
	return true
}

// Finish writes the offset directory and count at the tail of the page and
// returns the whole buffer. It is a fatal invariant violation to finish a
// page that holds no records.
func (p *LogPage) Finish() []byte {
	n := len(p.startingOffsets)
	if n == 0 {
		panic("wal: cannot finish a log page with no records")
	}

	countOffset := len(p.buf) - reservedForCount
	storage.EncodeU16(p.buf, countOffset, uint16(n))

	offsetsOffset := countOffset - n*sizeOfOffsetEntry
	for i, off := range p.startingOffsets {
		storage.EncodeU32(p.buf, offsetsOffset+i*sizeOfOffsetEntry, off)
	}

	return p.buf
}

// DecodeLogPage parses a block previously produced by Finish, or a fresh
// all-zero block (which decodes to a page with zero records).
func DecodeLogPage(buf []byte) *LogPage {
	if len(buf) == 0 {
		panic("wal: cannot decode an empty buffer")
	}

	countOffset := len(buf) - reservedForCount
	n, _ := storage.DecodeU16(buf, countOffset)

	page := &LogPage{buf: buf}
	if n == 0 {
		return page
	}

	offsetsOffset := countOffset - int(n)*sizeOfOffsetEntry
	offsets := make([]uint32, n)
	for i := range offsets {
		v, _ := storage.DecodeU32(buf, offsetsOffset+i*sizeOfOffsetEntry)
		offsets[i] = v
	}

	page.startingOffsets = offsets
	page.writeOffset = uint32(storage.Bytes.EndOffset(buf, int(offsets[n-1])))

	return page
}

// PageIterator walks a single LogPage's records in reverse-insertion
// order. It borrows the page's buffer directly - no record is copied.
type PageIterator struct {
	page  *LogPage
	index int
}

// BackwardIterator returns an iterator positioned at the page's last
// record.
func (p *LogPage) BackwardIterator() *PageIterator {
	return &PageIterator{page: p, index: len(p.startingOffsets) - 1}
}

// Next returns the next record in reverse order, and false once the page
// is exhausted.
func (it *PageIterator) Next() ([]byte, bool) {
	if it.index < 0 {
		return nil, false
	}

	off := it.page.startingOffsets[it.index]
	record, _ := storage.DecodeBytes(it.page.buf, int(off))
	it.index--
	return record, true
}

func (p *LogPage) String() string {
	return fmt.Sprintf("LogPage(%d records, write offset %d)", len(p.startingOffsets), p.writeOffset)
}
