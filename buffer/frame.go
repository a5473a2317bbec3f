// Package buffer implements the pinning buffer pool: a fixed-capacity
// array of frames that mediates between in-memory datapage.DataPage
// instances and the on-disk blocks a file.Manager serves, enforcing the
// write-ahead-log rule on every eviction.
package buffer

import (
	"github.com/luigitni/diskstore/datapage"
	"github.com/luigitni/diskstore/storage"
)

// blockStore is the subset of file.Manager a Frame needs to read and write
// the block it is bound to.
type blockStore interface {
	BlockSize() int
	Read(block storage.BlockID, dst []byte) error
	Write(block storage.BlockID, src []byte) error
}

// logFlusher is the subset of wal.Manager a Frame needs to honor the
// write-ahead-log rule before evicting a dirty page.
type logFlusher interface {
	Flush(lsn uint64) error
}

// dirtyInfo records which transaction last modified a frame's page and
// the LSN that must be durable before the page may be written back. Its
// presence, rather than a sentinel transaction number, is what marks a
// frame dirty.
type dirtyInfo struct {
	txn int64
	lsn uint64
}

// Frame is one slot of the buffer pool. A pinned frame (Pins() > 0) must
// never be reassigned to a different block.
type Frame struct {
	fm blockStore
	lm logFlusher

	page     *datapage.DataPage
	block    storage.BlockID
	hasBlock bool

	pins  int
	dirty *dirtyInfo
}

func newFrame(fm blockStore, lm logFlusher) *Frame {
	return &Frame{fm: fm, lm: lm}
}

// Page returns the frame's current page. It is only meaningful once the
// frame has been bound to a block.
func (f *Frame) Page() *datapage.DataPage {
	return f.page
}

// Block returns the block the frame is currently bound to, and false if
// the frame has never been assigned.
func (f *Frame) Block() (storage.BlockID, bool) {
	return f.block, f.hasBlock
}

// Pins returns the frame's current pin count.
func (f *Frame) Pins() int {
	return f.pins
}

func (f *Frame) isPinned() bool {
	return f.pins > 0
}

// SetModified records that txn last modified this frame's page and that
// lsn must be durable in the log before the page may be evicted.
func (f *Frame) SetModified(txn int64, lsn uint64) {
	f.dirty = &dirtyInfo{txn: txn, lsn: lsn}
}

// ModifyingTx returns the transaction that last dirtied the frame, or -1
// if the frame is clean.
func (f *Frame) ModifyingTx() int64 {
	if f.dirty == nil {
		return -1
	}
	return f.dirty.txn
}

// assignToBlock binds the frame to block, first flushing its previous
// contents if dirty. A flush failure leaves the frame exactly as it was:
// still bound to its old block and still dirty.
func (f *Frame) assignToBlock(block storage.BlockID) error {
	if f.dirty != nil {
		if err := f.lm.Flush(f.dirty.lsn); err != nil {
			return err
		}
		if err := f.fm.Write(f.block, f.page.Encode()); err != nil {
			return err
		}
		f.dirty = nil
	}

	buf := make([]byte, f.fm.BlockSize())
	if err := f.fm.Read(block, buf); err != nil {
		return err
	}

	f.page = datapage.DecodeFrom(buf)
	f.block = block
	f.hasBlock = true
	f.pins = 0

	return nil
}
