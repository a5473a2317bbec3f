package buffer

import (
	"github.com/golang/glog"

	"github.com/luigitni/diskstore/storage"
)

// Pool is a fixed-capacity, non-blocking buffer pool. Its replacement
// policy is first-unpinned: a linear scan for any frame with a zero pin
// count. A smarter policy (LRU, clock) is a drop-in replacement for
// findUnpinned as long as it honors the same pin contract.
type Pool struct {
	frames    []*Frame
	available int
}

// New pre-allocates capacity distinct frames. The pool never grows beyond
// this; a full pool with no unpinned frame fails pin requests with
// storage.ErrUnavailable rather than waiting.
func New(fm blockStore, lm logFlusher, capacity int) *Pool {
	frames := make([]*Frame, capacity)
	for i := range frames {
		frames[i] = newFrame(fm, lm)
	}

	return &Pool{
		frames:    frames,
		available: capacity,
	}
}

// Available returns the number of currently unpinned frames.
func (p *Pool) Available() int {
	return p.available
}

func (p *Pool) findExisting(block storage.BlockID) *Frame {
	for _, f := range p.frames {
		if id, ok := f.Block(); ok && id.Equals(block) {
			return f
		}
	}
	return nil
}

func (p *Pool) findUnpinned() *Frame {
	for _, f := range p.frames {
		if !f.isPinned() {
			return f
		}
	}
	return nil
}

// Pin binds block to a frame and increments its pin count. If block is
// already resident, the existing frame is reused. Otherwise an unpinned
// frame is reassigned to block, flushing it first if it was dirty (this
// is the single point where the write-ahead-log rule is enforced: the log
// up through the evicted page's recorded LSN is forced durable before the
// page itself is written).
//
// Pin fails with storage.ErrUnavailable if every frame is pinned, leaving
// the pool's state unchanged.
func (p *Pool) Pin(block storage.BlockID) (*Frame, error) {
	if f := p.findExisting(block); f != nil {
		if !f.isPinned() {
			p.available--
		}
		f.pins++
		return f, nil
	}

	f := p.findUnpinned()
	if f == nil {
		return nil, storage.ErrUnavailable
	}

	if err := f.assignToBlock(block); err != nil {
		return nil, err
	}

	p.available--
	f.pins = 1

	glog.V(2).Infof("buffer: pinned %s", block)

	return f, nil
}

// Unpin decrements the pin count of the frame bound to block. It is a
// no-op if no frame is currently bound to block.
func (p *Pool) Unpin(block storage.BlockID) {
	f := p.findExisting(block)
	if f == nil {
		return
	}

	if f.pins == 0 {
		return
	}

	f.pins--
	if f.pins == 0 {
		p.available++
	}
}
