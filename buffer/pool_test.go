package buffer

import (
	"testing"

	"github.com/luigitni/diskstore/storage"
)

// mockBlockStore is an in-memory stand-in for file.Manager that records how
// many times each block was written, so tests can assert on write-ahead-log
// ordering without touching disk.
type mockBlockStore struct {
	blockSize int
	blocks    map[storage.BlockID][]byte
	writes    int
	failNext  bool
}

func newMockBlockStore(blockSize int) *mockBlockStore {
	return &mockBlockStore{
		blockSize: blockSize,
		blocks:    make(map[storage.BlockID][]byte),
	}
}

func (m *mockBlockStore) BlockSize() int { return m.blockSize }

func (m *mockBlockStore) Read(block storage.BlockID, dst []byte) error {
	if buf, ok := m.blocks[block]; ok {
		copy(dst, buf)
		return nil
	}
	for i := range dst {
		dst[i] = 0
	}
	return nil
}

func (m *mockBlockStore) Write(block storage.BlockID, src []byte) error {
	if m.failNext {
		m.failNext = false
		return errWriteFailed
	}
	m.writes++
	buf := make([]byte, len(src))
	copy(buf, src)
	m.blocks[block] = buf
	return nil
}

var errWriteFailed = fakeError("buffer: simulated write failure")

type fakeError string

func (e fakeError) Error() string { return string(e) }

// mockLogFlusher records every LSN it was asked to flush.
type mockLogFlusher struct {
	flushed  []uint64
	failNext bool
}

func (m *mockLogFlusher) Flush(lsn uint64) error {
	if m.failNext {
		m.failNext = false
		return errFlushFailed
	}
	m.flushed = append(m.flushed, lsn)
	return nil
}

var errFlushFailed = fakeError("buffer: simulated flush failure")

const testBlockSize = 64

func TestPinReusesExistingFrame(t *testing.T) {
	pool := New(newMockBlockStore(testBlockSize), &mockLogFlusher{}, 2)

	block := storage.NewBlockID("data.tbl", 0)

	f1, err := pool.Pin(block)
	if err != nil {
		t.Fatalf("Pin: %s", err)
	}
	f2, err := pool.Pin(block)
	if err != nil {
		t.Fatalf("Pin: %s", err)
	}

	if f1 != f2 {
		t.Fatal("expected pinning the same block twice to return the same frame")
	}
	if got := f1.Pins(); got != 2 {
		t.Fatalf("expected pin count 2, got %d", got)
	}
}

func TestUnavailableWhenPoolIsFull(t *testing.T) {
	fm := newMockBlockStore(testBlockSize)
	pool := New(fm, &mockLogFlusher{}, 1)

	a := storage.NewBlockID("data.tbl", 0)
	b := storage.NewBlockID("data.tbl", 1)

	if _, err := pool.Pin(a); err != nil {
		t.Fatalf("Pin a: %s", err)
	}

	_, err := pool.Pin(b)
	if err != storage.ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if got := pool.Available(); got != 0 {
		t.Fatalf("expected pool state to be unchanged on failure, available=%d", got)
	}
}

func TestUnpinFreesFrameForReuse(t *testing.T) {
	fm := newMockBlockStore(testBlockSize)
	pool := New(fm, &mockLogFlusher{}, 1)

	a := storage.NewBlockID("data.tbl", 0)
	b := storage.NewBlockID("data.tbl", 1)

	if _, err := pool.Pin(a); err != nil {
		t.Fatalf("Pin a: %s", err)
	}

	pool.Unpin(a)
	if got := pool.Available(); got != 1 {
		t.Fatalf("expected 1 available frame after unpin, got %d", got)
	}

	if _, err := pool.Pin(b); err != nil {
		t.Fatalf("Pin b: %s", err)
	}
}

func TestDirtyFrameIsFlushedBeforeEviction(t *testing.T) {
	fm := newMockBlockStore(testBlockSize)
	flusher := &mockLogFlusher{}
	pool := New(fm, flusher, 1)

	a := storage.NewBlockID("data.tbl", 0)
	b := storage.NewBlockID("data.tbl", 1)

	frame, err := pool.Pin(a)
	if err != nil {
		t.Fatalf("Pin a: %s", err)
	}

	frame.Page().AddU32(42)
	frame.SetModified(1, 7)
	pool.Unpin(a)

	if _, err := pool.Pin(b); err != nil {
		t.Fatalf("Pin b: %s", err)
	}

	if len(flusher.flushed) != 1 || flusher.flushed[0] != 7 {
		t.Fatalf("expected the log to be flushed through LSN 7 before eviction, got %v", flusher.flushed)
	}
	if fm.writes != 1 {
		t.Fatalf("expected exactly one write to the backing store, got %d", fm.writes)
	}
}

func TestFailedFlushLeavesFrameStateIntact(t *testing.T) {
	fm := newMockBlockStore(testBlockSize)
	flusher := &mockLogFlusher{failNext: true}
	pool := New(fm, flusher, 1)

	a := storage.NewBlockID("data.tbl", 0)
	b := storage.NewBlockID("data.tbl", 1)

	frame, err := pool.Pin(a)
	if err != nil {
		t.Fatalf("Pin a: %s", err)
	}
	frame.SetModified(1, 3)
	pool.Unpin(a)

	if _, err := pool.Pin(b); err == nil {
		t.Fatal("expected Pin to fail when the flush fails")
	}

	block, ok := frame.Block()
	if !ok || !block.Equals(a) {
		t.Fatalf("expected frame to remain bound to its old block after a failed flush")
	}
	if frame.ModifyingTx() != 1 {
		t.Fatalf("expected frame to remain dirty after a failed flush")
	}
}
