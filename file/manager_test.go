package file

import (
	"testing"

	"github.com/luigitni/diskstore/storage"
)

const testBlockSize = 64

func TestWriteReadRoundTrip(t *testing.T) {
	fm, err := New(t.TempDir(), testBlockSize)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	defer fm.Close()

	block, err := fm.AppendEmptyBlock("data.tbl")
	if err != nil {
		t.Fatalf("AppendEmptyBlock: %s", err)
	}

	src := make([]byte, testBlockSize)
	copy(src, "hello block")
	if err := fm.Write(block, src); err != nil {
		t.Fatalf("Write: %s", err)
	}

	dst := make([]byte, testBlockSize)
	if err := fm.Read(block, dst); err != nil {
		t.Fatalf("Read: %s", err)
	}

	if string(dst) != string(src) {
		t.Fatalf("expected read to return what was written")
	}
}

func TestReadPastEndOfFileReturnsZeros(t *testing.T) {
	fm, err := New(t.TempDir(), testBlockSize)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	defer fm.Close()

	dst := make([]byte, testBlockSize)
	for i := range dst {
		dst[i] = 0xff
	}

	block := storage.NewBlockID("nonexistent.tbl", 0)
	if err := fm.Read(block, dst); err != nil {
		t.Fatalf("Read: %s", err)
	}

	for i, b := range dst {
		if b != 0 {
			t.Fatalf("expected byte %d to be zero, got %d", i, b)
		}
	}
}

func TestNumberOfBlocksGrowsWithAppend(t *testing.T) {
	fm, err := New(t.TempDir(), testBlockSize)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	defer fm.Close()

	if n, err := fm.NumberOfBlocks("data.tbl"); err != nil || n != 0 {
		t.Fatalf("expected 0 blocks for a nonexistent file, got (%d, %v)", n, err)
	}

	if _, err := fm.AppendEmptyBlock("data.tbl"); err != nil {
		t.Fatalf("AppendEmptyBlock: %s", err)
	}
	if _, err := fm.AppendEmptyBlock("data.tbl"); err != nil {
		t.Fatalf("AppendEmptyBlock: %s", err)
	}

	n, err := fm.NumberOfBlocks("data.tbl")
	if err != nil {
		t.Fatalf("NumberOfBlocks: %s", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 blocks, got %d", n)
	}
}

func TestAppendEmptyBlockAssignsSequentialNumbers(t *testing.T) {
	fm, err := New(t.TempDir(), testBlockSize)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	defer fm.Close()

	first, err := fm.AppendEmptyBlock("data.tbl")
	if err != nil {
		t.Fatalf("AppendEmptyBlock: %s", err)
	}
	second, err := fm.AppendEmptyBlock("data.tbl")
	if err != nil {
		t.Fatalf("AppendEmptyBlock: %s", err)
	}

	if first.Number() != 0 || second.Number() != 1 {
		t.Fatalf("expected block numbers 0 and 1, got %d and %d", first.Number(), second.Number())
	}
}

func TestWriteRejectsWrongSizedBuffer(t *testing.T) {
	fm, err := New(t.TempDir(), testBlockSize)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	defer fm.Close()

	block := storage.NewBlockID("data.tbl", 0)
	if err := fm.Write(block, make([]byte, testBlockSize-1)); err == nil {
		t.Fatal("expected an error writing an undersized buffer")
	}
}

func TestSecondManagerCannotAcquireLock(t *testing.T) {
	dir := t.TempDir()

	fm, err := New(dir, testBlockSize)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	defer fm.Close()

	if _, err := New(dir, testBlockSize); err == nil {
		t.Fatal("expected a second Manager over the same directory to fail to acquire the lock")
	}
}
