package wal

import "github.com/luigitni/diskstore/storage"

// Iterator walks the log from the current (most recent) block backward to
// block zero, yielding records in reverse-insertion order within each
// block before reading the previous block from disk.
type Iterator struct {
	fm    blockStore
	block storage.BlockID
	page  *PageIterator
}

// BackwardIterator forces the current page to disk, then returns an
// iterator starting at the tail of the log.
func (m *Manager) BackwardIterator() (*Iterator, error) {
	if err := m.forceFlushCurrentPage(); err != nil {
		return nil, err
	}

	buf := make([]byte, m.fm.BlockSize())
	if err := m.fm.Read(m.currentBlock, buf); err != nil {
		return nil, err
	}

	page := DecodeLogPage(buf)

	return &Iterator{
		fm:    m.fm,
		block: m.currentBlock,
		page:  page.BackwardIterator(),
	}, nil
}

// Next returns the next record in reverse order. It returns ok=false once
// block zero has been fully consumed.
func (it *Iterator) Next() (record []byte, ok bool, err error) {
	for {
		if rec, ok := it.page.Next(); ok {
			return rec, true, nil
		}

		prev, hasPrev := it.block.Previous()
		if !hasPrev {
			return nil, false, nil
		}

		buf := make([]byte, it.fm.BlockSize())
		if err := it.fm.Read(prev, buf); err != nil {
			return nil, false, err
		}

		it.block = prev
		it.page = DecodeLogPage(buf).BackwardIterator()
	}
}
