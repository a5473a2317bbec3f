package wal

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/luigitni/diskstore/storage"
)

// blockStore is the subset of file.Manager the log manager needs. Keeping
// it as an interface here, rather than importing the concrete type,
// mirrors how the rest of this engine decouples its managers from each
// other.
type blockStore interface {
	BlockSize() int
	Read(block storage.BlockID, dst []byte) error
	Write(block storage.BlockID, src []byte) error
	AppendEmptyBlock(name string) (storage.BlockID, error)
	NumberOfBlocks(name string) (uint64, error)
}

// Manager is the write-ahead log. It owns exactly one LogPage at a time -
// the tail of the log file - and assigns each appended record a
// monotonically increasing LSN.
type Manager struct {
	fm       blockStore
	filename string

	page         *LogPage
	currentBlock storage.BlockID

	latestLSN    uint64
	lastSavedLSN uint64

	// dirty is true when the current page holds records not yet known to
	// be durable on disk.
	dirty bool
}

// NewManager attaches to (or creates) the log file filename. If the file
// is empty, a fresh block is allocated and a new LogPage started; if it
// already holds blocks, the manager attaches to the last one and resumes
// appending into it.
//
// latestLSN and lastSavedLSN both start at zero: LSNs are not preserved
// across restarts by this design (see "LSN recovery on restart" in
// SPEC_FULL.md section 9).
func NewManager(fm blockStore, filename string) (*Manager, error) {
	count, err := fm.NumberOfBlocks(filename)
	if err != nil {
		return nil, err
	}

	man := &Manager{
		fm:       fm,
		filename: filename,
	}

	if count == 0 {
		block, err := fm.AppendEmptyBlock(filename)
		if err != nil {
			return nil, err
		}
		man.currentBlock = block
		man.page = NewLogPage(fm.BlockSize())
		glog.V(1).Infof("wal: starting fresh log %q at block 0", filename)
		return man, nil
	}

	block := storage.NewBlockID(filename, count-1)
	buf := make([]byte, fm.BlockSize())
	if err := fm.Read(block, buf); err != nil {
		return nil, err
	}

	man.currentBlock = block
	man.page = DecodeLogPage(buf)
	glog.V(1).Infof("wal: resumed log %q at block %d (%d records)", filename, block.Number(), man.page.NumRecords())

	return man, nil
}

// forceFlushCurrentPage persists the current page if it holds any record
// not already known to be durable. A page with zero records needs no
// write: either it is a brand new block (already zeroed on disk by
// AppendEmptyBlock) or it was just read back unmodified from disk.
func (m *Manager) forceFlushCurrentPage() error {
	if m.page.NumRecords() == 0 {
		m.lastSavedLSN = m.latestLSN
		m.dirty = false
		return nil
	}

	if err := m.fm.Write(m.currentBlock, m.page.Finish()); err != nil {
		return errors.Wrapf(err, "wal: flushing block %s", m.currentBlock)
	}

	m.lastSavedLSN = m.latestLSN
	m.dirty = false
	return nil
}

// Flush makes every record up through lsn durable on disk. It is a no-op
// when lsn is below the last saved LSN; otherwise the current page is
// force-flushed.
func (m *Manager) Flush(lsn uint64) error {
	if lsn < m.lastSavedLSN {
		return nil
	}
	return m.forceFlushCurrentPage()
}

// LastSavedLSN returns the highest LSN known to be durable on disk.
func (m *Manager) LastSavedLSN() uint64 {
	return m.lastSavedLSN
}

// Append adds record to the log and returns its assigned LSN. If the
// current page has no room, it is flushed, a new block is appended to the
// log file, and the record is retried against a fresh page - a record
// that still does not fit in an entirely empty block is a fatal
// programmer error, since no record may span blocks.
func (m *Manager) Append(record []byte) (uint64, error) {
	if !m.page.Add(record) {
		if err := m.forceFlushCurrentPage(); err != nil {
			return 0, err
		}

		block, err := m.fm.AppendEmptyBlock(m.filename)
		if err != nil {
			return 0, err
		}

		m.currentBlock = block
		m.page = NewLogPage(m.fm.BlockSize())

		if !m.page.Add(record) {
			panic(fmt.Sprintf("wal: record of %d bytes does not fit in an empty block", len(record)))
		}
	}

	m.dirty = true
	m.latestLSN++
	return m.latestLSN, nil
}
