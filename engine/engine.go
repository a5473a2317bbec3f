// Package engine composes a file.Manager, a wal.Manager, and a buffer.Pool
// into the single handle an embedder or cmd/diskstore opens once per
// database directory. It introduces no on-disk state of its own.
package engine

import (
	"github.com/golang/glog"

	"github.com/luigitni/diskstore/buffer"
	"github.com/luigitni/diskstore/config"
	"github.com/luigitni/diskstore/file"
	"github.com/luigitni/diskstore/storage"
	"github.com/luigitni/diskstore/wal"
)

// Engine wires together the three managers that make up the storage core.
type Engine struct {
	cfg   config.Config
	files *file.Manager
	log   *wal.Manager
	pool  *buffer.Pool
}

// Open validates cfg and constructs the file manager, log manager, and
// buffer pool it describes.
func Open(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fm, err := file.New(cfg.Directory, cfg.BlockSize)
	if err != nil {
		return nil, err
	}

	lm, err := wal.NewManager(fm, cfg.LogFileName)
	if err != nil {
		fm.Close()
		return nil, err
	}

	pool := buffer.New(fm, lm, cfg.PoolCapacity)

	glog.V(1).Infof("engine: opened %q (block size=%d, pool capacity=%d)", cfg.Directory, cfg.BlockSize, cfg.PoolCapacity)

	return &Engine{
		cfg:   cfg,
		files: fm,
		log:   lm,
		pool:  pool,
	}, nil
}

// IsNew reports whether the database directory was created by this Open
// call, as opposed to an existing directory being reattached to.
func (e *Engine) IsNew() bool {
	return e.files.IsNew()
}

// Pin pins block through the buffer pool.
func (e *Engine) Pin(block storage.BlockID) (*buffer.Frame, error) {
	return e.pool.Pin(block)
}

// Unpin unpins block through the buffer pool.
func (e *Engine) Unpin(block storage.BlockID) {
	e.pool.Unpin(block)
}

// Available returns the number of currently unpinned frames.
func (e *Engine) Available() int {
	return e.pool.Available()
}

// AppendLog appends record to the write-ahead log and returns its LSN.
func (e *Engine) AppendLog(record []byte) (uint64, error) {
	return e.log.Append(record)
}

// FlushLog forces the log durable through lsn.
func (e *Engine) FlushLog(lsn uint64) error {
	return e.log.Flush(lsn)
}

// BackwardLogIterator returns an iterator over the log in reverse-insertion
// order, most recent record first.
func (e *Engine) BackwardLogIterator() (*wal.Iterator, error) {
	return e.log.BackwardIterator()
}

// AppendDataBlock appends a fresh zeroed block to name in the data file
// namespace and returns its id.
func (e *Engine) AppendDataBlock(name string) (storage.BlockID, error) {
	return e.files.AppendEmptyBlock(name)
}

// NumberOfBlocks returns the length of name, in blocks.
func (e *Engine) NumberOfBlocks(name string) (uint64, error) {
	return e.files.NumberOfBlocks(name)
}

// Close tears down the file manager, releasing every open handle and the
// directory's single-writer lock.
func (e *Engine) Close() error {
	return e.files.Close()
}
