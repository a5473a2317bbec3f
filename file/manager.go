// Package file implements fixed-size block I/O against a directory of
// files. It is the lowest layer of the storage engine: every other
// component reads and writes whole blocks through a Manager.
package file

import (
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/luigitni/diskstore/storage"
)

const versionMarkerName = ".diskstore-version"

// Manager reads and writes block_size-byte blocks to named files inside a
// single directory. It caches one open file handle per name for the
// lifetime of the Manager, so callers never pay the cost of opening a file
// more than once.
type Manager struct {
	directory string
	blockSize int
	isNew     bool

	openFiles map[string]*os.File
	lock      *os.File
}

// New opens (creating if necessary) the database directory, fixing
// blockSize as the unit of every subsequent read, write and append. It
// fails if directory exists and is not a directory, or if the directory
// cannot be written to.
func New(directory string, blockSize int) (*Manager, error) {
	info, err := os.Stat(directory)
	isNew := os.IsNotExist(err)

	switch {
	case isNew:
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, errors.Wrapf(err, "file: creating directory %q", directory)
		}
	case err != nil:
		return nil, errors.Wrapf(err, "file: stat %q", directory)
	case !info.IsDir():
		return nil, errors.Errorf("file: %q exists and is not a directory", directory)
	}

	if err := renameio.WriteFile(filepath.Join(directory, versionMarkerName), []byte("1\n"), 0o644); err != nil {
		return nil, errors.Wrapf(err, "file: %q is not writable", directory)
	}

	lock, err := acquireSingleWriterLock(directory)
	if err != nil {
		return nil, err
	}

	glog.V(1).Infof("file: opened database directory %q (new=%t, block size=%d)", directory, isNew, blockSize)

	return &Manager{
		directory: directory,
		blockSize: blockSize,
		isNew:     isNew,
		openFiles: make(map[string]*os.File),
		lock:      lock,
	}, nil
}

// acquireSingleWriterLock takes an exclusive, non-blocking flock on a
// sentinel file inside directory. This core is not thread-safe (see the
// single-writer assumption) - the lock turns a violation of that assumption
// into an immediate, loud failure instead of silent corruption.
func acquireSingleWriterLock(directory string) (*os.File, error) {
	path := filepath.Join(directory, ".diskstore-lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "file: opening lock file %q", path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "file: %q is already locked by another process", directory)
	}

	return f, nil
}

func (m *Manager) IsNew() bool {
	return m.isNew
}

func (m *Manager) BlockSize() int {
	return m.blockSize
}

func (m *Manager) getFile(name string) (*os.File, error) {
	if f, ok := m.openFiles[name]; ok {
		return f, nil
	}

	path := filepath.Join(m.directory, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "file: opening %q", path)
	}

	m.openFiles[name] = f
	return f, nil
}

// seekAndRun looks up (or opens) the file backing block, seeks to its
// starting offset, and runs fn against the resulting handle. It is the
// single internal primitive every other I/O method is built on.
func (m *Manager) seekAndRun(block storage.BlockID, fn func(*os.File) error) error {
	f, err := m.getFile(block.FileName())
	if err != nil {
		return err
	}

	offset := int64(block.Number()) * int64(m.blockSize)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrapf(err, "file: seeking to block %s", block)
	}

	return fn(f)
}

// Read fills dst, which must be exactly BlockSize() long, with the contents
// of block. Reading past the end of the file is not an error: dst is left
// as a block of zeros, since files are only ever extended explicitly via
// AppendEmptyBlock.
func (m *Manager) Read(block storage.BlockID, dst []byte) error {
	if len(dst) != m.blockSize {
		return errors.Errorf("file: read buffer has length %d, want block size %d", len(dst), m.blockSize)
	}

	err := m.seekAndRun(block, func(f *os.File) error {
		_, err := io.ReadFull(f, dst)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			for i := range dst {
				dst[i] = 0
			}
			return nil
		}
		return err
	})

	if err != nil {
		return errors.Wrapf(err, "file: reading block %s", block)
	}

	return nil
}

// Write persists src, which must be exactly BlockSize() long, to block and
// forces it durable before returning.
func (m *Manager) Write(block storage.BlockID, src []byte) error {
	if len(src) != m.blockSize {
		return errors.Errorf("file: write buffer has length %d, want block size %d", len(src), m.blockSize)
	}

	err := m.seekAndRun(block, func(f *os.File) error {
		if _, err := f.Write(src); err != nil {
			return err
		}
		return unix.Fdatasync(int(f.Fd()))
	})

	if err != nil {
		return errors.Wrapf(err, "file: writing block %s", block)
	}

	return nil
}

// NumberOfBlocks returns the length of name, in blocks. A trailing partial
// block is a fatal corruption of the on-disk invariant and aborts the
// process rather than returning a silently truncated count.
func (m *Manager) NumberOfBlocks(name string) (uint64, error) {
	f, err := m.getFile(name)
	if err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "file: stat %q", name)
	}

	size := info.Size()
	if size%int64(m.blockSize) != 0 {
		panic(errors.Errorf("file: %q has size %d, not a multiple of block size %d", name, size, m.blockSize).Error())
	}

	return uint64(size) / uint64(m.blockSize), nil
}

// AppendEmptyBlock assigns the next block number in name, writes a fresh
// zeroed block there, and returns its id.
func (m *Manager) AppendEmptyBlock(name string) (storage.BlockID, error) {
	count, err := m.NumberOfBlocks(name)
	if err != nil {
		return storage.BlockID{}, err
	}

	block := storage.NewBlockID(name, count)
	if err := m.Write(block, make([]byte, m.blockSize)); err != nil {
		return storage.BlockID{}, errors.Wrapf(err, "file: appending empty block to %q", name)
	}

	return block, nil
}

// Close releases every open file handle and the single-writer lock. It is
// safe to call once after the Manager is no longer needed.
func (m *Manager) Close() error {
	var firstErr error
	for name, f := range m.openFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "file: closing %q", name)
		}
	}

	if m.lock != nil {
		unix.Flock(int(m.lock.Fd()), unix.LOCK_UN)
		m.lock.Close()
	}

	return firstErr
}
