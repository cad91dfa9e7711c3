package board

import "os"

// fileDescriptor is one entry in an FDTable: either a host file opened on
// the guest's behalf (openat) or one of the three standard streams, which
// never carry a HostFile since their I/O goes through DefaultSyscallHandler's
// stdin/stdout/stderr fields instead.
type fileDescriptor struct {
	HostFile *os.File
	Path     string
	IsOpen   bool
}

// FDTable tracks guest file descriptors beyond stdin/stdout/stderr, so
// DefaultSyscallHandler can service openat/close/read/write against real
// host files (spec.md's syscall surface names read/write/exit; openat/close
// round it out to the minimum a static binary doing file I/O needs, per
// original_source's fuller syscall table).
type FDTable struct {
	fds    map[uint64]*fileDescriptor
	nextFD uint64
}

// NewFDTable returns a table with fds 0/1/2 pre-registered as open.
func NewFDTable() *FDTable {
	t := &FDTable{fds: make(map[uint64]*fileDescriptor), nextFD: 3}
	t.fds[0] = &fileDescriptor{Path: "stdin", IsOpen: true}
	t.fds[1] = &fileDescriptor{Path: "stdout", IsOpen: true}
	t.fds[2] = &fileDescriptor{Path: "stderr", IsOpen: true}
	return t
}

// Open opens path on the host and returns the guest fd assigned to it.
func (t *FDTable) Open(path string, flags int, mode os.FileMode) (uint64, error) {
	hostFile, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}
	fd := t.nextFD
	t.nextFD++
	t.fds[fd] = &fileDescriptor{HostFile: hostFile, Path: path, IsOpen: true}
	return fd, nil
}

// Close closes fd. Closing 0/1/2 only marks them closed; DefaultSyscallHandler
// owns the underlying stdin/stdout/stderr streams and never tears them down.
func (t *FDTable) Close(fd uint64) error {
	entry, ok := t.fds[fd]
	if !ok || !entry.IsOpen {
		return os.ErrInvalid
	}
	if fd > 2 && entry.HostFile != nil {
		if err := entry.HostFile.Close(); err != nil {
			return err
		}
		entry.HostFile = nil
	}
	entry.IsOpen = false
	return nil
}

// Get returns fd's entry if it is currently open.
func (t *FDTable) Get(fd uint64) (path string, hostFile *os.File, ok bool) {
	entry, exists := t.fds[fd]
	if !exists || !entry.IsOpen {
		return "", nil, false
	}
	return entry.Path, entry.HostFile, true
}
