package board

import (
	"io"
	"os"

	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/mem"
	"github.com/sarchlab/a64dbt/register"
)

// AArch64 Linux syscall numbers the default handler recognizes.
const (
	SyscallOpenat    uint64 = 56
	SyscallClose     uint64 = 57
	SyscallRead      uint64 = 63
	SyscallWrite     uint64 = 64
	SyscallExit      uint64 = 93
	SyscallExitGroup uint64 = 94
)

// Linux error codes, negated into x0 on failure.
const (
	ENOENT = 2
	EIO    = 5
	EBADF  = 9
	ENOSYS = 38
)

// Guest open(2) flag bits (Linux generic syscall ABI, which AArch64 uses).
const (
	guestOWronly = 0x1
	guestORdwr   = 0x2
	guestOCreat  = 0x40
	guestOExcl   = 0x80
	guestOTrunc  = 0x200
	guestOAppend = 0x400
)

// maxPathLen bounds the NUL-terminated path string openat reads out of
// guest memory, guarding against a missing terminator walking off the end
// of mapped memory.
const maxPathLen = 4096

// translateOpenFlags maps the guest's open(2) flag bits onto the host
// os.OpenFile flags used to actually service the call.
func translateOpenFlags(guest uint64) int {
	var flags int
	switch {
	case guest&guestORdwr != 0:
		flags |= os.O_RDWR
	case guest&guestOWronly != 0:
		flags |= os.O_WRONLY
	default:
		flags |= os.O_RDONLY
	}
	if guest&guestOCreat != 0 {
		flags |= os.O_CREATE
	}
	if guest&guestOExcl != 0 {
		flags |= os.O_EXCL
	}
	if guest&guestOTrunc != 0 {
		flags |= os.O_TRUNC
	}
	if guest&guestOAppend != 0 {
		flags |= os.O_APPEND
	}
	return flags
}

// readCString reads a NUL-terminated string out of guest memory starting at
// addr, up to maxPathLen bytes.
func readCString(m mem.MMU, addr uint64) (string, error) {
	c := m.Frame(addr)
	buf := make([]byte, 0, 64)
	for i := 0; i < maxPathLen; i++ {
		b, err := c.ReadU8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", &mem.FaultError{Addr: addr, Op: "read"}
}

// SyscallResult reports what a handled system call did to execution.
type SyscallResult struct {
	Exited   bool
	ExitCode int64
}

// SyscallHandler services the SVC trap exec.Executor raises as a
// SystemCallError. imm carries the instruction's immediate operand (usually
// 0 on Linux, where the call number instead lives in x8 by convention); s
// and m are the same CPU state and MMU the instruction executed against, so
// the handler reads arguments and writes the return value in place.
type SyscallHandler interface {
	Handle(imm uint64, s *cpu.State, m mem.MMU) SyscallResult
}

// DefaultSyscallHandler implements the syscalls needed to run a static
// AArch64 Linux binary doing file I/O to completion: openat, close, read,
// write, exit. fds beyond 0/1/2 are backed by real host files through an
// FDTable.
type DefaultSyscallHandler struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	fdTable *FDTable
}

// NewDefaultSyscallHandler builds a handler writing to stdout/stderr; stdin
// reads as EOF until SetStdin is called.
func NewDefaultSyscallHandler(stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{stdout: stdout, stderr: stderr, fdTable: NewFDTable()}
}

// SetStdin installs a reader servicing the read(0, ...) syscall.
func (h *DefaultSyscallHandler) SetStdin(r io.Reader) {
	h.stdin = r
}

func (h *DefaultSyscallHandler) Handle(imm uint64, s *cpu.State, m mem.MMU) SyscallResult {
	switch s.ReadGpr(register.X8) {
	case SyscallOpenat:
		return h.handleOpenat(s, m)
	case SyscallClose:
		return h.handleClose(s)
	case SyscallRead:
		return h.handleRead(s, m)
	case SyscallWrite:
		return h.handleWrite(s, m)
	case SyscallExit, SyscallExitGroup:
		return SyscallResult{Exited: true, ExitCode: int64(s.ReadGpr(register.X0))}
	default:
		h.setError(s, ENOSYS)
		return SyscallResult{}
	}
}

// handleOpenat services openat(dirfd, pathname, flags, mode); dirfd is
// ignored (pathname is always resolved relative to the host process's own
// working directory, the only filesystem view this handler has).
func (h *DefaultSyscallHandler) handleOpenat(s *cpu.State, m mem.MMU) SyscallResult {
	pathPtr := s.ReadGpr(register.X1)
	flags := s.ReadGpr(register.X2)
	mode := s.ReadGpr(register.X3)

	path, err := readCString(m, pathPtr)
	if err != nil {
		h.setError(s, EIO)
		return SyscallResult{}
	}

	fd, err := h.fdTable.Open(path, translateOpenFlags(flags), os.FileMode(mode&0o777))
	if err != nil {
		h.setError(s, ENOENT)
		return SyscallResult{}
	}
	s.WriteGpr(register.X0, fd)
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleClose(s *cpu.State) SyscallResult {
	fd := s.ReadGpr(register.X0)
	if err := h.fdTable.Close(fd); err != nil {
		h.setError(s, EBADF)
		return SyscallResult{}
	}
	s.WriteGpr(register.X0, 0)
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleRead(s *cpu.State, m mem.MMU) SyscallResult {
	fd := s.ReadGpr(register.X0)
	bufPtr := s.ReadGpr(register.X1)
	count := s.ReadGpr(register.X2)

	if fd > 2 {
		_, hostFile, ok := h.fdTable.Get(fd)
		if !ok || hostFile == nil {
			h.setError(s, EBADF)
			return SyscallResult{}
		}
		buf := make([]byte, count)
		n, err := hostFile.Read(buf)
		if err != nil && n == 0 {
			s.WriteGpr(register.X0, 0)
			return SyscallResult{}
		}
		if n > 0 {
			if werr := m.Frame(bufPtr).Write(buf[:n]); werr != nil {
				h.setError(s, EIO)
				return SyscallResult{}
			}
		}
		s.WriteGpr(register.X0, uint64(n))
		return SyscallResult{}
	}

	if fd != 0 {
		h.setError(s, EBADF)
		return SyscallResult{}
	}
	if h.stdin == nil {
		s.WriteGpr(register.X0, 0)
		return SyscallResult{}
	}

	buf := make([]byte, count)
	n, err := h.stdin.Read(buf)
	if err != nil && n == 0 {
		s.WriteGpr(register.X0, 0)
		return SyscallResult{}
	}
	if n > 0 {
		if werr := m.Frame(bufPtr).Write(buf[:n]); werr != nil {
			h.setError(s, EIO)
			return SyscallResult{}
		}
	}
	s.WriteGpr(register.X0, uint64(n))
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) handleWrite(s *cpu.State, m mem.MMU) SyscallResult {
	fd := s.ReadGpr(register.X0)
	bufPtr := s.ReadGpr(register.X1)
	count := s.ReadGpr(register.X2)

	var w io.Writer
	switch fd {
	case 1:
		w = h.stdout
	case 2:
		w = h.stderr
	default:
		if fd <= 2 {
			h.setError(s, EBADF)
			return SyscallResult{}
		}
		_, hostFile, ok := h.fdTable.Get(fd)
		if !ok || hostFile == nil {
			h.setError(s, EBADF)
			return SyscallResult{}
		}
		w = hostFile
	}

	buf := make([]byte, count)
	if err := m.Frame(bufPtr).Read(buf); err != nil {
		h.setError(s, EIO)
		return SyscallResult{}
	}

	n, err := w.Write(buf)
	if err != nil {
		h.setError(s, EIO)
		return SyscallResult{}
	}
	s.WriteGpr(register.X0, uint64(n))
	return SyscallResult{}
}

func (h *DefaultSyscallHandler) setError(s *cpu.State, errno int) {
	s.WriteGpr(register.X0, uint64(-int64(errno)))
}
