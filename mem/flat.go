package mem

import "encoding/binary"

// Flat is a sparse, page-free guest address space backed by a byte map. It
// is the reference MMU implementation used by the board's default
// configuration and by tests; a real emulator would substitute a real MMU
// behind the same interface.
type Flat struct {
	pages       map[uint64][]byte
	watchpoints []Watchpoint
}

const flatPageSize = 4096
const flatPageMask = flatPageSize - 1

// NewFlat creates an empty address space.
func NewFlat() *Flat {
	return &Flat{pages: make(map[uint64][]byte)}
}

func (f *Flat) page(addr uint64) []byte {
	base := addr &^ flatPageMask
	p, ok := f.pages[base]
	if !ok {
		p = make([]byte, flatPageSize)
		f.pages[base] = p
	}
	return p
}

// ReadBytes reads length bytes at addr without going through a Cursor,
// useful for the debug surface's memory-range reads.
func (f *Flat) ReadBytes(addr uint64, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		a := addr + uint64(i)
		out[i] = f.page(a)[a&flatPageMask]
	}
	return out
}

// WriteBytes writes buf at addr without going through a Cursor, used to
// load program images and by the debug surface's memory writes.
func (f *Flat) WriteBytes(addr uint64, buf []byte) {
	for i, b := range buf {
		a := addr + uint64(i)
		f.page(a)[a&flatPageMask] = b
	}
}

// Frame returns a cursor starting at addr.
func (f *Flat) Frame(addr uint64) Cursor {
	return &flatCursor{mem: f, addr: addr}
}

// AddWatchpoint registers a watchpoint. The core never evaluates
// watchpoints itself (that's the host debugger's job via the board); Flat
// only stores them so Watchpoints() can report hits to callers that choose
// to check.
func (f *Flat) AddWatchpoint(addr, length uint64, kind WatchKind) {
	f.watchpoints = append(f.watchpoints, Watchpoint{Addr: addr, Len: length, Kind: kind})
}

// RemoveWatchpoint removes a previously-added watchpoint with an identical
// range and kind.
func (f *Flat) RemoveWatchpoint(addr, length uint64, kind WatchKind) {
	out := f.watchpoints[:0]
	for _, w := range f.watchpoints {
		if w.Addr == addr && w.Len == length && w.Kind == kind {
			continue
		}
		out = append(out, w)
	}
	f.watchpoints = out
}

// Watchpoints returns the currently registered watchpoints.
func (f *Flat) Watchpoints() []Watchpoint {
	return f.watchpoints
}

// HitWatchpoint reports the first watchpoint (if any) that the given access
// trips, for callers that want to surface board.StopReasonWatch.
func (f *Flat) HitWatchpoint(addr, size uint64, isWrite bool) (Watchpoint, bool) {
	for _, w := range f.watchpoints {
		if w.Hit(addr, size, isWrite) {
			return w, true
		}
	}
	return Watchpoint{}, false
}

type flatCursor struct {
	mem  *Flat
	addr uint64
}

func (c *flatCursor) ReadU8() (uint8, error) {
	v := c.mem.ReadBytes(c.addr, 1)[0]
	c.addr++
	return v, nil
}

func (c *flatCursor) ReadU16() (uint16, error) {
	v := binary.LittleEndian.Uint16(c.mem.ReadBytes(c.addr, 2))
	c.addr += 2
	return v, nil
}

func (c *flatCursor) ReadU32() (uint32, error) {
	v := binary.LittleEndian.Uint32(c.mem.ReadBytes(c.addr, 4))
	c.addr += 4
	return v, nil
}

func (c *flatCursor) ReadU64() (uint64, error) {
	v := binary.LittleEndian.Uint64(c.mem.ReadBytes(c.addr, 8))
	c.addr += 8
	return v, nil
}

func (c *flatCursor) Read(buf []byte) error {
	copy(buf, c.mem.ReadBytes(c.addr, len(buf)))
	c.addr += uint64(len(buf))
	return nil
}

func (c *flatCursor) WriteU8(v uint8) error {
	c.mem.WriteBytes(c.addr, []byte{v})
	c.addr++
	return nil
}

func (c *flatCursor) WriteU16(v uint16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	c.mem.WriteBytes(c.addr, buf)
	c.addr += 2
	return nil
}

func (c *flatCursor) WriteU32(v uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	c.mem.WriteBytes(c.addr, buf)
	c.addr += 4
	return nil
}

func (c *flatCursor) WriteU64(v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	c.mem.WriteBytes(c.addr, buf)
	c.addr += 8
	return nil
}

func (c *flatCursor) Write(buf []byte) error {
	c.mem.WriteBytes(c.addr, buf)
	c.addr += uint64(len(buf))
	return nil
}

func (c *flatCursor) Consume(n int) error {
	c.addr += uint64(n)
	return nil
}
