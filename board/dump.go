package board

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sarchlab/a64dbt/cpu"
	"github.com/sarchlab/a64dbt/register"
)

// DumpRegisters writes one line each for x0..x30, sp, pc and pstate,
// left-padded name (14 chars) followed by the hex value, per
// spec.md §6's register dump format.
func DumpRegisters(w io.Writer, s *cpu.State) error {
	ids := make([]register.Id, 0, 33)
	for n := uint8(0); n <= 30; n++ {
		ids = append(ids, register.X(n))
	}
	ids = append(ids, register.Sp, register.Pc)

	for _, id := range ids {
		if _, err := fmt.Fprintf(w, "%-14s0x%X\n", id.String(), s.ReadGpr(id)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%-14s0x%X\n", "pstate", s.Pstate); err != nil {
		return err
	}
	return nil
}

// dumpString renders DumpRegisters to a string, for embedding in PanicError.
func dumpString(s *cpu.State) string {
	var buf bytes.Buffer
	_ = DumpRegisters(&buf, s)
	return buf.String()
}
