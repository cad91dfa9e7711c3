package insts

import "fmt"

// ErrUnknownInstruction reports a 32-bit word that matched no decode rule.
type ErrUnknownInstruction struct {
	Raw [4]byte
}

func (e ErrUnknownInstruction) Error() string {
	return fmt.Sprintf("insts: unknown instruction %02x%02x%02x%02x", e.Raw[3], e.Raw[2], e.Raw[1], e.Raw[0])
}

// ErrUnimplemented reports a word that matched a recognized instruction
// class but whose specific form this decoder does not yet lower.
type ErrUnimplemented struct {
	Category string
}

func (e ErrUnimplemented) Error() string {
	return fmt.Sprintf("insts: unimplemented instruction category %q", e.Category)
}
