// Package insts decodes AArch64 instruction words into Inst records.
//
// Usage:
//
//	d := insts.NewDecoder()
//	inst, err := d.Decode(raw) // raw: little-endian instruction bytes
package insts
