package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/a64dbt/board"
	"github.com/sarchlab/a64dbt/loader"
)

var rootCmd = &cobra.Command{
	Use:   "a64dbt",
	Short: "a64dbt translates and runs static AArch64 Linux binaries",
}

func init() {
	rootCmd.AddCommand(runCmd, regsCmd, stepCmd)
}

// loadBoard builds a Board, loads prog's segments into it, and applies the
// max-instruction and breakpoint flags common to every subcommand.
func loadBoard(programPath string, maxInstr uint64, breakpoints []string) (*board.Board, error) {
	prog, err := loader.Load(programPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", programPath, err)
	}

	var opts []board.Option
	if maxInstr > 0 {
		opts = append(opts, board.WithMaxInstructions(maxInstr))
	}
	b := board.NewBoard(opts...)

	if err := b.LoadProgram(prog); err != nil {
		return nil, fmt.Errorf("loading segments: %w", err)
	}

	for _, raw := range breakpoints {
		addr, err := strconv.ParseUint(raw, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid breakpoint address %q: %w", raw, err)
		}
		b.AddBreakpoint(addr)
	}

	return b, nil
}
