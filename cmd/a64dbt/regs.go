package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/a64dbt/board"
)

var (
	regsMaxInstr    uint64
	regsBreakpoints []string
)

var regsCmd = &cobra.Command{
	Use:   "regs <program.elf>",
	Short: "Run a program until it stops, then dump its registers",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegs,
}

func init() {
	regsCmd.Flags().Uint64Var(&regsMaxInstr, "max-instr", 0, "max instructions to execute (0 = unlimited)")
	regsCmd.Flags().StringArrayVar(&regsBreakpoints, "break", nil, "software breakpoint address, repeatable")
}

func runRegs(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(args[0], regsMaxInstr, regsBreakpoints)
	if err != nil {
		return err
	}

	reason, err := b.Run()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stopped: %v\n", reason.Kind)
	return DumpRegisters(cmd, b)
}

// DumpRegisters writes b's register file to cmd's configured output,
// shared by the run, regs and step subcommands.
func DumpRegisters(cmd *cobra.Command, b *board.Board) error {
	return board.DumpRegisters(cmd.OutOrStdout(), b.Cpu)
}
