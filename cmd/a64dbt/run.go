package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/a64dbt/board"
)

var (
	runMaxInstr    uint64
	runBreakpoints []string
)

var runCmd = &cobra.Command{
	Use:   "run <program.elf>",
	Short: "Translate and run a program to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Uint64Var(&runMaxInstr, "max-instr", 0, "max instructions to execute (0 = unlimited)")
	runCmd.Flags().StringArrayVar(&runBreakpoints, "break", nil, "software breakpoint address, repeatable")
}

func runRun(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(args[0], runMaxInstr, runBreakpoints)
	if err != nil {
		return err
	}

	reason, err := b.Run()
	if err != nil {
		var panicErr *board.PanicError
		if errors.As(err, &panicErr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "panic during execution: %v\n%s", panicErr.Recovered, panicErr.Dump)
			os.Exit(1)
		}
		return err
	}

	switch reason.Kind {
	case board.StopExit:
		fmt.Fprintf(cmd.OutOrStdout(), "exit code: %d\n", reason.ExitCode)
		fmt.Fprintf(cmd.OutOrStdout(), "instructions executed: %d\n", b.InstructionCount())
		os.Exit(int(reason.ExitCode))
	case board.StopSwBreak:
		fmt.Fprintf(cmd.OutOrStdout(), "stopped at breakpoint 0x%X\n", reason.Addr)
		return DumpRegisters(cmd, b)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "stopped: %v\n", reason.Kind)
	}
	return nil
}
