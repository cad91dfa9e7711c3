package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/a64dbt/board"
)

var (
	stepCount       uint64
	stepBreakpoints []string
)

var stepCmd = &cobra.Command{
	Use:   "step <program.elf>",
	Short: "Execute one or more instructions and print the register file after each",
	Args:  cobra.ExactArgs(1),
	RunE:  runStep,
}

func init() {
	stepCmd.Flags().Uint64VarP(&stepCount, "count", "n", 1, "number of instructions to execute")
	stepCmd.Flags().StringArrayVar(&stepBreakpoints, "break", nil, "software breakpoint address, repeatable")
}

func runStep(cmd *cobra.Command, args []string) error {
	b, err := loadBoard(args[0], 0, stepBreakpoints)
	if err != nil {
		return err
	}

	for i := uint64(0); i < stepCount; i++ {
		reason, err := b.Step()
		if err != nil {
			var panicErr *board.PanicError
			if errors.As(err, &panicErr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "panic during execution: %v\n%s", panicErr.Recovered, panicErr.Dump)
				return nil
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "--- step %d: %v ---\n", i, reason.Kind)
		if err := DumpRegisters(cmd, b); err != nil {
			return err
		}

		if reason.Kind != board.StopDoneStep {
			break
		}
	}
	return nil
}
