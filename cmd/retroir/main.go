// Command retroir lifts a tiny textual x86 fixture into the SSA IR and
// can run the local constant-folding pass over the result.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/oisee/retroir/pkg/ir"
	"github.com/oisee/retroir/pkg/opt"
	"github.com/oisee/retroir/pkg/x86"
)

func liftFixture(path string) (*ir.BasicBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open fixture %s", path)
	}
	defer f.Close()

	insns, err := parseFixture(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse fixture")
	}

	bb := ir.NewBasicBlock("entry")
	mach := x86.DefaultMachine64{}
	for _, di := range insns {
		if err := x86.Lift(bb, di, mach); err != nil {
			return nil, err
		}
	}
	return bb, nil
}

func printBlock(bb *ir.BasicBlock) {
	for _, ins := range bb.Insns() {
		fmt.Println(ins.String(ir.StyleFull))
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "retroir",
		Short: "Lift a tiny x86 fixture into SSA IR and run the local optimizer over it",
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [fixture]",
		Short: "Lift a fixture and print its IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bb, err := liftFixture(args[0])
			if err != nil {
				return err
			}
			printBlock(bb)
			return nil
		},
	}

	foldCmd := &cobra.Command{
		Use:   "fold [fixture]",
		Short: "Lift a fixture, run constant folding, and print before/after",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bb, err := liftFixture(args[0])
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Println("-- before --")
			printBlock(bb)

			n := opt.ConstFold(bb)

			bold.Println("-- after --")
			printBlock(bb)
			fmt.Printf("%d rewrite(s)\n", n)
			return nil
		},
	}

	rootCmd.AddCommand(dumpCmd, foldCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
