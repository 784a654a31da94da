package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

func newSubtargetCommand(global *globalOptions) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "subtarget [OPTIONS]",
		Short: "Display the subtarget selected by --cpu and --features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(subtarget.CPUs(), "\n"))
				return nil
			}
			return runSubtarget(cmd, global)
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List the known processors")
	return cmd
}

func runSubtarget(cmd *cobra.Command, global *globalOptions) error {
	cfg, err := global.config(cmd)
	if err != nil {
		return err
	}
	st, err := cfg.Subtarget()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 1, ' ', 0)
	fmt.Fprintf(w, "CPU:\t%s\n", st.CPU())
	fmt.Fprintf(w, "Arch:\t%s\n", st.Arch())
	fmt.Fprintf(w, "Features:\t%s\n", st.FeatureBits())
	fmt.Fprintf(w, "Vector lanes:\t%d\n", st.VectorLanes())
	fmt.Fprintf(w, "Mem ops:\t%t\n", st.UsesMemOps())
	fmt.Fprintf(w, "Hardware divide:\t%t\n", st.HasHardwareDivide())
	fmt.Fprintf(w, "Position independent:\t%t\n", st.IsPositionIndependent())
	fmt.Fprintf(w, "Small data threshold:\t%d\n", st.SmallDataThreshold())
	fmt.Fprintf(w, "Slots:\t%d\n", st.Slots())
	return w.Flush()
}
