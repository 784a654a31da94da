package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tetratelabs/nyuzi/internal/reloc"
)

func newRelocCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reloc [NAME|NUMBER...]",
		Short: "Translate relocation names and numbers",
		Long:  "Translate each relocation name to its number and each number to its name. Without arguments, list them all.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReloc(cmd, args)
		},
	}
}

func runReloc(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, k := range reloc.Kinds() {
			fmt.Fprintf(out, "%d\t%s\n", uint32(k), k)
		}
		return nil
	}
	for _, arg := range args {
		if n, err := strconv.ParseUint(arg, 0, 32); err == nil {
			name, err := reloc.StringFromKind(reloc.Kind(n))
			if err != nil {
				return errors.WithStack(err)
			}
			fmt.Fprintln(out, name)
			continue
		}
		k, err := reloc.KindFromString(arg)
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Fprintln(out, uint32(k))
	}
	return nil
}
