package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tetratelabs/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/asm"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/asmparser"
)

type asmOptions struct {
	format string
	output string
	base   uint32
}

func newAsmCommand(registry *nyuzi.Registry, global *globalOptions) *cobra.Command {
	opts := &asmOptions{}
	cmd := &cobra.Command{
		Use:   "asm [OPTIONS] FILE",
		Short: "Assemble a source file",
		Long: `Assemble a source file. Use "-" to read standard input.

The text format prints the parsed instructions back in canonical syntax. The bin format writes the linked
image, and the hex format dumps it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsm(cmd, registry, global, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.format, "format", "text", "Output format: text, bin or hex")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the output to this file instead of standard output")
	flags.Uint32Var(&opts.base, "base", 0, "Load address of the linked image")
	return cmd
}

func runAsm(cmd *cobra.Command, registry *nyuzi.Registry, global *globalOptions, opts *asmOptions, path string) error {
	if opts.format != "text" && opts.format != "bin" && opts.format != "hex" {
		return errors.Errorf("invalid --format %q", opts.format)
	}
	target, err := registry.Lookup(global.target)
	if err != nil {
		return err
	}
	cfg, err := global.config(cmd)
	if err != nil {
		return err
	}
	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer f.Close()
		out = f
	}

	var streamer asm.Streamer
	var obj *asm_nyuzi.ObjectStreamer
	if opts.format == "text" {
		streamer = asm_nyuzi.NewPrinter(out)
	} else {
		obj = asm_nyuzi.NewObjectStreamer(cfg.Logger())
		streamer = obj
	}

	p, err := target.NewAsmParser(cfg, streamer)
	if err != nil {
		return err
	}
	if err = p.Parse(source); err != nil {
		var diags asmparser.DiagnosticList
		if !errors.As(err, &diags) {
			return errors.Wrap(err, path)
		}
		for _, d := range diags {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s:%v\n", path, d)
		}
		return errors.Errorf("%s: %d error(s)", path, len(diags))
	}
	if obj == nil {
		return nil
	}

	o, err := obj.Finish()
	if err != nil {
		return errors.Wrap(err, path)
	}
	image, err := o.Link(opts.base)
	if err != nil {
		return errors.Wrap(err, path)
	}
	cfg.Logger().WithField("bytes", len(image)).Info("linked image")
	if opts.format == "hex" {
		_, err = io.WriteString(out, hex.Dump(image))
	} else {
		_, err = out.Write(image)
	}
	return errors.Wrap(err, "writing output")
}

func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return b, errors.Wrap(err, "reading standard input")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return b, nil
}
