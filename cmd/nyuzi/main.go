package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"github.com/xyproto/env/v2"

	"github.com/tetratelabs/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
	"github.com/tetratelabs/nyuzi/internal/version"
)

func main() {
	doMain(os.Stdout, os.Stderr, atexit.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	cmd := newRootCommand(nyuzi.NewDefaultRegistry(), stdOut, stdErr)
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdErr, "error: %v\n", err)
		exit(1)
	}
	exit(0)
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	target    string
	cpu       string
	features  string
	pic       bool
	logLevel  string
	logFormat string
}

func newRootCommand(registry *nyuzi.Registry, stdOut, stdErr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "nyuzi",
		Short:         "Nyuzi assembler and target tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdOut)
	cmd.SetErr(stdErr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.target, "target", "nyuzi", "Target name")
	flags.StringVar(&opts.cpu, "cpu", env.Str("NYUZI_CPU", subtarget.GenericCPU),
		"Processor name. Defaults to $NYUZI_CPU")
	flags.StringVar(&opts.features, "features", env.Str("NYUZI_FEATURES"),
		"Comma separated feature string, such as +hvx,-memops. Defaults to $NYUZI_FEATURES")
	flags.BoolVar(&opts.pic, "pic", env.Bool("NYUZI_PIC"), "Generate position independent code")
	flags.StringVar(&opts.logLevel, "log-level", "warning", "Log level: debug, info, warning or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")

	cmd.AddCommand(
		newAsmCommand(registry, opts),
		newSubtargetCommand(opts),
		newRelocCommand(),
		newTargetsCommand(registry),
		newVersionCommand(),
	)
	return cmd
}

// logger returns the logger configured by the global flags, which writes to the error stream of cmd.
func (o *globalOptions) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(cmd.ErrOrStderr())
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --log-level")
	}
	l.SetLevel(level)
	switch o.logFormat {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("invalid --log-format %q", o.logFormat)
	}
	return l, nil
}

// config returns the target config described by the global flags.
func (o *globalOptions) config(cmd *cobra.Command) (*nyuzi.TargetConfig, error) {
	l, err := o.logger(cmd)
	if err != nil {
		return nil, err
	}
	cfg := nyuzi.NewTargetConfig().
		WithCPU(o.cpu).
		WithFeatures(o.features).
		WithLogger(l.WithField("target", o.target))
	if o.pic {
		cfg = cfg.WithRelocationModel(nyuzi.RelocationModelPIC)
	}
	// Validate early, so that every command reports a bad CPU the same way.
	if _, err = cfg.Subtarget(); err != nil {
		return nil, errors.Wrap(err, "invalid --cpu")
	}
	return cfg, nil
}

func newTargetsCommand(registry *nyuzi.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the registered targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, t := range registry.Targets() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.Name(), t.Description())
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the version of the nyuzi CLI",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion())
		},
	}
}
