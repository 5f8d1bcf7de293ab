package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/deixis/contractcheck/internal/workflow"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	ProcessName    string
	ExpectedOutput string // path to the expected output file
	WorkingDir     string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compare a program's contract diagnostics with an expected file line by line",
		Long: `Run a program that prints contract violations and exits normally, and
compare its stderr with an expected file line by line.

The program must exit 0, write nothing to stdout and write to stderr. In the
expected file the characters [ ] * + ( ) . are literal, except that the
address pattern 0x[\da-f]+ matches any hexadecimal address. Every mismatching
line is reported.`,
		Example: `  contractcheck validate --process-name build/contract-violation --expected-output expected.txt`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ProcessName, "process-name", "", "program to run, relative to the workspace unless absolute (required)")
	cmd.Flags().StringVar(&opts.ExpectedOutput, "expected-output", "", "file holding the expected stderr (required)")
	cmd.Flags().StringVar(&opts.WorkingDir, "working-dir", "", "directory to run the program from, inside the workspace (default: the workspace root)")

	return cmd
}

func runValidate(rootOpts *RootOptions, opts *ValidateOptions, cmd *cobra.Command) error {
	p := newPrinter(rootOpts, cmd)

	if opts.ProcessName == "" {
		return p.fail(NewExitError(ExitUsage, "--process-name is required"))
	}
	if opts.ExpectedOutput == "" {
		return p.fail(NewExitError(ExitUsage, "--expected-output is required"))
	}

	eng, err := newEngine(rootOpts, 0)
	if err != nil {
		return p.fail(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep, err := eng.Validate(ctx, workflow.ValidateRequest{
		Process:      opts.ProcessName,
		ExpectedFile: opts.ExpectedOutput,
		Dir:          opts.WorkingDir,
	})
	if err != nil {
		return p.fail(fmt.Errorf("validate: %w", err))
	}
	return p.report(rep)
}
