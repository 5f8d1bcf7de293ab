package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/contractcheck/internal/template"
	"github.com/deixis/contractcheck/internal/workflow"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	ProcessName        string
	Debug              string // parsed with strconv.ParseBool
	ExpectedOutput     string
	ExpectedOutputFile string
	Scheme             string
	Category           string
	WorkingDir         string
	Timeout            time.Duration
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a failing contract-test program and verify how it failed",
		Long: `Run a contract-test program once and verify that it failed its contract check.

Release builds (--debug false) must exit with the sentinel code (255 by
default, or be aborted) and write nothing to stdout or stderr.

Debug builds (--debug true) must exit non-zero, write nothing to stdout, and
write a diagnostic to stderr matching the expected-output template. On a
mismatch a unified diff is printed and the normalized texts are written to
$TMPDIR/contractcheck-<pid>/.`,
		Example: `  contractcheck check --process-name fail-expects --debug false
  contractcheck check --process-name fail-assert --debug true \
    --expected-output '{{source}}:7: assertion ` + "`argc == 0`" + ` failed in ` + "`main`" + `'
  contractcheck check --process-name fail-ensures-less --debug true \
    --scheme percent --expected-output-file expected/ensures.txt`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ProcessName, "process-name", "", "program to run, relative to the test directory unless absolute (required)")
	cmd.Flags().StringVar(&opts.Debug, "debug", "", "whether the program was built with debugging symbols: true or false (required)")
	cmd.Flags().StringVar(&opts.ExpectedOutput, "expected-output", "", "expected stderr template")
	cmd.Flags().StringVar(&opts.ExpectedOutputFile, "expected-output-file", "", "file holding the expected stderr template")
	cmd.Flags().StringVar(&opts.Scheme, "scheme", string(template.SchemeRegex), "template scheme (regex|percent)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "percent-scheme category, e.g. not_equal_to (default: derived from the program name)")
	cmd.Flags().StringVar(&opts.WorkingDir, "working-dir", "", "directory to run the program from, inside the workspace (default: the workspace root)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "override the configured timeout (e.g. 10s)")

	return cmd
}

// request validates the flags and builds the engine request.
func (o *CheckOptions) request() (workflow.CheckRequest, error) {
	if o.ProcessName == "" {
		return workflow.CheckRequest{}, NewExitError(ExitUsage, "--process-name is required")
	}
	if o.Debug == "" {
		return workflow.CheckRequest{}, NewExitError(ExitUsage, "--debug is required")
	}
	debug, err := strconv.ParseBool(o.Debug)
	if err != nil {
		return workflow.CheckRequest{}, NewExitError(ExitUsage, fmt.Sprintf("invalid --debug value %q: want true or false", o.Debug))
	}
	if o.ExpectedOutput != "" && o.ExpectedOutputFile != "" {
		return workflow.CheckRequest{}, NewExitError(ExitUsage, "--expected-output and --expected-output-file are mutually exclusive")
	}
	if _, err := template.ParseScheme(o.Scheme); err != nil {
		return workflow.CheckRequest{}, WrapExitError(ExitUsage, "invalid --scheme", err)
	}

	return workflow.CheckRequest{
		Process:      o.ProcessName,
		Debug:        debug,
		Expected:     o.ExpectedOutput,
		ExpectedFile: o.ExpectedOutputFile,
		Scheme:       o.Scheme,
		Category:     o.Category,
		Dir:          o.WorkingDir,
	}, nil
}

func runCheck(rootOpts *RootOptions, opts *CheckOptions, cmd *cobra.Command) error {
	p := newPrinter(rootOpts, cmd)

	req, err := opts.request()
	if err != nil {
		return p.fail(err)
	}

	eng, err := newEngine(rootOpts, opts.Timeout)
	if err != nil {
		return p.fail(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep, err := eng.Check(ctx, req)
	if err != nil {
		return p.fail(fmt.Errorf("check: %w", err))
	}
	return p.report(rep)
}
