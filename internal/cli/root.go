// Package cli implements the contractcheck command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Color     string // "auto" | "always" | "never"
	TestDir   string // overrides the configured test directory
	Workspace string // directory configuration is looked up from; empty means the working directory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidColors defines the allowed colour modes.
var ValidColors = []string{"auto", "always", "never"}

// NewRootCommand creates the root command for the contractcheck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contractcheck",
		Short: "Verify that contract-test programs fail the way they should",
		Long: `contractcheck runs programs built against a contracts library that
deliberately violate a pre-condition, assertion or post-condition, and checks
their exit code and output streams.

Release builds must exit with the sentinel code and print nothing. Debug builds
must print a diagnostic that matches an expected-output template.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main reports errors and picks the exit code
		Args:          noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !oneOf(opts.Format, ValidFormats) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !oneOf(opts.Color, ValidColors) {
				return NewExitError(ExitUsage, fmt.Sprintf("invalid color %q: must be one of %v", opts.Color, ValidColors))
			}
			setupLogging(opts.Verbose, cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitUsage, "invalid arguments", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colour output (auto|always|never)")
	cmd.PersistentFlags().StringVar(&opts.TestDir, "test-dir", "", "directory holding compiled test programs (default from config, else ./test)")
	cmd.PersistentFlags().StringVar(&opts.Workspace, "workspace", "", "directory to start the config lookup from (default: current directory)")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// setupLogging installs the default slog handler. Debug records are only
// emitted with --verbose.
func setupLogging(verbose bool, w io.Writer) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return WrapExitError(ExitUsage, "invalid arguments", err)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
