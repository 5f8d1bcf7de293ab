package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/contractcheck"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(CLIResponse{
					Status: "ok",
					Data:   map[string]string{"version": contractcheck.Version},
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), contractcheck.Version)
			return nil
		},
	}
}
