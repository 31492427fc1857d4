package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"smooth/internal/version"
)

func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print smooth version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "smooth version: %s\n", version.Get().String())
			return nil
		},
	}
}
