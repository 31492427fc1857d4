package main

import (
	"os"

	"github.com/spf13/cobra"

	"smooth/internal/cli"
)

func main() {
	command := NewSmoothCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewSmoothCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smooth [command] [flags]",
		Short: "smooth evaluates the costs and emissions of energy system models.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdRun())
	cmd.AddCommand(cli.NewCmdEvaluate())
	cmd.AddCommand(cli.NewCmdAnnuity())
	cmd.AddCommand(cli.NewCmdVersion())
	return cmd
}
