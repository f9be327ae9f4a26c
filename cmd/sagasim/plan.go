package main

import (
	"fmt"

	"github.com/fortressi/saga/scenario"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <scenario.yaml>",
		Short: "Print the execution order of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			plan, err := s.Build()
			if err != nil {
				return err
			}

			if a.config.GetBool(keyPlanDot) {
				dot, err := plan.ExportDot()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, dot)
				return nil
			}

			for i, name := range plan.StepNames() {
				fmt.Fprintf(a.out, "%d. %s\n", i+1, name)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dot", false, "print the dependency graph in Graphviz format")
	_ = a.config.BindPFlag(keyPlanDot, cmd.Flags().Lookup("dot"))
	return cmd
}
