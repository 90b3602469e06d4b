package main

import (
	"github.com/spf13/cobra"
)

func newEnvironmentsCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "environments",
		Short: "Group assets by deployment environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			groups, err := rt.environments().Groups(rt.scoped(cmd.Context()), stringsTrim(project))
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"groups": groups})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Only assets of this project id")
	return cmd
}
