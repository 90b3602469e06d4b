package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/environment"
)

func newAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List and maintain assets",
	}
	cmd.AddCommand(newAssetsListCmd())
	cmd.AddCommand(newAssetsAssignCmd())
	cmd.AddCommand(newAssetsEnvironmentCmd())
	cmd.AddCommand(newAssetsDeleteServersCmd())
	return cmd
}

func newAssetsListCmd() *cobra.Command {
	var params asset.ListParams
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = asset.Status(stringsTrim(status))
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			list, err := rt.assets().List(rt.scoped(cmd.Context()), params)
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"items": list, "total": len(list)})
		},
	}
	cmd.Flags().StringVar(&params.Project, "project", "", "Project id")
	cmd.Flags().StringVar(&params.Category, "category", "", "Category")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	return cmd
}

func newAssetsAssignCmd() *cobra.Command {
	var dto asset.AssignDTO
	cmd := &cobra.Command{
		Use:   "assign <asset-id>",
		Short: "Assign an asset to a person and/or project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stringsTrim(dto.AssignedTo) == "" && stringsTrim(dto.Project) == "" {
				return withCode(exitUsage, fmt.Errorf("--to or --project is required"))
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := rt.assets().Assign(rt.scoped(cmd.Context()), args[0], dto)
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(a)
		},
	}
	cmd.Flags().StringVar(&dto.AssignedTo, "to", "", "Assignee name")
	cmd.Flags().StringVar(&dto.Project, "project", "", "Project id")
	return cmd
}

func newAssetsEnvironmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-environment <asset-id> <label>",
		Short: "Move an asset to another environment bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := parseLabel(args[1])
			if err != nil {
				return err
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			a, err := rt.environments().ChangeEnvironment(rt.scoped(cmd.Context()), args[0], label)
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"asset": a, "environment": environment.Classify(a)})
		},
	}
}

func newAssetsDeleteServersCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-servers",
		Short: "Delete every asset in the Servers category",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return withCode(exitUsage, fmt.Errorf("refusing to delete all servers without --yes"))
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			n, err := rt.assets().DeleteAllServers(rt.scoped(cmd.Context()))
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]int{"deletedCount": n})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

// parseLabel accepts a canonical label or any lexicon spelling of one.
func parseLabel(s string) (environment.Label, error) {
	if l := environment.Label(stringsTrim(s)); environment.IsKnown(l) {
		return l, nil
	}
	if l, ok := environment.Parse(s); ok {
		return l, nil
	}
	return "", withCode(exitUsage, fmt.Errorf("unknown environment %q", s))
}
