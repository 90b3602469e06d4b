package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/itam/modules/inventory/domain/team"
)

func newTeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Show and edit a project's team roster",
	}
	cmd.AddCommand(newTeamListCmd())
	cmd.AddCommand(newTeamAddCmd())
	cmd.AddCommand(newTeamRemoveCmd())
	cmd.AddCommand(newTeamRoleCmd())
	return cmd
}

func newTeamListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "Print the reconciled roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			roster, err := rt.team().Roster(rt.scoped(cmd.Context()), args[0])
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"members": roster})
		},
	}
}

func newTeamAddCmd() *cobra.Command {
	var m team.ManualMember
	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a member by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stringsTrim(m.Name) == "" {
				return withCode(exitUsage, fmt.Errorf("--name is required"))
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			stored, err := rt.team().AddMember(rt.scoped(cmd.Context()), args[0], m)
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(stored)
		},
	}
	cmd.Flags().StringVar(&m.Name, "name", "", "Member name (required)")
	cmd.Flags().StringVar(&m.Role, "role", "", "Role (default: Team Member)")
	cmd.Flags().StringVar(&m.Email, "email", "", "Email")
	return cmd
}

func newTeamRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project-id> <name>",
		Short: "Remove a member; removing the manager unassigns the project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			if err := rt.team().RemoveMember(rt.scoped(cmd.Context()), args[0], args[1]); err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]string{"removed": args[1]})
		},
	}
}

func newTeamRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <project-id> <name> <role>",
		Short: "Change a member's role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := rt.scoped(cmd.Context())
			if err := rt.team().ChangeRole(ctx, args[0], args[1], args[2]); err != nil {
				return classify(err)
			}
			roster, err := rt.team().Roster(ctx, args[0])
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"members": roster})
		},
	}
}
