package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and maintain projects",
	}
	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsSetManagerCmd())
	cmd.AddCommand(newProjectsDeleteCmd())
	cmd.AddCommand(newProjectsAllocateCmd())
	cmd.AddCommand(newProjectsResourcesCmd())
	cmd.AddCommand(newProjectsEmailsCmd())
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	var fresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			ctx := rt.scoped(cmd.Context())
			load := rt.projects().List
			if fresh {
				load = rt.projects().Fresh
			}
			list, err := load(ctx)
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"items": list, "total": len(list)})
		},
	}
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Bypass the listing cache")
	return cmd
}

func newProjectsSetManagerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-manager <project-id> <manager>",
		Short: "Change a project's manager and cascade it to the project's assets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			p, err := rt.projects().SetManager(rt.scoped(cmd.Context()), args[0], args[1])
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(p)
		},
	}
}

func newProjectsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return withCode(exitUsage, fmt.Errorf("refusing to delete project %s without --yes", args[0]))
			}
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			if err := rt.projects().Delete(rt.scoped(cmd.Context()), args[0]); err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]string{"deleted": args[0]})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newProjectsAllocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocate <project-id> <asset-id>...",
		Short: "Move assets into a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			res, err := rt.projects().Allocate(rt.scoped(cmd.Context()), args[0], args[1:])
			if err != nil {
				return classify(err)
			}
			if err := writeJSONLine(res); err != nil {
				return err
			}
			if len(res.Errors) > 0 {
				return withCode(exitPartial, fmt.Errorf("%d of %d assets not allocated", len(res.Errors), len(args)-1))
			}
			return nil
		},
	}
}

func newProjectsResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Print allocated CPU, RAM and disk per project",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			summary, err := rt.resources().Summary(rt.scoped(cmd.Context()))
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"projects": summary})
		},
	}
}

func newProjectsEmailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sent-emails",
		Short: "Print manager-change emails recorded by the development email simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			emails, err := rt.projects().SentEmails(rt.scoped(cmd.Context()))
			if err != nil {
				return classify(err)
			}
			return writeJSONLine(map[string]any{"items": emails, "total": len(emails)})
		},
	}
}
