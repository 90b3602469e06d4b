package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
)

type importOptions struct {
	path           string
	apply          bool
	createProjects bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a server spreadsheet (CSV or .xlsx) and optionally upload it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			return runImport(rt.scoped(cmd.Context()), rt.importer(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Upload the validated rows (default is preview only)")
	cmd.Flags().BoolVar(&opts.createProjects, "create-projects", false, "Create projects named in the file that do not exist yet")
	return cmd
}

type importReport struct {
	Preview *services.ImportPreview `json:"preview,omitempty"`
	Result  *services.ApplyResult   `json:"result,omitempty"`
	Summary string                  `json:"summary,omitempty"`
}

func runImport(ctx context.Context, importer *services.ImportService, opts importOptions) error {
	if stringsTrim(opts.path) == "" {
		return withCode(exitUsage, fmt.Errorf("a file is required"))
	}
	if opts.createProjects && !opts.apply {
		return withCode(exitUsage, fmt.Errorf("--create-projects needs --apply"))
	}
	f, err := spreadsheet.Open(opts.path)
	if err != nil {
		return classify(err)
	}
	preview, err := importer.Preview(ctx, f)
	if err != nil {
		return classify(err)
	}
	if !opts.apply {
		return writeJSONLine(importReport{Preview: preview})
	}

	res, err := importer.Apply(ctx, preview, services.ApplyOptions{CreateProjects: opts.createProjects})
	if err != nil {
		return classify(err)
	}
	if err := writeJSONLine(importReport{Result: res, Summary: res.Summary()}); err != nil {
		return err
	}
	if res.ErrorCount > 0 {
		return withCode(exitPartial, fmt.Errorf("import finished with errors: %s", res.Summary()))
	}
	return nil
}
