package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
)

type exportOptions struct {
	output string
	format string
	params asset.ListParams
}

func newExportCmd() *cobra.Command {
	var opts exportOptions
	var status string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export assets to a CSV or .xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.params.Status = asset.Status(stringsTrim(status))
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			return runExport(rt.scoped(cmd.Context()), rt.exporter(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "Output file (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "csv or xlsx (default: from the output extension)")
	cmd.Flags().StringVar(&opts.params.Project, "project", "", "Only assets of this project id")
	cmd.Flags().StringVar(&opts.params.Category, "category", "", "Only assets of this category")
	cmd.Flags().StringVar(&status, "status", "", "Only assets with this status")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func exportFormat(output, format string) (spreadsheet.Format, error) {
	f := strings.ToLower(stringsTrim(format))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch spreadsheet.Format(f) {
	case spreadsheet.FormatCSV:
		return spreadsheet.FormatCSV, nil
	case spreadsheet.FormatXLSX, "":
		return spreadsheet.FormatXLSX, nil
	}
	return "", withCode(exitUsage, fmt.Errorf("unsupported --format %q, use csv or xlsx", f))
}

func runExport(ctx context.Context, exporter *services.ExportService, opts exportOptions) error {
	format, err := exportFormat(opts.output, opts.format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(opts.output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return withCode(exitUsage, fmt.Errorf("mkdir %s: %w", dir, err))
		}
	}
	f, err := os.Create(opts.output)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("create %s: %w", opts.output, err))
	}
	if err := exporter.Export(ctx, f, format, opts.params); err != nil {
		_ = f.Close()
		_ = os.Remove(opts.output)
		return classify(err)
	}
	if err := f.Close(); err != nil {
		return withCode(exitBackend, fmt.Errorf("close %s: %w", opts.output, err))
	}
	return writeJSONLine(map[string]string{"output": opts.output, "format": string(format)})
}
