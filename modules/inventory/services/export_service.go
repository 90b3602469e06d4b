package services

import (
	"context"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/environment"
	"github.com/iota-uz/itam/modules/inventory/domain/fields"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/constants"
)

type exportColumn struct {
	header string
	value  func(a asset.Asset, r fields.Resolver) string
}

func lookupColumn(header string, l fields.Lookup) exportColumn {
	return exportColumn{header: header, value: func(_ asset.Asset, r fields.Resolver) string { return l.In(r, "") }}
}

var exportColumns = []exportColumn{
	{"Name", func(a asset.Asset, _ fields.Resolver) string { return a.Name }},
	{"Category", func(a asset.Asset, _ fields.Resolver) string { return a.Category }},
	{"Status", func(a asset.Asset, _ fields.Resolver) string { return string(a.Status) }},
	{"Project", func(a asset.Asset, _ fields.Resolver) string {
		if a.ProjectName != "" {
			return a.ProjectName
		}
		if a.Project.Name != "" {
			return a.Project.Name
		}
		return constants.Unassigned
	}},
	{"Assigned To", func(a asset.Asset, _ fields.Resolver) string {
		if a.AssignedTo == "" {
			return constants.Unassigned
		}
		return a.AssignedTo
	}},
	{"Environment", func(a asset.Asset, _ fields.Resolver) string { return string(environment.Classify(a)) }},
	lookupColumn("Location", fields.Location),
	lookupColumn("IP Address", fields.IPAddress),
	lookupColumn("Hostname", fields.Hostname),
	lookupColumn("OS", fields.OS),
	lookupColumn("Cluster", fields.Cluster),
	lookupColumn("Host", fields.Host),
	lookupColumn("Power State", fields.PowerState),
	{"CPU", func(a asset.Asset, _ fields.Resolver) string { return strconv.Itoa(a.Resources.CPU) }},
	{"RAM (MB)", func(a asset.Asset, _ fields.Resolver) string { return strconv.Itoa(a.Resources.RAM) }},
	{"Disk (MB)", func(a asset.Asset, _ fields.Resolver) string { return strconv.Itoa(a.Resources.Disk) }},
	{"Purchase Date", func(a asset.Asset, _ fields.Resolver) string { return a.PurchaseDate }},
}

// ExportService writes asset listings as spreadsheets.
type ExportService struct {
	assets *AssetService
	log    *logrus.Entry
}

func NewExportService(assets *AssetService, logger *logrus.Logger) *ExportService {
	return &ExportService{assets: assets, log: componentLogger(logger, "export")}
}

// Table builds the export table for the assets selected by params.
func (s *ExportService) Table(ctx context.Context, params asset.ListParams) (spreadsheet.Table, error) {
	if err := authorizeInventory(ctx, authz.AssetExport); err != nil {
		return spreadsheet.Table{}, err
	}
	list, err := s.assets.List(ctx, params)
	if err != nil {
		return spreadsheet.Table{}, err
	}
	return AssetTable(list), nil
}

func (s *ExportService) Export(ctx context.Context, w io.Writer, format spreadsheet.Format, params asset.ListParams) error {
	t, err := s.Table(ctx, params)
	if err != nil {
		return err
	}
	if err := spreadsheet.Write(w, format, t); err != nil {
		return errors.Wrapf(err, "write %s export", format)
	}
	s.log.WithFields(logrus.Fields{"format": format, "rows": len(t.Rows)}).Info("assets exported")
	return nil
}

// AssetTable renders assets one per row with the field precedence rules applied.
func AssetTable(list []asset.Asset) spreadsheet.Table {
	header := make([]string, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c.header
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		r := fields.ForAsset(a)
		row := make([]string, len(exportColumns))
		for i, c := range exportColumns {
			row[i] = c.value(a, r)
		}
		rows = append(rows, row)
	}
	return spreadsheet.Table{Sheet: "Assets", Header: header, Rows: rows}
}
