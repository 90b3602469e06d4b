package main

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/modules/inventory/domain/environment"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/serrors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", errors.New("boom"), 1},
		{"forbidden", authz.ErrForbidden, exitForbidden},
		{"mock project", pkgerrors.Wrap(services.ErrMockProject, "delete"), exitForbidden},
		{"session", api.ErrSessionExpired, exitSession},
		{"not signed in", services.ErrNotSignedIn, exitSession},
		{"validation", serrors.ValidationErrors{"Name": "required"}, exitValidation},
		{"conflict", &services.ManagerConflictError{Manager: "Bob", ProjectName: "Billing"}, exitValidation},
		{"empty file", spreadsheet.ErrEmptyFile, exitValidation},
		{"backend", &api.Error{Status: 500, Message: "down"}, exitBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.err
			if tt.name != "plain" {
				err = classify(err)
			}
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestClassify_KeepsExplicitCode(t *testing.T) {
	err := withCode(exitUsage, fmt.Errorf("bad flag"))
	assert.Equal(t, exitUsage, exitCode(classify(err)))
}

func TestExportFormat(t *testing.T) {
	f, err := exportFormat("out/assets.csv", "")
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.FormatCSV, f)

	f, err = exportFormat("out/assets", "")
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.FormatXLSX, f)

	f, err = exportFormat("out/assets.csv", "XLSX")
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.FormatXLSX, f)

	_, err = exportFormat("out/assets.pdf", "")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestParseLabel(t *testing.T) {
	l, err := parseLabel("Infrastructure")
	require.NoError(t, err)
	assert.Equal(t, environment.Infrastructure, l)

	l, err = parseLabel("prod")
	require.NoError(t, err)
	assert.Equal(t, environment.Production, l)

	_, err = parseLabel("moon")
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"import"},
		{"export"},
		{"assets", "delete-servers"},
		{"assets", "set-environment"},
		{"projects", "set-manager"},
		{"team", "role"},
		{"environments"},
		{"login"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRunImport_Usage(t *testing.T) {
	err := runImport(t.Context(), nil, importOptions{path: "servers.csv", createProjects: true})
	assert.Equal(t, exitUsage, exitCode(err))

	err = runImport(t.Context(), nil, importOptions{})
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestDestructiveCommandsNeedConfirmation(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"assets", "delete-servers"})
	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))

	root = newRootCmd()
	root.SetArgs([]string{"projects", "delete", "proj-a"})
	err = root.Execute()
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}
