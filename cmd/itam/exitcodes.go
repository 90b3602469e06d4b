package main

import (
	"errors"

	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/serrors"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitBackend    = 4
	exitPartial    = 5
	exitForbidden  = 6
	exitSession    = 7
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// classify picks the exit code for an error coming out of a service call.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return err
	}
	var validation serrors.ValidationErrors
	var conflict *services.ManagerConflictError
	switch {
	case errors.Is(err, authz.ErrForbidden), errors.Is(err, services.ErrMockProject):
		return withCode(exitForbidden, err)
	case errors.Is(err, api.ErrSessionExpired), errors.Is(err, services.ErrNotSignedIn):
		return withCode(exitSession, err)
	case errors.As(err, &validation), errors.As(err, &conflict),
		errors.Is(err, spreadsheet.ErrEmptyFile), errors.Is(err, spreadsheet.ErrLegacyExcel),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat), errors.Is(err, spreadsheet.ErrUnreadableFile),
		errors.Is(err, services.ErrMemberNameRequired):
		return withCode(exitValidation, err)
	}
	return withCode(exitBackend, err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}
