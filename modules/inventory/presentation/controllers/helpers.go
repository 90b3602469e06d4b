package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/composables"
	"github.com/iota-uz/itam/pkg/httpapi"
)

const apiPrefix = "/api"

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("response not written")
	}
}

// writeError renders err with the status its class maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := composables.UseLogger(r.Context()).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}
	var conflict *services.ManagerConflictError
	if errors.As(err, &conflict) {
		meta := map[string]string{"projectId": conflict.ProjectID, "projectName": conflict.ProjectName}
		if werr := httpapi.WriteError(w, status, services.ErrManagerConflict.Code, conflict.Error(), meta); werr != nil {
			log.WithError(werr).Warn("error response not written")
		}
		return
	}
	if werr := httpapi.WriteServiceError(w, err, statusFor); werr != nil {
		log.WithError(werr).Warn("error response not written")
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, code, message string) {
	if err := httpapi.WriteError(w, http.StatusBadRequest, code, message, nil); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("error response not written")
	}
}

func statusFor(err error) int {
	var apiErr *api.Error
	var conflict *services.ManagerConflictError
	switch {
	case errors.Is(err, authz.ErrForbidden), errors.Is(err, services.ErrMockProject):
		return http.StatusForbidden
	case errors.As(err, &conflict), errors.Is(err, services.ErrManagerConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrProjectNotFound), errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, services.ErrPreviewExpired):
		return http.StatusNotFound
	case errors.Is(err, api.ErrSessionExpired), errors.Is(err, services.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, spreadsheet.ErrEmptyFile), errors.Is(err, spreadsheet.ErrLegacyExcel),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat), errors.Is(err, spreadsheet.ErrUnreadableFile),
		errors.Is(err, services.ErrMemberNameRequired):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		if apiErr.Status >= http.StatusInternalServerError {
			return http.StatusBadGateway
		}
		return apiErr.Status
	}
	return 0
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, r, "INVALID_JSON", "invalid json: "+err.Error())
		return false
	}
	return true
}

func queryParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
