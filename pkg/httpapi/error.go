package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iota-uz/itam/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// StatusResolver maps a coded error to an HTTP status. Returning 0 defers to the default.
type StatusResolver func(err error) int

// WriteServiceError renders err as an ErrorEnvelope. Coded errors keep their code and
// template data; validation errors become 422 with one meta entry per field.
func WriteServiceError(w http.ResponseWriter, err error, resolve StatusResolver) error {
	var verrs serrors.ValidationErrors
	if errors.As(err, &verrs) {
		return WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), verrs)
	}

	status := http.StatusInternalServerError
	if resolve != nil {
		if s := resolve(err); s != 0 {
			status = s
		}
	}

	var base *serrors.BaseError
	if errors.As(err, &base) {
		return WriteError(w, status, base.Code, base.Message, base.TemplateData)
	}
	return WriteError(w, status, "INTERNAL_SERVER_ERROR", err.Error(), nil)
}
