package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/environment"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/spreadsheet"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/application"
)

type AssetController struct {
	assets   *services.AssetService
	export   *services.ExportService
	envs     *services.EnvironmentService
	basePath string
}

func NewAssetController(app application.Application) application.Controller {
	return &AssetController{
		assets:   app.Service(services.AssetService{}).(*services.AssetService),
		export:   app.Service(services.ExportService{}).(*services.ExportService),
		envs:     app.Service(services.EnvironmentService{}).(*services.EnvironmentService),
		basePath: apiPrefix + "/assets",
	}
}

func (c *AssetController) Key() string {
	return c.basePath
}

func (c *AssetController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/export", c.Export).Methods(http.MethodGet)
	router.HandleFunc("/environments", c.Environments).Methods(http.MethodGet)
	router.HandleFunc("/servers/all", c.DeleteAllServers).Methods(http.MethodDelete)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/assign", c.Assign).Methods(http.MethodPost)
	router.HandleFunc("/{id}/environment", c.ChangeEnvironment).Methods(http.MethodPut)
}

func listParams(r *http.Request) asset.ListParams {
	return asset.ListParams{
		Category: queryParam(r, "category"),
		Status:   asset.Status(queryParam(r, "status")),
		Project:  queryParam(r, "project"),
	}
}

func (c *AssetController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.assets.List(r.Context(), listParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": list, "total": len(list)})
}

func (c *AssetController) Get(w http.ResponseWriter, r *http.Request) {
	a, err := c.assets.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

func (c *AssetController) Create(w http.ResponseWriter, r *http.Request) {
	var payload asset.CreatePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	created, err := c.assets.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (c *AssetController) Update(w http.ResponseWriter, r *http.Request) {
	var payload asset.CreatePayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	updated, err := c.assets.Update(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (c *AssetController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.assets.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AssetController) DeleteAllServers(w http.ResponseWriter, r *http.Request) {
	n, err := c.assets.DeleteAllServers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"deletedCount": n})
}

func (c *AssetController) Assign(w http.ResponseWriter, r *http.Request) {
	var dto asset.AssignDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	updated, err := c.assets.Assign(r.Context(), mux.Vars(r)["id"], dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

type environmentDTO struct {
	Environment environment.Label `json:"environment"`
}

func (c *AssetController) ChangeEnvironment(w http.ResponseWriter, r *http.Request) {
	var dto environmentDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	updated, err := c.envs.ChangeEnvironment(r.Context(), mux.Vars(r)["id"], dto.Environment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// Environments groups assets by environment, optionally for one project.
func (c *AssetController) Environments(w http.ResponseWriter, r *http.Request) {
	groups, err := c.envs.Groups(r.Context(), queryParam(r, "project"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"groups": groups})
}

var exportContentTypes = map[spreadsheet.Format]string{
	spreadsheet.FormatCSV:  "text/csv; charset=utf-8",
	spreadsheet.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (c *AssetController) Export(w http.ResponseWriter, r *http.Request) {
	format := spreadsheet.Format(queryParam(r, "format"))
	if format == "" {
		format = spreadsheet.FormatXLSX
	}
	contentType, ok := exportContentTypes[format]
	if !ok {
		writeBadRequest(w, r, "UNSUPPORTED_FORMAT", fmt.Sprintf("format must be csv or xlsx, got %q", format))
		return
	}
	var buf bytes.Buffer
	if err := c.export.Export(r.Context(), &buf, format, listParams(r)); err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("assets-%s.%s", time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
