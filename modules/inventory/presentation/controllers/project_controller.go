package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/domain/team"
	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/application"
)

type ProjectController struct {
	projects  *services.ProjectService
	members   *services.TeamService
	resources *services.ResourceService
	basePath  string
}

func NewProjectController(app application.Application) application.Controller {
	return &ProjectController{
		projects:  app.Service(services.ProjectService{}).(*services.ProjectService),
		members:   app.Service(services.TeamService{}).(*services.TeamService),
		resources: app.Service(services.ResourceService{}).(*services.ResourceService),
		basePath:  apiPrefix + "/projects",
	}
}

func (c *ProjectController) Key() string {
	return c.basePath
}

func (c *ProjectController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/resources/summary", c.ResourceSummary).Methods(http.MethodGet)
	router.HandleFunc("/resources/usage", c.ResourceUsage).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPatch)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/allocate", c.Allocate).Methods(http.MethodPost)
	router.HandleFunc("/{id}/team", c.Roster).Methods(http.MethodGet)
	router.HandleFunc("/{id}/team", c.AddMember).Methods(http.MethodPost)
	router.HandleFunc("/{id}/team/{name}", c.RemoveMember).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/team/{name}/role", c.ChangeRole).Methods(http.MethodPut)
}

func (c *ProjectController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.projects.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": list, "total": len(list)})
}

func (c *ProjectController) Get(w http.ResponseWriter, r *http.Request) {
	p, err := c.projects.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (c *ProjectController) Create(w http.ResponseWriter, r *http.Request) {
	var dto project.CreateDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	created, err := c.projects.Create(r.Context(), dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (c *ProjectController) Update(w http.ResponseWriter, r *http.Request) {
	var dto project.UpdateDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	updated, err := c.projects.Update(r.Context(), mux.Vars(r)["id"], dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (c *ProjectController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.projects.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type allocateDTO struct {
	AssetIDs []string `json:"assetIds"`
}

func (c *ProjectController) Allocate(w http.ResponseWriter, r *http.Request) {
	var dto allocateDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	res, err := c.projects.Allocate(r.Context(), mux.Vars(r)["id"], dto.AssetIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (c *ProjectController) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := c.members.Roster(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"members": roster})
}

func (c *ProjectController) AddMember(w http.ResponseWriter, r *http.Request) {
	var m team.ManualMember
	if !decodeJSON(w, r, &m) {
		return
	}
	stored, err := c.members.AddMember(r.Context(), mux.Vars(r)["id"], m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, stored)
}

func (c *ProjectController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.members.RemoveMember(r.Context(), vars["id"], vars["name"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleDTO struct {
	Role string `json:"role"`
}

func (c *ProjectController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var dto roleDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	vars := mux.Vars(r)
	if err := c.members.ChangeRole(r.Context(), vars["id"], vars["name"], dto.Role); err != nil {
		writeError(w, r, err)
		return
	}
	roster, err := c.members.Roster(r.Context(), vars["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"members": roster})
}

func (c *ProjectController) ResourceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.resources.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"projects": summary})
}

func (c *ProjectController) ResourceUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := c.resources.Usage(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, usage)
}
