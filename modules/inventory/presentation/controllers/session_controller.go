package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/itam/modules/inventory/services"
	"github.com/iota-uz/itam/pkg/application"
	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/composables"
)

type loginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionController struct {
	users *services.UserService
}

func NewSessionController(app application.Application) application.Controller {
	return &SessionController{
		users: app.Service(services.UserService{}).(*services.UserService),
	}
}

func (c *SessionController) Key() string {
	return apiPrefix + "/session"
}

func (c *SessionController) Register(r *mux.Router) {
	r.HandleFunc(apiPrefix+"/session", c.Current).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/session", c.Login).Methods(http.MethodPost)
	r.HandleFunc(apiPrefix+"/session", c.Logout).Methods(http.MethodDelete)
	r.HandleFunc(apiPrefix+"/users", c.Users).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/capabilities", c.Capabilities).Methods(http.MethodGet)
}

func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	var dto loginDTO
	if !decodeJSON(w, r, &dto) {
		return
	}
	u, err := c.users.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.users.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *SessionController) Current(w http.ResponseWriter, r *http.Request) {
	u, err := c.users.Current(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (c *SessionController) Users(w http.ResponseWriter, r *http.Request) {
	list, err := c.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": list, "total": len(list)})
}

// Capabilities lists what the request's role may do so clients can hide actions up front.
func (c *SessionController) Capabilities(w http.ResponseWriter, r *http.Request) {
	role, _ := composables.UseRole(r.Context())
	role = authz.NormalizeRole(role)
	writeJSON(w, r, http.StatusOK, map[string]any{
		"role":         role,
		"capabilities": authz.Use().Granted(role),
	})
}
