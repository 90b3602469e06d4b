package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/gorilla/mux"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/pkg/appstate"
)

// restBackend serves the subset of the inventory REST API the client calls.
type restBackend struct {
	mu       sync.Mutex
	assets   []asset.Asset
	projects []project.Project
	users    []appstate.User
	patches  int
	nextID   int
}

func (b *restBackend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (b *restBackend) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", b.login).Methods(http.MethodPost)
	r.HandleFunc("/users", b.listUsers).Methods(http.MethodGet)

	r.HandleFunc("/projects", b.listProjects).Methods(http.MethodGet)
	r.HandleFunc("/projects", b.createProject).Methods(http.MethodPost)
	r.HandleFunc("/projects/resources/usage", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"totalCpu": 8})
	}).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}", b.getProject).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}", b.patchProject).Methods(http.MethodPatch)
	r.HandleFunc("/projects/{id}", b.deleteProject).Methods(http.MethodDelete)

	r.HandleFunc("/assets", b.listAssets(func(asset.Asset, map[string]string) bool { return true })).Methods(http.MethodGet)
	r.HandleFunc("/assets", b.createAsset).Methods(http.MethodPost)
	r.HandleFunc("/assets/servers/all", b.deleteServers).Methods(http.MethodDelete)
	r.HandleFunc("/assets/category/{category}", b.listAssets(func(a asset.Asset, v map[string]string) bool {
		return a.Category == v["category"]
	})).Methods(http.MethodGet)
	r.HandleFunc("/assets/status/{status}", b.listAssets(func(a asset.Asset, v map[string]string) bool {
		return string(a.Status) == v["status"]
	})).Methods(http.MethodGet)
	r.HandleFunc("/assets/project/{id}", b.listAssets(func(a asset.Asset, v map[string]string) bool {
		return a.Project.ID == v["id"]
	})).Methods(http.MethodGet)
	r.HandleFunc("/assets/project/{id}/manager-update", b.managerUpdate).Methods(http.MethodPut)
	r.HandleFunc("/assets/{id}", b.getAsset).Methods(http.MethodGet)
	r.HandleFunc("/assets/{id}", b.updateAsset).Methods(http.MethodPut)
	r.HandleFunc("/assets/{id}", b.deleteAsset).Methods(http.MethodDelete)
	return r
}

func (b *restBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&creds)
	if creds.Password != "secret" {
		reply(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	reply(w, http.StatusOK, map[string]any{
		"token":        "t1",
		"refreshToken": "r1",
		"user":         appstate.User{Name: "Alice", Email: creds.Email, Role: "admin"},
	})
}

func (b *restBackend) listUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reply(w, http.StatusOK, b.users)
}

func (b *restBackend) listProjects(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	reply(w, http.StatusOK, b.projects)
}

func (b *restBackend) findProject(id string) int {
	for i, p := range b.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (b *restBackend) getProject(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findProject(mux.Vars(r)["id"])
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"message": "Project not found"})
		return
	}
	reply(w, http.StatusOK, b.projects[i])
}

func (b *restBackend) createProject(w http.ResponseWriter, r *http.Request) {
	var p project.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ID = b.id("proj")
	b.projects = append(b.projects, p)
	reply(w, http.StatusCreated, p)
}

func (b *restBackend) patchProject(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.patches++
	i := b.findProject(mux.Vars(r)["id"])
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"message": "Project not found"})
		return
	}
	var patch json.RawMessage
	_ = json.NewDecoder(r.Body).Decode(&patch)
	current, _ := json.Marshal(b.projects[i])
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	var p project.Project
	_ = json.Unmarshal(merged, &p)
	b.projects[i] = p
	reply(w, http.StatusOK, p)
}

func (b *restBackend) deleteProject(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findProject(mux.Vars(r)["id"])
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"message": "Project not found"})
		return
	}
	b.projects = append(b.projects[:i], b.projects[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *restBackend) listAssets(keep func(asset.Asset, map[string]string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		vars := mux.Vars(r)
		out := []asset.Asset{}
		for _, a := range b.assets {
			if keep(a, vars) {
				out = append(out, a)
			}
		}
		reply(w, http.StatusOK, map[string]any{"assets": out})
	}
}

func fromPayload(id string, p asset.CreatePayload) asset.Asset {
	return asset.Asset{
		ID:           id,
		Name:         p.Name,
		Category:     p.Category,
		Status:       p.Status,
		Location:     p.Location,
		PurchaseDate: p.PurchaseDate,
		AssignedTo:   p.AssignedTo,
		Project:      asset.ProjectRef{ID: p.Project},
		ProjectName:  p.ProjectName,
		Resources:    p.Resources,
		VMInfo:       p.VMInfo,
		Specs:        p.Specs,
		Data:         p.AdditionalData,
	}
}

func (b *restBackend) createAsset(w http.ResponseWriter, r *http.Request) {
	var p asset.CreatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	if strings.HasPrefix(p.Name, "dup-") {
		reply(w, http.StatusConflict, map[string]string{"message": "Asset already exists"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a := fromPayload(b.id("asset"), p)
	b.assets = append(b.assets, a)
	reply(w, http.StatusCreated, a)
}

func (b *restBackend) findAsset(id string) int {
	for i, a := range b.assets {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (b *restBackend) getAsset(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findAsset(mux.Vars(r)["id"])
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"message": "Asset not found"})
		return
	}
	reply(w, http.StatusOK, b.assets[i])
}

func (b *restBackend) updateAsset(w http.ResponseWriter, r *http.Request) {
	var p asset.CreatePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := mux.Vars(r)["id"]
	i := b.findAsset(id)
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"message": "Asset not found"})
		return
	}
	b.assets[i] = fromPayload(id, p)
	reply(w, http.StatusOK, b.assets[i])
}

func (b *restBackend) deleteAsset(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.findAsset(mux.Vars(r)["id"])
	if i < 0 {
		reply(w, http.StatusNotFound, map[string]string{"message": "Asset not found"})
		return
	}
	b.assets = append(b.assets[:i], b.assets[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *restBackend) deleteServers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.assets[:0]
	n := 0
	for _, a := range b.assets {
		if a.Category == "Servers" {
			n++
			continue
		}
		kept = append(kept, a)
	}
	b.assets = kept
	reply(w, http.StatusOK, map[string]int{"deletedCount": n})
}

func (b *restBackend) managerUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Manager string `json:"manager"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.mu.Lock()
	defer b.mu.Unlock()
	id := mux.Vars(r)["id"]
	n := 0
	for i := range b.assets {
		if b.assets[i].Project.ID != id {
			continue
		}
		if b.assets[i].Data == nil {
			b.assets[i].Data = asset.Bag{}
		}
		b.assets[i].Data["projectManager"] = body.Manager
		n++
	}
	reply(w, http.StatusOK, map[string]int{"modifiedCount": n})
}

func (b *restBackend) assetCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.assets)
}

func (b *restBackend) patchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.patches
}
