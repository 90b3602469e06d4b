package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/pkg/appstate"
)

// fakeBackend is an in-memory stand-in for the REST backend. calls counts every
// method invocation by name.
type fakeBackend struct {
	mu       sync.Mutex
	assets   []asset.Asset
	projects []project.Project
	users    []appstate.User
	session  *appstate.Session
	calls    map[string]int
	failOn   map[string]error // asset name -> create error
	listErr  error            // returned by ListProjects when set
	nextID   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:   map[string]int{},
		failOn:  map[string]error{},
		session: appstate.NewSession(appstate.NewMemoryStore()),
	}
}

func (f *fakeBackend) called(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func notFoundErr(path string) error {
	return &api.Error{Method: http.MethodGet, Path: path, Status: http.StatusNotFound, Message: "not found"}
}

func (f *fakeBackend) CreateAsset(_ context.Context, p asset.CreatePayload) (asset.Asset, error) {
	f.called("CreateAsset")
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[p.Name]; ok {
		return asset.Asset{}, err
	}
	a := asset.Asset{
		ID:          f.id("a"),
		Name:        p.Name,
		Category:    p.Category,
		Status:      p.Status,
		AssignedTo:  p.AssignedTo,
		Project:     asset.ProjectRef{ID: p.Project},
		ProjectName: p.ProjectName,
		Resources:   p.Resources,
		VMInfo:      p.VMInfo,
		Specs:       p.Specs,
		Data:        p.AdditionalData,
	}
	f.assets = append(f.assets, a)
	return a, nil
}

func (f *fakeBackend) ListAssets(context.Context) ([]asset.Asset, error) {
	f.called("ListAssets")
	return append([]asset.Asset(nil), f.assets...), nil
}

func (f *fakeBackend) ListAssetsByCategory(_ context.Context, c string) ([]asset.Asset, error) {
	f.called("ListAssetsByCategory")
	var out []asset.Asset
	for _, a := range f.assets {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListAssetsByStatus(_ context.Context, s asset.Status) ([]asset.Asset, error) {
	f.called("ListAssetsByStatus")
	var out []asset.Asset
	for _, a := range f.assets {
		if a.Status == s {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListAssetsByProject(_ context.Context, id string) ([]asset.Asset, error) {
	f.called("ListAssetsByProject")
	var out []asset.Asset
	for _, a := range f.assets {
		if a.Project.ID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBackend) GetAsset(_ context.Context, id string) (asset.Asset, error) {
	f.called("GetAsset")
	for _, a := range f.assets {
		if a.Identity() == id {
			return a, nil
		}
	}
	return asset.Asset{}, notFoundErr("/assets/" + id)
}

func (f *fakeBackend) UpdateAsset(_ context.Context, id string, p asset.CreatePayload) (asset.Asset, error) {
	f.called("UpdateAsset")
	for i, a := range f.assets {
		if a.Identity() == id {
			a.Name, a.Category, a.Status = p.Name, p.Category, p.Status
			a.AssignedTo, a.ProjectName = p.AssignedTo, p.ProjectName
			a.Project = asset.ProjectRef{ID: p.Project}
			a.Resources, a.VMInfo, a.Specs, a.Data = p.Resources, p.VMInfo, p.Specs, p.AdditionalData
			f.assets[i] = a
			return a, nil
		}
	}
	return asset.Asset{}, notFoundErr("/assets/" + id)
}

func (f *fakeBackend) DeleteAsset(_ context.Context, id string) error {
	f.called("DeleteAsset")
	for i, a := range f.assets {
		if a.Identity() == id {
			f.assets = append(f.assets[:i], f.assets[i+1:]...)
			return nil
		}
	}
	return notFoundErr("/assets/" + id)
}

func (f *fakeBackend) DeleteAllServers(context.Context) (int, error) {
	f.called("DeleteAllServers")
	kept := f.assets[:0]
	n := 0
	for _, a := range f.assets {
		if a.IsServer() {
			n++
			continue
		}
		kept = append(kept, a)
	}
	f.assets = kept
	return n, nil
}

func (f *fakeBackend) UpdateProjectManager(_ context.Context, projectID, manager string) (int, error) {
	f.called("UpdateProjectManager")
	n := 0
	for i, a := range f.assets {
		if a.Project.ID == projectID {
			if a.Data == nil {
				a.Data = asset.Bag{}
			}
			a.Data["projectManager"] = manager
			f.assets[i] = a
			n++
		}
	}
	return n, nil
}

func (f *fakeBackend) ListProjects(context.Context) ([]project.Project, error) {
	f.called("ListProjects")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]project.Project(nil), f.projects...), nil
}

func (f *fakeBackend) GetProject(_ context.Context, id string) (project.Project, error) {
	f.called("GetProject")
	for _, p := range f.projects {
		if p.Identity() == id {
			return p, nil
		}
	}
	return project.Project{}, notFoundErr("/projects/" + id)
}

func (f *fakeBackend) CreateProject(_ context.Context, dto project.CreateDTO) (project.Project, error) {
	f.called("CreateProject")
	p := project.Project{
		ID: f.id("proj"), Name: dto.Name, Status: dto.Status, Priority: dto.Priority,
		Manager: dto.Manager, Tags: dto.Tags,
	}
	f.projects = append(f.projects, p)
	return p, nil
}

func (f *fakeBackend) PatchProject(_ context.Context, id string, patch json.RawMessage) (project.Project, error) {
	f.called("PatchProject")
	for i, p := range f.projects {
		if p.Identity() != id {
			continue
		}
		doc, err := json.Marshal(p)
		if err != nil {
			return project.Project{}, err
		}
		merged, err := jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return project.Project{}, err
		}
		var out project.Project
		if err := json.Unmarshal(merged, &out); err != nil {
			return project.Project{}, err
		}
		f.projects[i] = out
		return out, nil
	}
	return project.Project{}, notFoundErr("/projects/" + id)
}

func (f *fakeBackend) DeleteProject(_ context.Context, id string) error {
	f.called("DeleteProject")
	for i, p := range f.projects {
		if p.Identity() == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return notFoundErr("/projects/" + id)
}

func (f *fakeBackend) ListProjectAssets(ctx context.Context, id string) ([]asset.Asset, error) {
	return f.ListAssetsByProject(ctx, id)
}

func (f *fakeBackend) ResourceUsage(context.Context) (json.RawMessage, error) {
	f.called("ResourceUsage")
	return json.RawMessage(`{"cpu":{"used":4}}`), nil
}

func (f *fakeBackend) Login(ctx context.Context, creds api.Credentials) (appstate.User, error) {
	f.called("Login")
	for _, u := range f.users {
		if u.Email == creds.Email {
			if err := f.session.SetTokens(ctx, "t", "r"); err != nil {
				return appstate.User{}, err
			}
			return u, f.session.SetUser(ctx, u)
		}
	}
	return appstate.User{}, &api.Error{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusUnauthorized, Message: "Invalid credentials"}
}

func (f *fakeBackend) ListUsers(context.Context) ([]appstate.User, error) {
	f.called("ListUsers")
	return f.users, nil
}

func (f *fakeBackend) Session() *appstate.Session { return f.session }
