package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/project"
)

func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects"}, &raw); err != nil {
		return nil, err
	}
	return decodeList[project.Project](raw, "projects")
}

func (c *Client) GetProject(ctx context.Context, id string) (project.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects/" + url.PathEscape(id)}, &raw); err != nil {
		return project.Project{}, err
	}
	return decodeOne[project.Project](raw, "project")
}

func (c *Client) CreateProject(ctx context.Context, dto project.CreateDTO) (project.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPost, path: "/projects", body: dto}, &raw); err != nil {
		return project.Project{}, err
	}
	return decodeOne[project.Project](raw, "project")
}

// PatchProject sends a JSON merge patch.
func (c *Client) PatchProject(ctx context.Context, id string, patch json.RawMessage) (project.Project, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{method: http.MethodPatch, path: "/projects/" + url.PathEscape(id), body: patch}, &raw)
	if err != nil {
		return project.Project{}, err
	}
	return decodeOne[project.Project](raw, "project")
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/projects/" + url.PathEscape(id)}, nil)
}

func (c *Client) ListProjectAssets(ctx context.Context, id string) ([]asset.Asset, error) {
	return c.listAssets(ctx, "/projects/"+url.PathEscape(id)+"/assets")
}

// ResourceUsage returns GET /projects/resources/usage untouched; its shape belongs to the backend.
func (c *Client) ResourceUsage(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/projects/resources/usage"}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
