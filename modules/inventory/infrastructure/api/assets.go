package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/iota-uz/itam/modules/inventory/domain/aggregates/asset"
)

func (c *Client) listAssets(ctx context.Context, path string) ([]asset.Asset, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &raw); err != nil {
		return nil, err
	}
	return decodeList[asset.Asset](raw, "assets")
}

func (c *Client) ListAssets(ctx context.Context) ([]asset.Asset, error) {
	return c.listAssets(ctx, "/assets")
}

func (c *Client) ListAssetsByCategory(ctx context.Context, category string) ([]asset.Asset, error) {
	return c.listAssets(ctx, "/assets/category/"+url.PathEscape(category))
}

func (c *Client) ListAssetsByStatus(ctx context.Context, status asset.Status) ([]asset.Asset, error) {
	return c.listAssets(ctx, "/assets/status/"+url.PathEscape(string(status)))
}

func (c *Client) ListAssetsByProject(ctx context.Context, projectID string) ([]asset.Asset, error) {
	return c.listAssets(ctx, "/assets/project/"+url.PathEscape(projectID))
}

func (c *Client) GetAsset(ctx context.Context, id string) (asset.Asset, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/assets/" + url.PathEscape(id)}, &raw); err != nil {
		return asset.Asset{}, err
	}
	return decodeOne[asset.Asset](raw, "asset")
}

func (c *Client) CreateAsset(ctx context.Context, payload asset.CreatePayload) (asset.Asset, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPost, path: "/assets", body: payload}, &raw); err != nil {
		return asset.Asset{}, err
	}
	return decodeOne[asset.Asset](raw, "asset")
}

func (c *Client) UpdateAsset(ctx context.Context, id string, payload asset.CreatePayload) (asset.Asset, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodPut, path: "/assets/" + url.PathEscape(id), body: payload}, &raw); err != nil {
		return asset.Asset{}, err
	}
	return decodeOne[asset.Asset](raw, "asset")
}

func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/assets/" + url.PathEscape(id)}, nil)
}

type deleteCount struct {
	DeletedCount int `json:"deletedCount"`
}

// DeleteAllServers removes every asset in the Servers category and returns how
// many the backend reported deleted.
func (c *Client) DeleteAllServers(ctx context.Context) (int, error) {
	var out deleteCount
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/assets/servers/all"}, &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

type managerUpdate struct {
	Manager string `json:"manager"`
}

type modifiedCount struct {
	ModifiedCount int `json:"modifiedCount"`
}

// UpdateProjectManager cascades a manager change to every asset of the project.
func (c *Client) UpdateProjectManager(ctx context.Context, projectID, manager string) (int, error) {
	var out modifiedCount
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/assets/project/" + url.PathEscape(projectID) + "/manager-update",
		body:   managerUpdate{Manager: manager},
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.ModifiedCount, nil
}
