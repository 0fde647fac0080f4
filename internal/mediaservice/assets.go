package mediaservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vodflow/internal/logging"
	"vodflow/internal/services"
)

// ListAssets returns every asset visible to the caller.
func (c *Client) ListAssets(ctx context.Context, token string) ([]Asset, error) {
	var result collection[Asset]
	if err := c.doJSON(ctx, http.MethodGet, c.url("Assets"), modeJSON, token, nil, &result); err != nil {
		return nil, services.Wrap(services.ErrResource, "assets", "list", "", err)
	}
	return result.Value, nil
}

// CreateAsset creates a fresh storage container with the given name.
func (c *Client) CreateAsset(ctx context.Context, token, name string) (Asset, error) {
	if strings.TrimSpace(name) == "" {
		return Asset{}, services.Wrap(services.ErrValidation, "assets", "create", "asset name must not be empty", nil)
	}
	var created Asset
	if err := c.doJSON(ctx, http.MethodPost, c.url("Assets"), modeJSON, token, map[string]any{"Name": name}, &created); err != nil {
		return Asset{}, services.Wrap(services.ErrResource, "assets", "create", name, err)
	}
	c.logger.Info("asset created",
		logging.String("asset_id", created.ID),
		logging.String("asset_name", created.Name))
	return created, nil
}

// FetchOrCreateAsset returns the first existing asset with the given name,
// creating one when no match exists. The pipeline itself always uses plain
// CreateAsset for input assets; this exists for callers wanting idempotent
// reuse. Subject to the same list-then-create race as policies.
func (c *Client) FetchOrCreateAsset(ctx context.Context, token, name string) (Asset, error) {
	if strings.TrimSpace(name) == "" {
		return Asset{}, services.Wrap(services.ErrValidation, "assets", "fetch-or-create", "asset name must not be empty", nil)
	}
	assets, err := c.ListAssets(ctx, token)
	if err != nil {
		return Asset{}, err
	}
	for _, asset := range assets {
		if asset.Name == name {
			c.logger.Debug("asset reused",
				logging.String("asset_id", asset.ID),
				logging.String("asset_name", asset.Name))
			return asset, nil
		}
	}
	return c.CreateAsset(ctx, token, name)
}

// CreateFileInfos asks the service to generate file metadata for the asset's
// uploaded blobs. The action endpoint requires the legacy data-service
// headers.
func (c *Client) CreateFileInfos(ctx context.Context, token, assetID string) error {
	if strings.TrimSpace(assetID) == "" {
		return services.Wrap(services.ErrValidation, "assets", "file-infos", "asset id must not be empty", nil)
	}
	url := c.url(fmt.Sprintf("CreateFileInfos?assetid='%s'", assetID))
	if err := c.doJSON(ctx, http.MethodGet, url, modeNetFx, token, nil, nil); err != nil {
		return services.Wrap(services.ErrResource, "assets", "file-infos", assetID, err)
	}
	c.logger.Debug("file infos created", logging.String("asset_id", assetID))
	return nil
}
