package mediaservice

import (
	"context"
	"net/http"
	"strings"

	"vodflow/internal/logging"
	"vodflow/internal/services"
)

// ListAccessPolicies returns every access policy visible to the caller.
func (c *Client) ListAccessPolicies(ctx context.Context, token string) ([]AccessPolicy, error) {
	var result collection[AccessPolicy]
	if err := c.doJSON(ctx, http.MethodGet, c.url("AccessPolicies"), modeJSON, token, nil, &result); err != nil {
		return nil, services.Wrap(services.ErrResource, "policies", "list", "", err)
	}
	return result.Value, nil
}

// CreateAccessPolicy creates a policy with the client's configured duration.
func (c *Client) CreateAccessPolicy(ctx context.Context, token, name string, permissions PolicyPermission) (AccessPolicy, error) {
	if strings.TrimSpace(name) == "" {
		return AccessPolicy{}, services.Wrap(services.ErrValidation, "policies", "create", "policy name must not be empty", nil)
	}
	body := map[string]any{
		"Name":              name,
		"DurationInMinutes": c.policyDuration,
		"Permissions":       permissions,
	}
	var created AccessPolicy
	if err := c.doJSON(ctx, http.MethodPost, c.url("AccessPolicies"), modeJSON, token, body, &created); err != nil {
		return AccessPolicy{}, services.Wrap(services.ErrResource, "policies", "create", name, err)
	}
	c.logger.Info("access policy created",
		logging.String("policy_id", created.ID),
		logging.String("policy_name", created.Name),
		logging.Int("permissions", int(created.Permissions)))
	return created, nil
}

// FetchOrCreateAccessPolicy returns the first existing policy matching the
// name and permission code exactly, creating one when no match exists.
//
// The list-then-create sequence is not atomic against the remote service:
// concurrent runs can race and create duplicate policies. The service does
// not enforce name uniqueness, so the linear scan simply picks the first
// match on later runs.
func (c *Client) FetchOrCreateAccessPolicy(ctx context.Context, token, name string, permissions PolicyPermission) (AccessPolicy, error) {
	if strings.TrimSpace(name) == "" {
		return AccessPolicy{}, services.Wrap(services.ErrValidation, "policies", "fetch-or-create", "policy name must not be empty", nil)
	}

	policies, err := c.ListAccessPolicies(ctx, token)
	if err != nil {
		return AccessPolicy{}, err
	}
	for _, policy := range policies {
		if policy.Name == name && policy.Permissions == permissions {
			c.logger.Debug("access policy reused",
				logging.String("policy_id", policy.ID),
				logging.String("policy_name", policy.Name))
			return policy, nil
		}
	}
	return c.CreateAccessPolicy(ctx, token, name, permissions)
}
