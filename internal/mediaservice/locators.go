package mediaservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vodflow/internal/logging"
	"vodflow/internal/services"
)

// locatorCapacity is the hard remote-service limit on locators per asset.
// Once a (policy, asset, type) triple holds this many, one must be deleted
// before another can be created.
const locatorCapacity = 5

// locatorValidityMargin is how far past now a locator's expiration must lie
// for it to be handed out, so it cannot expire mid-operation.
const locatorValidityMargin = 24 * time.Hour

// locatorStartSkew backdates new locators so a freshly issued upload URL is
// already active despite clock drift between client and service.
const locatorStartSkew = 5 * time.Minute

// ListLocators returns every locator visible to the caller.
func (c *Client) ListLocators(ctx context.Context, token string) ([]Locator, error) {
	var result collection[Locator]
	if err := c.doJSON(ctx, http.MethodGet, c.url("Locators"), modeJSON, token, nil, &result); err != nil {
		return nil, services.Wrap(services.ErrResource, "locators", "list", "", err)
	}
	return result.Value, nil
}

// CreateLocator creates a locator for the policy/asset pair. The locator name
// is the configured prefix suffixed by role: "Uploader" for SAS locators,
// "Streamer" for on-demand ones.
//
// A 409 response means another locator in the asset already carries the same
// name. That conflict is surfaced as a plain resource error for now; it has
// no recovery path here.
func (c *Client) CreateLocator(ctx context.Context, token, policyID, assetID string, typ LocatorType) (Locator, error) {
	name := c.locatorPrefix
	switch typ {
	case LocatorSAS:
		name += "Uploader"
	case LocatorOnDemandOrigin:
		name += "Streamer"
	}

	body := map[string]any{
		"AccessPolicyId": policyID,
		"AssetId":        assetID,
		"Type":           typ,
		"StartTime":      serviceTime(c.now().Add(-locatorStartSkew)),
		"Name":           name,
	}
	var created Locator
	if err := c.doJSON(ctx, http.MethodPost, c.url("Locators"), modeJSON, token, body, &created); err != nil {
		return Locator{}, services.Wrap(services.ErrResource, "locators", "create", name, err)
	}
	c.logger.Info("locator created",
		logging.String("locator_id", created.ID),
		logging.String("locator_name", created.Name),
		logging.Int("locator_type", int(created.Type)))
	return created, nil
}

// DeleteLocator removes a locator. A 404 is treated as already gone rather
// than an error, since eviction races with service-side expiry cleanup.
func (c *Client) DeleteLocator(ctx context.Context, token, locatorID string) error {
	url := c.url(fmt.Sprintf("Locators('%s')", locatorID))
	err := c.doJSON(ctx, http.MethodDelete, url, modeJSON, token, nil, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			c.logger.Debug("locator already gone", logging.String("locator_id", locatorID))
			return nil
		}
		return services.Wrap(services.ErrResource, "locators", "delete", locatorID, err)
	}
	c.logger.Debug("locator deleted", logging.String("locator_id", locatorID))
	return nil
}

// FetchValidOrCreateLocator returns a usable locator for the (policy, asset,
// type) triple.
//
// Among the matching locators it picks the one with the greatest expiration
// still beyond the validity margin; ties resolve to the first encountered in
// listing order. When no match is valid and the triple already holds the
// capacity of five, the locator with the smallest expiration is deleted
// before a replacement is created.
func (c *Client) FetchValidOrCreateLocator(ctx context.Context, token, policyID, assetID string, typ LocatorType) (Locator, error) {
	if strings.TrimSpace(policyID) == "" || strings.TrimSpace(assetID) == "" {
		return Locator{}, services.Wrap(services.ErrValidation, "locators", "fetch-valid-or-create", "policy and asset ids must not be empty", nil)
	}

	locators, err := c.ListLocators(ctx, token)
	if err != nil {
		return Locator{}, err
	}

	validCutoff := c.now().Add(locatorValidityMargin)

	var (
		maxValid *Locator
		minAny   *Locator
		matches  int
	)
	for i := range locators {
		loc := &locators[i]
		if loc.AccessPolicyID != policyID || loc.AssetID != assetID || loc.Type != typ {
			continue
		}
		matches++

		// Strictly-greater comparisons keep the first-seen locator on ties.
		if loc.ExpirationDateTime.After(validCutoff) {
			if maxValid == nil || loc.ExpirationDateTime.After(maxValid.ExpirationDateTime) {
				maxValid = loc
			}
		}
		if minAny == nil || loc.ExpirationDateTime.Before(minAny.ExpirationDateTime) {
			minAny = loc
		}
	}

	if maxValid != nil {
		c.logger.Debug("locator reused",
			logging.String("locator_id", maxValid.ID),
			logging.String("expires", maxValid.ExpirationDateTime.Format(time.RFC3339)))
		return *maxValid, nil
	}

	if matches == locatorCapacity && minAny != nil {
		c.logger.Info("locator capacity reached, evicting",
			logging.String("locator_id", minAny.ID),
			logging.String("expires", minAny.ExpirationDateTime.Format(time.RFC3339)))
		if err := c.DeleteLocator(ctx, token, minAny.ID); err != nil {
			return Locator{}, err
		}
	}

	return c.CreateLocator(ctx, token, policyID, assetID, typ)
}
