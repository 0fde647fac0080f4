package mediaservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vodflow/internal/logging"
	"vodflow/internal/services"
)

// LookupMediaProcessor resolves a processor by exact name through the
// service's filtered catalog. Used when no processor ID is configured.
func (c *Client) LookupMediaProcessor(ctx context.Context, token, name string) (MediaProcessor, error) {
	if strings.TrimSpace(name) == "" {
		return MediaProcessor{}, services.Wrap(services.ErrValidation, "processors", "lookup", "processor name must not be empty", nil)
	}

	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("Name eq '%s'", name))
	requestURL := c.url("MediaProcessors()") + "?" + query.Encode()

	var result collection[MediaProcessor]
	if err := c.doJSON(ctx, http.MethodGet, requestURL, modeNetFx, token, nil, &result); err != nil {
		return MediaProcessor{}, services.Wrap(services.ErrResource, "processors", "lookup", name, err)
	}
	if len(result.Value) == 0 {
		return MediaProcessor{}, services.Wrap(services.ErrResource, "processors", "lookup",
			fmt.Sprintf("no processor named %q", name), nil)
	}

	processor := result.Value[0]
	c.logger.Debug("media processor resolved",
		logging.String("processor_id", processor.ID),
		logging.String("processor_name", processor.Name))
	return processor, nil
}
