package mediaservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"vodflow/internal/services"
)

// tokenResource is the audience the credential exchange requests access to.
const tokenResource = "https://rest.media.azure.net"

// Token performs the client-credentials exchange and returns the bearer
// token. Transport failures and non-2xx responses are reported as ErrAuth;
// the pipeline aborts rather than retrying.
func (c *Client) Token(ctx context.Context) (string, error) {
	if strings.TrimSpace(c.tokenEndpoint) == "" {
		return "", services.Wrap(services.ErrValidation, "token", "exchange", "token endpoint not configured", nil)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("resource", tokenResource)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrAuth, "token", "exchange", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrAuth, "token", "exchange", "post credentials", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", services.Wrap(services.ErrAuth, "token", "exchange",
			fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt))), nil)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrAuth, "token", "exchange", "decode response", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", services.Wrap(services.ErrAuth, "token", "exchange", "response carried no access token", nil)
	}

	c.logger.Debug("access token acquired")
	return payload.AccessToken, nil
}
