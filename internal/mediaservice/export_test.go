package mediaservice

import "time"

// SetNowFunc overrides the client's clock for deterministic tests.
func (c *Client) SetNowFunc(now func() time.Time) {
	c.now = now
}
