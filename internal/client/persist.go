package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// SessionKey is the store key holding the last connect request.
const SessionKey = "client/last-request"

// ErrNoStore is returned by Restore on a Client built without WithStore.
var ErrNoStore = errors.New("client: no store configured")

// save records req so a later process can Restore it. Failures are logged.
func (c *Client) save(ctx context.Context, req ConnectRequest) {
	if c.store == nil {
		return
	}

	data, err := json.Marshal(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode session")
		return
	}
	if err := c.store.Set(ctx, SessionKey, data); err != nil {
		c.logger.Warn().Err(err).Msg("failed to save session")
	}
}

// Restore returns the last request passed to Connect, as saved in the
// store. It returns store.ErrNotFound when nothing has been saved.
func (c *Client) Restore(ctx context.Context) (ConnectRequest, error) {
	var req ConnectRequest
	if c.store == nil {
		return req, ErrNoStore
	}

	data, err := c.store.Get(ctx, SessionKey)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("client: decode saved session: %w", err)
	}
	return req, nil
}
