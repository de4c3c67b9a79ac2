package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

var (
	_ types.Destination = (*Client)(nil)
	_ types.Source      = (*Client)(nil)
)

func entityPath(entity types.EntityType) string {
	return "/" + string(entity) + "/"
}

// IDData requests a fresh id offset and token.
func (c *Client) IDData(ctx context.Context) (types.IDData, error) {
	token, err := c.token()
	if err != nil {
		return types.IDData{}, err
	}
	c.log.Info("Fetching ID data")
	var data types.IDData
	err = c.withRetry(ctx, func() error {
		_, err := c.doJSON(ctx, http.MethodPost, "/id/", token, nil, &data)
		return err
	})
	return data, err
}

// Create posts a new entity and returns the id from the response changeset.
func (c *Client) Create(ctx context.Context, entity types.EntityType, payload map[string]any) (string, error) {
	token, err := c.token()
	if err != nil {
		return "", err
	}
	var cs changeset
	if _, err := c.doJSON(ctx, http.MethodPost, entityPath(entity), token, payload, &cs); err != nil {
		return "", err
	}
	records := cs.records()
	if len(records) != 1 {
		return "", &types.RemoteOperationError{
			Method:  http.MethodPost,
			URL:     entityPath(entity),
			Message: fmt.Sprintf("expected one change, got %d", len(records)),
			Payload: payload,
		}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(records[0], &created); err != nil {
		return "", fmt.Errorf("decoding created %s: %w", entity, err)
	}
	return created.ID, nil
}

// Exists reports whether GET /<entity>/<id> succeeds. Any 4xx answer means
// the entity is not visible to the user.
func (c *Client) Exists(ctx context.Context, entity types.EntityType, id string) (bool, error) {
	token, err := c.token()
	if err != nil {
		return false, err
	}
	var status int
	err = c.withRetry(ctx, func() error {
		var err error
		status, err = c.doJSON(ctx, http.MethodGet, entityPath(entity)+url.PathEscape(id), token, nil, nil)
		return err
	})
	if err == nil {
		return true, nil
	}
	if status >= 400 && status < 500 {
		return false, nil
	}
	return false, err
}

// ClearAllPrivateData deletes every private record of the user.
func (c *Client) ClearAllPrivateData(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	c.log.Info("Removing data")
	_, err = c.doJSON(ctx, http.MethodDelete, "/batch/all-private", token, nil, nil)
	return err
}

// Fetch downloads every record of entity.
func (c *Client) Fetch(ctx context.Context, entity types.EntityType) ([]json.RawMessage, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}
	var cs changeset
	err = c.withRetry(ctx, func() error {
		_, err := c.doJSON(ctx, http.MethodGet, entityPath(entity), token, nil, &cs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cs.records(), nil
}
