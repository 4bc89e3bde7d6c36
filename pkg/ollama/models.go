package ollama

import (
	"context"
	"encoding/json"
	"net/http"
)

// ProgressFunc receives status chunks from pull, push and create.
type ProgressFunc func(ProgressResponse) error

// List returns the locally installed models.
func (c *Client) List(ctx context.Context) (*ListResponse, error) {
	var resp ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRunning returns the models currently loaded in memory.
func (c *Client) ListRunning(ctx context.Context) (*ProcessResponse, error) {
	var resp ProcessResponse
	if err := c.do(ctx, http.MethodGet, "/api/ps", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Show returns details about one model. Unknown models are KindModelNotFound.
func (c *Client) Show(ctx context.Context, req *ShowRequest) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.do(ctx, http.MethodPost, "/api/show", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Copy creates a new name for an existing model.
func (c *Client) Copy(ctx context.Context, req *CopyRequest) error {
	return c.do(ctx, http.MethodPost, "/api/copy", req, nil)
}

// Delete removes a model and its unshared blobs.
func (c *Client) Delete(ctx context.Context, req *DeleteRequest) error {
	return c.do(ctx, http.MethodDelete, "/api/delete", req, nil)
}

// Pull downloads a model from the registry, reporting progress to fn.
func (c *Client) Pull(ctx context.Context, req *PullRequest, fn ProgressFunc) error {
	return c.progress(ctx, "/api/pull", req, fn)
}

// Push uploads a model to the registry.
func (c *Client) Push(ctx context.Context, req *PushRequest, fn ProgressFunc) error {
	return c.progress(ctx, "/api/push", req, fn)
}

// Create builds a model from a base model, blobs and parameters.
func (c *Client) Create(ctx context.Context, req *CreateRequest, fn ProgressFunc) error {
	return c.progress(ctx, "/api/create", req, fn)
}

func (c *Client) progress(ctx context.Context, path string, in any, fn ProgressFunc) error {
	return c.stream(ctx, path, in, func(raw json.RawMessage) error {
		p, err := decodeChunk[ProgressResponse](path, raw)
		if err != nil {
			return err
		}
		if fn == nil {
			return nil
		}
		return fn(p)
	})
}
