package ollama

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// GenerateAll runs the requests concurrently, at most limit at a time
// (limit <= 0 means no limit), and returns the replies in request order.
// Each request is sent non-streamed. The first failure cancels the others.
func (c *Client) GenerateAll(ctx context.Context, reqs []GenerateRequest, limit int) ([]GenerateResponse, error) {
	out := make([]GenerateResponse, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range reqs {
		req := reqs[i]
		req.Stream = Ptr(false)
		g.Go(func() error {
			resp, err := c.Complete(gctx, &req)
			if err != nil {
				return err
			}
			out[i] = *resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
