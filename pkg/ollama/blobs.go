package ollama

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// BlobExists reports whether the server already has the blob with digest
// ("sha256:<hex>").
func (c *Client) BlobExists(ctx context.Context, digest string) (bool, error) {
	err := c.do(ctx, http.MethodHead, "/api/blobs/"+digest, nil, nil)
	switch {
	case err == nil:
		return true, nil
	case IsModelNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// CreateBlob uploads r as the blob named digest. The server verifies the digest.
func (c *Client) CreateBlob(ctx context.Context, digest string, r io.Reader) error {
	return c.do(ctx, http.MethodPost, "/api/blobs/"+digest, r, nil)
}

// CreateBlobFromFile uploads a file unless the server already has it and
// returns its digest, ready for CreateRequest.Files.
func (c *Client) CreateBlobFromFile(ctx context.Context, path string) (string, error) {
	digest, err := FileDigest(path)
	if err != nil {
		return "", err
	}
	ok, err := c.BlobExists(ctx, digest)
	if err != nil {
		return "", err
	}
	if ok {
		return digest, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open blob: %w", err)
	}
	defer f.Close()
	if err := c.CreateBlob(ctx, digest, f); err != nil {
		return "", err
	}
	return digest, nil
}
