package ollama

import (
	"context"
	"encoding/json"
	"net/http"
)

// GenerateResponseFunc receives each generate chunk. Returning an error stops
// the stream and is returned from Generate.
type GenerateResponseFunc func(GenerateResponse) error

// ChatResponseFunc receives each chat chunk.
type ChatResponseFunc func(ChatResponse) error

// Generate runs a completion. With req.Stream nil or true fn is called per
// chunk; with Stream false it is called once with the whole reply.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest, fn GenerateResponseFunc) error {
	return c.stream(ctx, "/api/generate", req, func(raw json.RawMessage) error {
		resp, err := decodeChunk[GenerateResponse]("generate", raw)
		if err != nil {
			return err
		}
		if fn == nil {
			return nil
		}
		return fn(resp)
	})
}

// Chat runs a chat completion with the same streaming rules as Generate.
func (c *Client) Chat(ctx context.Context, req *ChatRequest, fn ChatResponseFunc) error {
	return c.stream(ctx, "/api/chat", req, func(raw json.RawMessage) error {
		resp, err := decodeChunk[ChatResponse]("chat", raw)
		if err != nil {
			return err
		}
		if fn == nil {
			return nil
		}
		return fn(resp)
	})
}

// Complete runs a generation and returns the full reply, streaming or not.
func (c *Client) Complete(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var acc GenerateAccumulator
	if err := c.Generate(ctx, req, func(r GenerateResponse) error {
		acc.Add(r)
		return nil
	}); err != nil {
		return nil, err
	}
	resp := acc.Response()
	return &resp, nil
}

// ChatOnce runs a chat and returns the full assistant reply.
func (c *Client) ChatOnce(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var acc ChatAccumulator
	if err := c.Chat(ctx, req, func(r ChatResponse) error {
		acc.Add(r)
		return nil
	}); err != nil {
		return nil, err
	}
	resp := acc.Response()
	return &resp, nil
}

// Embed returns embeddings for one or more inputs.
func (c *Client) Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error) {
	var resp EmbedResponse
	if err := c.do(ctx, http.MethodPost, "/api/embed", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 && len(resp.Embedding) > 0 {
		resp.Embeddings = [][]float32{resp.Embedding}
		resp.Embedding = nil
	}
	return &resp, nil
}

// Embeddings calls the legacy single-prompt endpoint.
func (c *Client) Embeddings(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	var resp EmbeddingResponse
	if err := c.do(ctx, http.MethodPost, "/api/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
