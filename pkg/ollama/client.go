package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultHost is used when neither the caller nor OLLAMA_HOST names a server.
const DefaultHost = "http://localhost:11434"

// Client talks to one Ollama server. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	log     zerolog.Logger
	handler StreamHandler
	header  http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request, streams included. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		cp := *c.http
		cp.Timeout = d
		c.http = &cp
	}
}

// WithLogger installs a logger for per-request debug logs.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithStreamHandler installs a handler that sees every streamed chunk.
func WithStreamHandler(h StreamHandler) Option {
	return func(c *Client) { c.handler = h }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// New returns a client for host. An empty host falls back to OLLAMA_HOST and
// then DefaultHost; a host without a scheme is taken as http.
func New(host string, opts ...Option) *Client {
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	c := &Client{
		base:   parseHost(host),
		http:   &http.Client{},
		log:    zerolog.Nop(),
		header: make(http.Header),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FromEnvironment is New("") spelled out.
func FromEnvironment(opts ...Option) *Client { return New("", opts...) }

func parseHost(host string) *url.URL {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		u, _ = url.Parse(DefaultHost)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u
}

// Host returns the base URL requests are sent to.
func (c *Client) Host() string { return c.base.String() }

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// newRequest encodes in as JSON, or streams it as-is when it is an io.Reader.
func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	contentType := ""
	switch v := in.(type) {
	case nil:
	case io.Reader:
		body = v
		contentType = "application/octet-stream"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: "build request", Err: err}
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// roundTrip sends req and converts transport failures and non-2xx statuses
// into *Error. The caller owns the returned body.
func (c *Client) roundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	rid := req.Header.Get("X-Request-ID")
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Debug().Str("request_id", rid).Str("method", req.Method).Str("path", req.URL.Path).Err(err).Msg("ollama request failed")
		return nil, connectionError(req.Method+" "+req.URL.Path, err)
	}
	c.log.Debug().
		Str("request_id", rid).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("dur", time.Since(start)).
		Msg("ollama request")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, statusError(resp.StatusCode, b)
	}
	return resp, nil
}

// do performs a request with a single JSON (or empty) response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return connectionError("read response", err)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindResponse, Code: resp.StatusCode, Message: "decode " + path, Err: err}
	}
	return nil
}

// stream POSTs in and calls fn for every NDJSON chunk until the done marker.
// A non-streamed reply is a single chunk, so it goes through the same path.
func (c *Client) stream(ctx context.Context, path string, in any, fn func(json.RawMessage) error) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, in)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/x-ndjson")
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := NewStreamDecoder(resp.Body)
	for {
		raw, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if c.handler != nil {
			c.handler.HandleChunk(raw)
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
}

func decodeChunk[T any](path string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, responseError(fmt.Sprintf("decode %s chunk", path), err)
	}
	return v, nil
}

// Heartbeat checks that the server answers at all.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v VersionResponse
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}
