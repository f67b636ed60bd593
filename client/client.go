// Package client is the remote face of the product repository: it speaks
// the HTTP JSON contract served by package server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"product_catalog/domain"
	"product_catalog/util"
)

const defaultTimeout = 10 * time.Second

// Client implements domain.ProductStore over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the API rooted at baseURL, e.g.
// "http://localhost:3002/bp".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.ProductStore = (*Client)(nil)

type errorBody struct {
	Name    string             `json:"name"`
	Message string             `json:"message"`
	Errors  domain.FieldErrors `json:"errors"`
}

type listBody struct {
	Data []domain.Product `json:"data"`
}

type mutationBody struct {
	Message string         `json:"message"`
	Data    domain.Product `json:"data"`
}

func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	var out listBody
	if err := c.do(ctx, "list", "", http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return []domain.Product{}, nil
	}
	return out.Data, nil
}

func (c *Client) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := c.do(ctx, "verify", id, http.MethodGet, "/products/verification/"+url.PathEscape(id), nil, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (c *Client) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, "get", id, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (c *Client) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out mutationBody
	if err := c.do(ctx, "create", product.ID, http.MethodPost, "/products", product, &out); err != nil {
		return domain.Product{}, err
	}
	return out.Data, nil
}

func (c *Client) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	var out mutationBody
	if err := c.do(ctx, "update", id, http.MethodPut, "/products/"+url.PathEscape(id), patch, &out); err != nil {
		return domain.Product{}, err
	}
	return out.Data, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", id, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// do performs one round trip and classifies failures: 404 becomes
// ProductNotFoundError, a 400 whose message mentions "Duplicate" becomes
// DuplicateProductError, anything else RemoteFailureError.
func (c *Client) do(ctx context.Context, op, id, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := util.NewRequestID()
	req.Header.Set(util.RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", "op", op, "product_id", id, "request_id", requestID, "error", err)
		return domain.NewRemoteFailureError(op, 0, "", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		"op", op,
		"product_id", id,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestID,
	)

	if resp.StatusCode != http.StatusOK {
		return classify(op, id, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewRemoteFailureError(op, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func classify(op, id string, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &eb); err != nil {
		eb.Message = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewProductNotFoundError(id)
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(eb.Message, "Duplicate"):
		return domain.NewDuplicateProductError(id)
	case resp.StatusCode == http.StatusBadRequest && len(eb.Errors) > 0:
		return fmt.Errorf("%w: %w",
			domain.NewRemoteFailureError(op, resp.StatusCode, eb.Message, nil),
			domain.NewValidationError(eb.Errors))
	default:
		return domain.NewRemoteFailureError(op, resp.StatusCode, eb.Message, nil)
	}
}
