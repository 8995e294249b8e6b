package httpnode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/objnode/internal/domain"
)

// AdminClient drives a running node through its admin routes.
type AdminClient struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

func (c AdminClient) Execute(ctx context.Context, req CallRequest) (json.RawMessage, error) {
	var resp CallResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/calls", req, &resp); err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", req.Operation, req.Object, err)
	}
	return resp.Result, nil
}

func (c AdminClient) Create(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	var resp CreateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/objects", req, &resp); err != nil {
		return CreateResponse{}, fmt.Errorf("create %s: %w", req.Class, err)
	}
	return resp, nil
}

func (c AdminClient) Sweep(ctx context.Context) (GCResponse, error) {
	var resp GCResponse
	if err := c.do(ctx, http.MethodPost, "/v1/admin/gc", nil, &resp); err != nil {
		return GCResponse{}, fmt.Errorf("trigger sweep: %w", err)
	}
	return resp, nil
}

func (c AdminClient) Stats(ctx context.Context) (StatsResponse, error) {
	var resp StatsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/admin/stats", nil, &resp); err != nil {
		return StatsResponse{}, fmt.Errorf("read stats: %w", err)
	}
	return resp, nil
}

func (c AdminClient) TouchSession(ctx context.Context, session domain.SessionID) (SessionResponse, error) {
	var resp SessionResponse
	path := "/v1/admin/sessions/" + url.PathEscape(string(session)) + "/touch"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return SessionResponse{}, fmt.Errorf("touch session %s: %w", session, err)
	}
	return resp, nil
}

func (c AdminClient) CloseSession(ctx context.Context, session domain.SessionID) error {
	path := "/v1/admin/sessions/" + url.PathEscape(string(session))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("close session %s: %w", session, err)
	}
	return nil
}

func (c AdminClient) do(ctx context.Context, method string, path string, body any, out any) error {
	endpoint, err := c.endpoint(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var decoded errorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil || decoded.Error == "" {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return errors.New(decoded.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c AdminClient) endpoint(path string) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("node url is required")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse node url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("node url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("node url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}
	return endpoint.String(), nil
}

func (c AdminClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c AdminClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}
