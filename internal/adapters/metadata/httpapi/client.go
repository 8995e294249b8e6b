package httpapi

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
	"github.com/bnema/objnode/internal/ports"
)

const (
	objectsPath      = "/v1/metadata/objects/"
	maxResponseBytes = 1 << 20
)

// Client talks to a remote naming service. Every failure that is not a
// definite answer about the object is reported as domain.ErrMetadataUnavailable.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.MetadataService = Client{}

type ownerRecord struct {
	Class string `json:"class,omitempty"`
	Owner string `json:"owner"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c Client) LookupOwner(ctx context.Context, id domain.ObjectID) (domain.NodeID, error) {
	endpoint, err := c.objectURL(id)
	if err != nil {
		return domain.NodeID{}, err
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.NodeID{}, fmt.Errorf("create lookup request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return domain.NodeID{}, unavailable("lookup %s", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.NodeID{}, fmt.Errorf("lookup %s: %w", id, domain.ErrObjectNotFound)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return domain.NodeID{}, unavailable("lookup %s", id, errors.New(decodeError(resp)))
	}

	var record ownerRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&record); err != nil {
		return domain.NodeID{}, unavailable("decode owner of %s", id, err)
	}
	owner, err := domain.ParseNodeID(record.Owner)
	if err != nil {
		return domain.NodeID{}, unavailable("decode owner of %s", id, err)
	}

	return owner, nil
}

func (c Client) Register(ctx context.Context, id domain.ObjectID, classID domain.ClassID, node domain.NodeID) error {
	endpoint, err := c.objectURL(id)
	if err != nil {
		return err
	}

	body, err := json.Marshal(ownerRecord{Class: string(classID), Owner: node.String()})
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return unavailable("register %s", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("register %s: %w", id, domain.ErrRegistrationConflict)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return unavailable("register %s", id, errors.New(decodeError(resp)))
	}

	return nil
}

func (c Client) objectURL(id domain.ObjectID) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("metadata base url is required")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse metadata base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("metadata base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("metadata base url host is required")
	}

	return parsed.JoinPath(objectsPath, id.String()).String(), nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func unavailable(format string, id domain.ObjectID, cause error) error {
	return fmt.Errorf(format+": %w", id, errors.Join(domain.ErrMetadataUnavailable, cause))
}

func decodeError(resp *http.Response) string {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil || body.Error == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return body.Error
}
