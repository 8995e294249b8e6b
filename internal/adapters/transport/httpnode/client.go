package httpnode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
)

const (
	SessionHeader    = "X-Objnode-Session"
	callsPathPrefix  = "/v1/objects/"
	maxResponseBytes = 8 << 20
)

// errorBody is the JSON body of every non-2xx answer from a node.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Client forwards calls to peer nodes over HTTP.
type Client struct {
	HTTPClient *http.Client
	// Scheme defaults to http.
	Scheme string
}

var _ ports.Transport = Client{}

func (c Client) Call(ctx context.Context, node domain.NodeID, id domain.ObjectID, operation string, payload []byte) ([]byte, error) {
	if node.IsZero() {
		return nil, errors.New("target node is required")
	}
	if operation == "" {
		return nil, errors.New("operation is required")
	}

	endpoint := c.callURL(node, id, operation)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session, ok := domain.SessionFromContext(ctx); ok {
		req.Header.Set(SessionHeader, string(session))
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		kind := domain.RemoteErrorOther
		if isTimeout(ctx, err) {
			kind = domain.RemoteErrorTimeout
		}
		return nil, &domain.RemoteError{Kind: kind, Node: node, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		kind := domain.RemoteErrorOther
		if isTimeout(ctx, err) {
			kind = domain.RemoteErrorTimeout
		}
		return nil, &domain.RemoteError{Kind: kind, Node: node, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return body, nil
	}

	return nil, remoteErrorFrom(node, resp.StatusCode, body)
}

func (c Client) callURL(node domain.NodeID, id domain.ObjectID, operation string) string {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}

	u := url.URL{
		Scheme: scheme,
		Host:   node.String(),
		Path:   callsPathPrefix + id.String() + "/calls/" + url.PathEscape(operation),
	}
	return u.String()
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func remoteErrorFrom(node domain.NodeID, status int, body []byte) *domain.RemoteError {
	var decoded errorBody
	_ = json.Unmarshal(body, &decoded)

	message := decoded.Error
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}

	kind := domain.RemoteErrorOther
	switch {
	case decoded.Kind == string(domain.RemoteErrorStaleLocation) || status == http.StatusConflict:
		kind = domain.RemoteErrorStaleLocation
	case decoded.Kind == string(domain.RemoteErrorTimeout) || status == http.StatusGatewayTimeout:
		kind = domain.RemoteErrorTimeout
	}

	return &domain.RemoteError{Kind: kind, Node: node, Message: message}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
