package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	metadatatoml "github.com/bnema/objnode/internal/adapters/metadata/toml"
	"github.com/bnema/objnode/internal/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	objectA = domain.ObjectID{0x0a, 15: 1}
	nodeA   = domain.NodeID{Host: "10.0.0.1", Port: 7400}
	nodeB   = domain.NodeID{Host: "10.0.0.2", Port: 7400}
)

func newRegistryServer(t *testing.T) *httptest.Server {
	t.Helper()

	config := viper.New()
	config.Set("metadata.path", filepath.Join(t.TempDir(), "registry.toml"))
	registry, err := metadatatoml.NewRegistry(config, nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(registry, zerolog.Nop()).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientRegistersAndLooksUpThroughHandler(t *testing.T) {
	t.Parallel()

	server := newRegistryServer(t)
	client := Client{BaseURL: server.URL, HTTPClient: server.Client()}
	ctx := context.Background()

	_, err := client.LookupOwner(ctx, objectA)
	require.ErrorIs(t, err, domain.ErrObjectNotFound)

	require.NoError(t, client.Register(ctx, objectA, "Person", nodeA))

	owner, err := client.LookupOwner(ctx, objectA)
	require.NoError(t, err)
	assert.Equal(t, nodeA, owner)

	err = client.Register(ctx, objectA, "Person", nodeB)
	require.ErrorIs(t, err, domain.ErrRegistrationConflict)
}

func TestClientReportsUnavailableService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusInternalServerError, errors.New("disk on fire"))
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "bad owner",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, ownerRecord{Owner: "nowhere"})
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tc.handler)
			t.Cleanup(server.Close)

			client := Client{BaseURL: server.URL, HTTPClient: server.Client()}
			_, err := client.LookupOwner(context.Background(), objectA)
			require.ErrorIs(t, err, domain.ErrMetadataUnavailable)
		})
	}
}

func TestClientUnreachableServiceIsUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := Client{BaseURL: url, RequestTimeout: time.Second}
	err := client.Register(context.Background(), objectA, "Person", nodeA)
	require.ErrorIs(t, err, domain.ErrMetadataUnavailable)
}

func TestClientTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := Client{BaseURL: server.URL, HTTPClient: server.Client(), RequestTimeout: 20 * time.Millisecond}
	_, err := client.LookupOwner(context.Background(), objectA)
	require.ErrorIs(t, err, domain.ErrMetadataUnavailable)
}

func TestClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr string
	}{
		{name: "empty", baseURL: "", wantErr: "metadata base url is required"},
		{name: "scheme", baseURL: "ftp://example.com", wantErr: "must use http or https"},
		{name: "host", baseURL: "http://", wantErr: "host is required"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Client{BaseURL: tc.baseURL}.LookupOwner(context.Background(), objectA)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	t.Parallel()

	server := newRegistryServer(t)

	resp, err := server.Client().Get(server.URL + objectsPath + "not-an-id")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
