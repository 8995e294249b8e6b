package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/objnode/internal/adapters/codec"
	"github.com/bnema/objnode/internal/adapters/heap/memory"
	"github.com/bnema/objnode/internal/adapters/metadata/httpapi"
	metadatatoml "github.com/bnema/objnode/internal/adapters/metadata/toml"
	"github.com/bnema/objnode/internal/adapters/storage/file"
	"github.com/bnema/objnode/internal/adapters/transport/httpnode"
	"github.com/bnema/objnode/internal/application"
	"github.com/bnema/objnode/internal/config"
	"github.com/bnema/objnode/internal/observability"
	"github.com/bnema/objnode/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	cfg        config.Config
	viper      *viper.Viper
	logger     zerolog.Logger
	httpClient *http.Client
}

func wireApp() (*app, error) {
	v := viper.New()
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	return &app{
		cfg:        cfg,
		viper:      v,
		logger:     logger.With().Str("node", cfg.Self().String()).Logger(),
		httpClient: &http.Client{},
	}, nil
}

func (a *app) adminClient(nodeURL string) httpnode.AdminClient {
	if nodeURL == "" {
		nodeURL = a.cfg.NodeURL()
	}
	return httpnode.AdminClient{BaseURL: nodeURL, HTTPClient: a.httpClient}
}

// node is one fully wired execution environment.
type node struct {
	cfg     config.Config
	handler http.Handler
	sweeper *application.Sweeper
	tracker *application.ReferenceTracker
	heap    *memory.Heap
	logger  zerolog.Logger
}

func buildNode(a *app) (*node, error) {
	cfg := a.cfg
	self := cfg.Self()
	clock := ports.SystemClock{}
	serializer := codec.TOMLSerializer{}

	store := file.NewStore(filepath.Join(cfg.Node.DataDir, "objects"))

	var metadata ports.MetadataService
	var registry *metadatatoml.Registry
	if cfg.Metadata.URL == "" {
		local, err := metadatatoml.NewRegistry(a.viper, clock)
		if err != nil {
			return nil, fmt.Errorf("wire metadata registry: %w", err)
		}
		registry = local
		metadata = local
	} else {
		metadata = httpapi.Client{BaseURL: cfg.Metadata.URL, HTTPClient: a.httpClient, RequestTimeout: cfg.Dispatch.CallTimeout}
	}

	resolver := application.NewLocationResolver(metadata, cfg.Shards, a.logger)
	coordinator := application.NewPersistenceCoordinator(self, ports.RandomIDs{}, serializer, metadata, store, resolver, a.logger)
	heap := memory.NewHeap(memory.Config{Self: self, Shards: cfg.Shards, Persist: coordinator.StoreObject}, store, serializer, a.logger)

	sessions := application.NewSessionRegistry(application.SessionPolicy{
		Lifecycle: cfg.Session.Lifecycle,
		TTL:       cfg.Session.TTL,
	}, clock, cfg.Shards)
	tracker := application.NewReferenceTracker(sessions, heap, clock, cfg.Shards, a.logger)

	argsCodec := codec.JSONArgs{}
	dispatcher := application.NewDispatcher(
		application.DispatcherConfig{Self: self, CallTimeout: cfg.Dispatch.CallTimeout},
		tracker, resolver, heap, heap, argsCodec, httpnode.Client{HTTPClient: a.httpClient}, a.logger,
	)
	sweeper := application.NewSweeper(tracker, heap, cfg.GC.Interval, a.logger)

	mux := http.NewServeMux()
	httpnode.NewHandler(httpnode.HandlerConfig{
		Dispatcher: dispatcher,
		Tracker:    tracker,
		Sweeper:    sweeper,
		Persister:  coordinator,
		Loader:     heap,
		Codec:      argsCodec,
	}, a.logger).Register(mux)
	if registry != nil {
		httpapi.NewHandler(registry, a.logger).Register(mux)
	}

	return &node{
		cfg:     cfg,
		handler: mux,
		sweeper: sweeper,
		tracker: tracker,
		heap:    heap,
		logger:  a.logger,
	}, nil
}

// run serves the node API and sweeps periodically until ctx is done.
func (n *node) run(ctx context.Context) error {
	listener, err := net.Listen("tcp", n.cfg.Self().String())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", n.cfg.Self(), err)
	}

	server := &http.Server{
		Handler:           n.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepDone := make(chan error, 1)
	go func() { sweepDone <- n.sweeper.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(listener) }()

	n.logger.Info().
		Str("addr", listener.Addr().String()).
		Str("data_dir", n.cfg.Node.DataDir).
		Bool("local_registry", n.cfg.Metadata.URL == "").
		Msg("node started")

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-sweepDone; err != nil {
		return err
	}

	n.logger.Info().Msg("node stopped")
	return nil
}
