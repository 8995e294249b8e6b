package httpnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/bnema/objnode/internal/application"
	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/rs/zerolog"
)

const maxRequestBytes = 8 << 20

type Dispatcher interface {
	Execute(ctx context.Context, objectID domain.ObjectID, operation string, args []any, session domain.SessionID) (any, error)
	Serve(ctx context.Context, objectID domain.ObjectID, operation string, payload []byte) ([]byte, error)
}

type Tracker interface {
	AddSessionReference(objectID domain.ObjectID, sessionID domain.SessionID)
	TouchSession(sessionID domain.SessionID) domain.SessionRecord
	CloseSession(sessionID domain.SessionID)
	Stats() application.TrackerStats
}

type Sweeper interface {
	Sweep(ctx context.Context) (application.SweepReport, error)
}

type Persister interface {
	MakePersistent(ctx context.Context, root *domain.Object) (map[domain.ObjectID]domain.ClassID, error)
}

type Loader interface {
	Load(obj *domain.Object)
}

type HandlerConfig struct {
	Dispatcher Dispatcher
	Tracker    Tracker
	Sweeper    Sweeper
	Persister  Persister
	Loader     Loader
	Codec      ports.ArgsCodec
}

// Handler serves peer calls and the node's admin routes.
type Handler struct {
	cfg    HandlerConfig
	logger zerolog.Logger
}

func NewHandler(cfg HandlerConfig, logger zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, logger: logger.With().Str("component", "node-api").Logger()}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+callsPathPrefix+"{id}/calls/{operation}", h.serveCall)
	mux.HandleFunc("POST /v1/admin/calls", h.execute)
	mux.HandleFunc("POST /v1/admin/objects", h.create)
	mux.HandleFunc("POST /v1/admin/gc", h.sweep)
	mux.HandleFunc("GET /v1/admin/stats", h.stats)
	mux.HandleFunc("POST /v1/admin/sessions/{session}/touch", h.touchSession)
	mux.HandleFunc("DELETE /v1/admin/sessions/{session}", h.closeSession)
}

func (h *Handler) serveCall(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseObjectID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "", fmt.Errorf("read payload: %w", err))
		return
	}

	ctx := r.Context()
	if session := r.Header.Get(SessionHeader); session != "" {
		ctx = domain.WithSession(ctx, domain.SessionID(session))
	}

	result, err := h.cfg.Dispatcher.Serve(ctx, id, r.PathValue("operation"), payload)
	if err != nil {
		status, kind := statusForCallError(err)
		if status >= http.StatusInternalServerError && kind == string(domain.RemoteErrorOther) {
			h.logger.Warn().Err(err).Str("object", id.String()).Msg("inbound call failed")
		}
		writeError(w, status, kind, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "", err)
		return
	}
	id, err := domain.ParseObjectID(req.Object)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err)
		return
	}
	if req.Operation == "" || req.Session == "" {
		writeError(w, http.StatusBadRequest, "", errors.New("operation and session are required"))
		return
	}

	args, err := h.cfg.Codec.DecodeArgs(req.Args)
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err)
		return
	}

	result, err := h.cfg.Dispatcher.Execute(r.Context(), id, req.Operation, args, domain.SessionID(req.Session))
	if err != nil {
		writeError(w, statusForExecuteError(err), "", err)
		return
	}

	encoded, err := h.cfg.Codec.EncodeResult(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err)
		return
	}

	writeJSON(w, http.StatusOK, CallResponse{Result: encoded})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "", err)
		return
	}
	if req.Class == "" {
		writeError(w, http.StatusBadRequest, "", errors.New("class is required"))
		return
	}

	obj := &domain.Object{ClassID: domain.ClassID(req.Class), Fields: req.Fields}
	created, err := h.cfg.Persister.MakePersistent(r.Context(), obj)
	if err != nil {
		writeError(w, statusForExecuteError(err), "", err)
		return
	}
	h.cfg.Loader.Load(obj)
	if req.Session != "" {
		h.cfg.Tracker.AddSessionReference(obj.ID, domain.SessionID(req.Session))
	}

	resp := CreateResponse{ID: obj.ID.String(), Created: make(map[string]string, len(created))}
	for id, class := range created {
		resp.Created[id.String()] = string(class)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.cfg.Sweeper.Sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "", err)
		return
	}

	evicted := idStrings(report.Evicted)
	sort.Strings(evicted)
	writeJSON(w, http.StatusOK, GCResponse{
		Retained: idStrings(report.Retained.Sorted()),
		Evicted:  evicted,
		Stats:    toStatsResponse(report.Stats),
	})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStatsResponse(h.cfg.Tracker.Stats()))
}

func (h *Handler) touchSession(w http.ResponseWriter, r *http.Request) {
	session := domain.SessionID(r.PathValue("session"))
	record := h.cfg.Tracker.TouchSession(session)

	resp := SessionResponse{Session: string(record.ID), Never: record.NeverExpires()}
	if !resp.Never {
		resp.ExpiresAt = record.ExpiresAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	h.cfg.Tracker.CloseSession(domain.SessionID(r.PathValue("session")))
	w.WriteHeader(http.StatusNoContent)
}

func statusForCallError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrStaleLocation):
		return http.StatusConflict, string(domain.RemoteErrorStaleLocation)
	case errors.Is(err, domain.ErrRemoteTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, string(domain.RemoteErrorTimeout)
	case errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound, string(domain.RemoteErrorOther)
	default:
		return http.StatusUnprocessableEntity, string(domain.RemoteErrorOther)
	}
}

func statusForExecuteError(err error) int {
	switch {
	case errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedGraph):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRegistrationConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMetadataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRemoteTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrDispatchExhausted), errors.Is(err, domain.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Kind: kind})
}
