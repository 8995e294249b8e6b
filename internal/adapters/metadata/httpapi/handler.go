package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bnema/objnode/internal/domain"
	"github.com/bnema/objnode/internal/ports"
	"github.com/rs/zerolog"
)

// Handler serves a MetadataService over HTTP so peers can share one registry.
type Handler struct {
	service ports.MetadataService
	logger  zerolog.Logger
}

func NewHandler(service ports.MetadataService, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger.With().Str("component", "metadata-api").Logger()}
}

// Register adds the metadata routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+objectsPath+"{id}", h.lookup)
	mux.HandleFunc("PUT "+objectsPath+"{id}", h.register)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseObjectID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	owner, err := h.service.LookupOwner(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ownerRecord{Owner: owner.String()})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseObjectID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var record ownerRecord
	if err := json.NewDecoder(io.LimitReader(r.Body, maxResponseBytes)).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := domain.ParseNodeID(record.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.Register(r.Context(), id, domain.ClassID(record.Class), owner); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrRegistrationConflict):
		writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error().Err(err).Msg("metadata request failed")
		writeError(w, http.StatusServiceUnavailable, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
