package httpnode

import (
	"encoding/json"

	"github.com/bnema/objnode/internal/application"
	"github.com/bnema/objnode/internal/domain"
)

type CallRequest struct {
	Object    string          `json:"object"`
	Operation string          `json:"operation"`
	Session   string          `json:"session"`
	Args      json.RawMessage `json:"args,omitempty"`
}

type CallResponse struct {
	Result json.RawMessage `json:"result"`
}

type CreateRequest struct {
	Class   string            `json:"class"`
	Fields  map[string]string `json:"fields,omitempty"`
	Session string            `json:"session,omitempty"`
}

type CreateResponse struct {
	ID      string            `json:"id"`
	Created map[string]string `json:"created"`
}

type StatsResponse struct {
	Objects     int `json:"objects"`
	Sessions    int `json:"sessions"`
	Quarantined int `json:"quarantined"`
	Aliases     int `json:"aliases"`
}

type GCResponse struct {
	Retained []string      `json:"retained"`
	Evicted  []string      `json:"evicted"`
	Stats    StatsResponse `json:"stats"`
}

type SessionResponse struct {
	Session   string `json:"session"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Never     bool   `json:"never_expires,omitempty"`
}

func toStatsResponse(stats application.TrackerStats) StatsResponse {
	return StatsResponse{
		Objects:     stats.Objects,
		Sessions:    stats.Sessions,
		Quarantined: stats.Quarantined,
		Aliases:     stats.Aliases,
	}
}

func idStrings(ids []domain.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
