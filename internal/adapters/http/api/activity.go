// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// ActivityDependencies defines the interface for the global feed views.
type ActivityDependencies interface {
	Activity(ctx context.Context, filterIDs []int, limit int) ([]FeedEntry, error)
	Pulse(ctx context.Context) (Pulse, error)
}

// ActivityHandler serves the vote feed and the pulse snapshot.
type ActivityHandler struct {
	deps ActivityDependencies
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(deps ActivityDependencies) *ActivityHandler {
	return &ActivityHandler{deps: deps}
}

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// HandleGetActivity handles GET /activity?gvcs=1,2&limit=N requests.
func (h *ActivityHandler) HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := queryInt(r, "limit", defaultFeedLimit)
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	feed, err := h.deps.Activity(r.Context(), queryIDs(r, "gvcs"), limit)
	if err != nil {
		feed = []FeedEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": feed})
}

// HandleGetPulse handles GET /pulse requests.
func (h *ActivityHandler) HandleGetPulse(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pulse"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	pulse, err := h.deps.Pulse(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pulse)
}
