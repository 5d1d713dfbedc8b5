// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goodvibesclub/vibeoff/internal/domain/votes"
)

// BoardDependencies defines the interface for leaderboard reads.
type BoardDependencies interface {
	Leaderboard(ctx context.Context) ([]Entry, error)
	Collectors(ctx context.Context) ([]Collector, error)
	Item(ctx context.Context, id int) (Detail, error)
	Stats(ctx context.Context, ids []int) (map[int]Stats, error)
}

// BoardHandler serves ranked views and item details.
type BoardHandler struct {
	deps BoardDependencies
}

// NewBoardHandler creates a new board handler.
func NewBoardHandler(deps BoardDependencies) *BoardHandler {
	return &BoardHandler{deps: deps}
}

// leaderboardCacheControl allows short public caching; the board only moves
// vote by vote.
const leaderboardCacheControl = "public, max-age=30"

// HandleGetLeaderboard handles GET /leaderboard requests.
func (h *BoardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	entries, err := h.deps.Leaderboard(r.Context())
	if err != nil {
		// Degrade to an empty board rather than erroring the page.
		entries = []Entry{}
	}
	w.Header().Set("Cache-Control", leaderboardCacheControl)
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// HandleGetCollectors handles GET /collectors requests.
func (h *BoardHandler) HandleGetCollectors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	collectors, err := h.deps.Collectors(r.Context())
	if err != nil {
		collectors = []Collector{}
	}
	w.Header().Set("Cache-Control", leaderboardCacheControl)
	writeJSON(w, http.StatusOK, map[string]any{"collectors": collectors})
}

// HandleGetItem handles GET /item/{id} requests.
func (h *BoardHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_item"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/item/")
	id, err := strconv.Atoi(path)
	if err != nil || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	detail, err := h.deps.Item(r.Context(), id)
	switch {
	case errors.Is(err, votes.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleGetStats handles GET /stats?ids=1,2,3 requests.
func (h *BoardHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ids := queryIDs(r, "ids")
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	stats, err := h.deps.Stats(r.Context(), ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
