// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// MatchupDependencies defines the interface for matchup operations.
type MatchupDependencies interface {
	Matchup(ctx context.Context) (Pair, error)
	WeightTable(ctx context.Context) (map[int]float64, error)
}

// MatchupHandler serves weighted-random pairs.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

type matchupResponse struct {
	Item1 any `json:"item1"`
	Item2 any `json:"item2"`
}

// HandleGetMatchup handles GET /matchup requests.
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matchup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	pair, err := h.deps.Matchup(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, matchupResponse{Item1: pair.A, Item2: pair.B})
}

// HandleGetWeights handles GET /stats/weights requests. Exposes the current
// selection-weight snapshot for transparency tooling.
func (h *MatchupHandler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weights"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	weights, err := h.deps.WeightTable(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weights": weights})
}
