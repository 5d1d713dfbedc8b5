// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// OwnerDependencies defines the interface for owner reads.
type OwnerDependencies interface {
	Owners(ctx context.Context, ids []int) (map[int]Record, error)
}

// OwnerHandler serves batch owner lookups.
type OwnerHandler struct {
	deps OwnerDependencies
}

// NewOwnerHandler creates a new owner handler.
func NewOwnerHandler(deps OwnerDependencies) *OwnerHandler {
	return &OwnerHandler{deps: deps}
}

// HandleGetOwners handles GET /owners?ids=1,2,3 requests.
func (h *OwnerHandler) HandleGetOwners(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_owners"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ids := queryIDs(r, "ids")
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	records, err := h.deps.Owners(r.Context(), ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"owners": records})
}
