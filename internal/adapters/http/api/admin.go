// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goodvibesclub/vibeoff/internal/domain/owners"
)

// adminKeyHeader carries the shared admin secret.
const adminKeyHeader = "X-Admin-Key"

// AdminDependencies defines the interface for admin operations.
type AdminDependencies interface {
	AdminKeyMatches(key string) bool
	SyncOwners(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// AdminHandler serves key-gated admin operations.
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

func (h *AdminHandler) authorized(w http.ResponseWriter, r *http.Request, op string) bool {
	if !h.deps.AdminKeyMatches(r.Header.Get(adminKeyHeader)) {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return false
	}
	return true
}

// HandlePostSyncOwners handles POST /admin/sync-owners requests.
func (h *AdminHandler) HandlePostSyncOwners(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sync_owners"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.authorized(w, r, op) {
		return
	}
	n, err := h.deps.SyncOwners(r.Context())
	switch {
	case errors.Is(err, owners.ErrNoIndexer):
		writeError(w, http.StatusServiceUnavailable, "no_indexer", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "synced": n})
}

// HandlePostReset handles POST /admin/reset requests. Wipes the store.
func (h *AdminHandler) HandlePostReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.authorized(w, r, op) {
		return
	}
	if err := h.deps.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
