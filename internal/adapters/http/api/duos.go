// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/goodvibesclub/vibeoff/internal/domain/duos"
)

// duoCookieName identifies a browser across duo votes.
const duoCookieName = "device_id"

// DuoDependencies defines the interface for the duos sub-game.
type DuoDependencies interface {
	DuoSubmit(ctx context.Context, id1, id2 int, owner string) (Duo, error)
	DuoVote(ctx context.Context, winnerID, loserID, deviceID string) (duos.Outcome, error)
	DuoDelete(ctx context.Context, duoID, wallet string) error
	DuoMatchup(ctx context.Context) (Duo, Duo, error)
	DuoLeaderboard(ctx context.Context) ([]Duo, error)
	DuoMine(ctx context.Context, wallet string) ([]Duo, error)
	DuoRemainingVotes(ctx context.Context, deviceID string) (Quota, error)
}

// DuoHandler serves the duos sub-game.
type DuoHandler struct {
	deps DuoDependencies
}

// NewDuoHandler creates a new duos handler.
func NewDuoHandler(deps DuoDependencies) *DuoHandler {
	return &DuoHandler{deps: deps}
}

type duoSubmitRequest struct {
	GVC1ID int    `json:"gvc1Id"`
	GVC2ID int    `json:"gvc2Id"`
	Wallet string `json:"wallet"`
}

// HandlePostSubmit handles POST /duos/submit requests.
func (h *DuoHandler) HandlePostSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_duo_submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req duoSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	d, err := h.deps.DuoSubmit(r.Context(), req.GVC1ID, req.GVC2ID, req.Wallet)
	switch {
	case errors.Is(err, duos.ErrItemTaken):
		writeError(w, http.StatusConflict, "item_taken", Wrap(op, err))
		return
	case errors.Is(err, duos.ErrSamePair),
		errors.Is(err, duos.ErrUnknownItem),
		errors.Is(err, duos.ErrMissingOwner):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

type duoVoteRequest struct {
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
}

// HandlePostVote handles POST /duos/vote requests, quota-gated per device.
func (h *DuoHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_duo_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req duoVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	deviceID := deviceCookie(w, r, duoCookieName, uuid.NewString)

	out, err := h.deps.DuoVote(r.Context(), req.WinnerID, req.LoserID, deviceID)
	switch {
	case errors.Is(err, duos.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", Wrap(op, err))
		return
	case errors.Is(err, duos.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	case errors.Is(err, duos.ErrSamePair) || errors.Is(err, duos.ErrMissingDevice):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": out})
}

type duoDeleteRequest struct {
	DuoID  string `json:"duoId"`
	Wallet string `json:"wallet"`
}

// HandlePostDelete handles POST /duos/delete requests, owner-gated.
func (h *DuoHandler) HandlePostDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_duo_delete"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req duoDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	err := h.deps.DuoDelete(r.Context(), req.DuoID, req.Wallet)
	switch {
	case errors.Is(err, duos.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	case errors.Is(err, duos.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleGetMatchup handles GET /duos/matchup requests.
func (h *DuoHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_duo_matchup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	d1, d2, err := h.deps.DuoMatchup(r.Context())
	switch {
	case errors.Is(err, duos.ErrNotEnoughDuos):
		writeError(w, http.StatusNotFound, "not_enough_duos", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"duo1": d1, "duo2": d2})
}

// HandleGetLeaderboard handles GET /duos/leaderboard requests.
func (h *DuoHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	board, err := h.deps.DuoLeaderboard(r.Context())
	if err != nil {
		board = []Duo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"duos": board})
}

// HandleGetMyDuos handles GET /duos/my-duos?wallet=0x... requests.
func (h *DuoHandler) HandleGetMyDuos(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_my_duos"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	mine, err := h.deps.DuoMine(r.Context(), wallet)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"duos": mine})
}

// HandleGetVotes handles GET /duos/votes requests, reporting the device's
// remaining quota.
func (h *DuoHandler) HandleGetVotes(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_duo_votes"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	deviceID := deviceCookie(w, r, duoCookieName, uuid.NewString)
	quota, err := h.deps.DuoRemainingVotes(r.Context(), deviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, quota)
}
