// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goodvibesclub/vibeoff/internal/domain/votes"
)

// VoteDependencies defines the interface for the main voting flow.
type VoteDependencies interface {
	CheckVoteRate(ctx context.Context, ip string) votes.Allowance
	Vote(ctx context.Context, winnerID, loserID int) (votes.Outcome, error)
}

// VoteHandler applies main-game votes.
type VoteHandler struct {
	deps VoteDependencies
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(deps VoteDependencies) *VoteHandler {
	return &VoteHandler{deps: deps}
}

type voteRequest struct {
	WinnerID int `json:"winnerId"`
	LoserID  int `json:"loserId"`
}

type voteResponse struct {
	Success bool          `json:"success"`
	Votes   votes.Outcome `json:"votes"`
}

// HandlePostVote handles POST /vote requests. Rate limit headers are set on
// every response so clients can pace themselves.
func (h *VoteHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	allowance := h.deps.CheckVoteRate(r.Context(), clientIP(r))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(allowance.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(allowance.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(allowance.ResetAfter.Seconds())))
	if !allowance.Allowed {
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.WinnerID == 0 || req.LoserID == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	out, err := h.deps.Vote(r.Context(), req.WinnerID, req.LoserID)
	switch {
	case errors.Is(err, votes.ErrSamePair) || errors.Is(err, votes.ErrUnknownItem):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, voteResponse{Success: true, Votes: out})
}
