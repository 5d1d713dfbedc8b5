// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/goodvibesclub/vibeoff/internal/domain/daily"
)

// dailyCookieName identifies a browser across daily matchups.
const dailyCookieName = "voter_device_id"

// DailyDependencies defines the interface for the daily game.
type DailyDependencies interface {
	DailyCurrent(ctx context.Context) (Matchup, error)
	DailyCanVote(ctx context.Context, ip, deviceID string) (bool, error)
	DailyVote(ctx context.Context, itemID int, ip, deviceID string) (Matchup, error)
	DailyVoteDiscord(ctx context.Context, itemID int, userID string) (Matchup, error)
	DailyOverride(ctx context.Context, id1, id2 int) (Matchup, error)
	DailyHistory(ctx context.Context, limit int) ([]Archive, error)
	DailyTimeToRotation() time.Duration
	AdminKeyMatches(key string) bool
}

// DailyHandler serves the daily single-matchup game.
type DailyHandler struct {
	deps DailyDependencies
}

// NewDailyHandler creates a new daily handler.
func NewDailyHandler(deps DailyDependencies) *DailyHandler {
	return &DailyHandler{deps: deps}
}

type dailyResponse struct {
	Matchup
	SecondsToRotation int  `json:"secondsToRotation"`
	CanVote           bool `json:"canVote"`
}

// HandleGetDaily handles GET /daily requests. Eligibility is best-effort:
// a voter without a device cookie yet reads as eligible.
func (h *DailyHandler) HandleGetDaily(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_daily"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	m, err := h.deps.DailyCurrent(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	deviceID := ""
	if c, cerr := r.Cookie(dailyCookieName); cerr == nil {
		deviceID = c.Value
	}
	canVote := true
	if ok, cerr := h.deps.DailyCanVote(r.Context(), clientIP(r), deviceID); cerr == nil {
		canVote = ok
	}
	writeJSON(w, http.StatusOK, dailyResponse{
		Matchup:           m,
		SecondsToRotation: int(h.deps.DailyTimeToRotation().Seconds()),
		CanVote:           canVote,
	})
}

type dailyVoteRequest struct {
	ItemID int `json:"itemId"`
}

// HandlePostVote handles POST /daily/vote requests, minting the device
// cookie on first vote.
func (h *DailyHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_daily_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dailyVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	deviceID := deviceCookie(w, r, dailyCookieName, uuid.NewString)

	m, err := h.deps.DailyVote(r.Context(), req.ItemID, clientIP(r), deviceID)
	h.writeVoteResult(w, op, m, err)
}

type discordVoteRequest struct {
	ItemID int    `json:"itemId"`
	UserID string `json:"userId"`
}

// HandlePostDiscordVote handles POST /daily/discord-vote requests from the
// bot integration.
func (h *DailyHandler) HandlePostDiscordVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_daily_discord_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req discordVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.DailyVoteDiscord(r.Context(), req.ItemID, req.UserID)
	h.writeVoteResult(w, op, m, err)
}

func (h *DailyHandler) writeVoteResult(w http.ResponseWriter, op string, m Matchup, err error) {
	switch {
	case errors.Is(err, daily.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "already_voted", Wrap(op, err))
		return
	case errors.Is(err, daily.ErrUnknownItem),
		errors.Is(err, daily.ErrMissingVoter):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "matchup": m})
}

type overrideRequest struct {
	Item1ID  int    `json:"item1Id"`
	Item2ID  int    `json:"item2Id"`
	AdminKey string `json:"adminKey"`
}

// HandlePostOverride handles POST /daily/override requests behind the shared
// admin secret.
func (h *DailyHandler) HandlePostOverride(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_daily_override"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if !h.deps.AdminKeyMatches(req.AdminKey) {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	m, err := h.deps.DailyOverride(r.Context(), req.Item1ID, req.Item2ID)
	switch {
	case errors.Is(err, daily.ErrSamePair) || errors.Is(err, daily.ErrUnknownItem):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "matchup": m})
}

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 100
)

// HandleGetHistory handles GET /daily/history?limit=N requests.
func (h *DailyHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_daily_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	history, err := h.deps.DailyHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}
