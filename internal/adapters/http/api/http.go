// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goodvibesclub/vibeoff/internal/domain/board"
	"github.com/goodvibesclub/vibeoff/internal/domain/daily"
	"github.com/goodvibesclub/vibeoff/internal/domain/duos"
	"github.com/goodvibesclub/vibeoff/internal/domain/owners"
	"github.com/goodvibesclub/vibeoff/internal/domain/selector"
	"github.com/goodvibesclub/vibeoff/internal/domain/votes"
)

// Dependencies bundles everything the HTTP handlers need. Using an interface
// bundle keeps the handler layer loosely coupled to implementations in other
// packages.
type Dependencies interface {
	MatchupDependencies
	VoteDependencies
	BoardDependencies
	ActivityDependencies
	DailyDependencies
	DuoDependencies
	OwnerDependencies
	AdminDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	matchupHandler  *MatchupHandler
	voteHandler     *VoteHandler
	boardHandler    *BoardHandler
	activityHandler *ActivityHandler
	dailyHandler    *DailyHandler
	duoHandler      *DuoHandler
	ownerHandler    *OwnerHandler
	adminHandler    *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		matchupHandler:  NewMatchupHandler(deps),
		voteHandler:     NewVoteHandler(deps),
		boardHandler:    NewBoardHandler(deps),
		activityHandler: NewActivityHandler(deps),
		dailyHandler:    NewDailyHandler(deps),
		duoHandler:      NewDuoHandler(deps),
		ownerHandler:    NewOwnerHandler(deps),
		adminHandler:    NewAdminHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)

	mux.HandleFunc("/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
	mux.HandleFunc("/vote", MetricsMiddleware(s.voteHandler.HandlePostVote, "vote"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.boardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/collectors", MetricsMiddleware(s.boardHandler.HandleGetCollectors, "collectors"))
	mux.HandleFunc("/item/", MetricsMiddleware(s.boardHandler.HandleGetItem, "item"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.boardHandler.HandleGetStats, "stats"))
	mux.HandleFunc("/stats/weights", MetricsMiddleware(s.matchupHandler.HandleGetWeights, "stats_weights"))
	mux.HandleFunc("/activity", MetricsMiddleware(s.activityHandler.HandleGetActivity, "activity"))
	mux.HandleFunc("/pulse", MetricsMiddleware(s.activityHandler.HandleGetPulse, "pulse"))

	mux.HandleFunc("/daily", MetricsMiddleware(s.dailyHandler.HandleGetDaily, "daily"))
	mux.HandleFunc("/daily/vote", MetricsMiddleware(s.dailyHandler.HandlePostVote, "daily_vote"))
	mux.HandleFunc("/daily/discord-vote", MetricsMiddleware(s.dailyHandler.HandlePostDiscordVote, "daily_discord_vote"))
	mux.HandleFunc("/daily/override", MetricsMiddleware(s.dailyHandler.HandlePostOverride, "daily_override"))
	mux.HandleFunc("/daily/history", MetricsMiddleware(s.dailyHandler.HandleGetHistory, "daily_history"))

	mux.HandleFunc("/duos/submit", MetricsMiddleware(s.duoHandler.HandlePostSubmit, "duos_submit"))
	mux.HandleFunc("/duos/vote", MetricsMiddleware(s.duoHandler.HandlePostVote, "duos_vote"))
	mux.HandleFunc("/duos/delete", MetricsMiddleware(s.duoHandler.HandlePostDelete, "duos_delete"))
	mux.HandleFunc("/duos/matchup", MetricsMiddleware(s.duoHandler.HandleGetMatchup, "duos_matchup"))
	mux.HandleFunc("/duos/leaderboard", MetricsMiddleware(s.duoHandler.HandleGetLeaderboard, "duos_leaderboard"))
	mux.HandleFunc("/duos/my-duos", MetricsMiddleware(s.duoHandler.HandleGetMyDuos, "duos_mine"))
	mux.HandleFunc("/duos/votes", MetricsMiddleware(s.duoHandler.HandleGetVotes, "duos_votes"))

	mux.HandleFunc("/owners", MetricsMiddleware(s.ownerHandler.HandleGetOwners, "owners"))
	mux.HandleFunc("/admin/sync-owners", MetricsMiddleware(s.adminHandler.HandlePostSyncOwners, "admin_sync_owners"))
	mux.HandleFunc("/admin/reset", MetricsMiddleware(s.adminHandler.HandlePostReset, "admin_reset"))
}

// Shared read shapes. Type aliases keep handler signatures in domain terms
// without re-declaring the payloads.
type (
	Pair      = selector.Pair
	Entry     = board.Entry
	Detail    = board.Detail
	Collector = board.Collector
	Stats     = votes.Stats
	FeedEntry = votes.FeedEntry
	Pulse     = votes.Pulse
	Matchup   = daily.Matchup
	Archive   = daily.Archive
	Duo       = duos.Duo
	Quota     = duos.Quota
	Record    = owners.Record
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// deviceCookie returns the named device cookie, minting and setting a fresh
// id when absent.
func deviceCookie(w http.ResponseWriter, r *http.Request, name string, mint func() string) string {
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value
	}
	id := mint()
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// queryInt parses an integer query parameter, returning def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryIDs parses a comma-separated id list ("1,2,3").
func queryIDs(r *http.Request, name string) []int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	return ids
}
