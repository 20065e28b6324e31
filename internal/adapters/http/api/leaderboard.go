package api

import (
	"context"
	"net/http"
	"strconv"
)

// RankingDependencies reads the model registry ordered by holdout accuracy.
type RankingDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, player string) (Entry, error)
}

// RankingHandler serves the leaderboard and single-player rank lookups.
type RankingHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingHandler creates a handler whose leaderboard never returns more
// than maxLimit rows.
func NewRankingHandler(deps RankingDependencies, maxLimit int) *RankingHandler {
	return &RankingHandler{deps: deps, maxLimit: maxLimit}
}

// HandleLeaderboard handles GET /leaderboard?limit=N. Without limit it
// returns up to the cap; a limit above the cap is rejected.
func (h *RankingHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, code := h.limit(r)
	if code != "" {
		writeError(w, http.StatusBadRequest, code, NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleRank handles GET /rank/{player}.
func (h *RankingHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	player := pathParam(r, "/rank/")
	if player == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), player)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// limit parses ?limit, returning a non-empty error code when it is invalid.
func (h *RankingHandler) limit(r *http.Request) (int, string) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.maxLimit, ""
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil || n < 1:
		return 0, "bad_request"
	case n > h.maxLimit:
		return 0, "limit_exceeded"
	}
	return n, ""
}
