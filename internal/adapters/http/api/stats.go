package api

import (
	"net/http"

	"github.com/okian/swish/internal/domain/types"
)

// StatsProvider exposes the service snapshot served on /stats.
type StatsProvider interface {
	GetStats() types.Stats
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// HandleStats writes the current snapshot. Responses are never cached since
// queue figures change per request.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}
