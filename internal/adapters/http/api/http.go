// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/swish/internal/adapters/repository"
	"github.com/okian/swish/internal/domain/clean"
	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/internal/domain/types"
)

const (
	defaultMaxLeaderboardLimit = 100
	defaultMaxBodyBytes        = 32 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ShotDependencies
	TrainDependencies
	ModelDependencies
	RankingDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	shotsHandler       *ShotsHandler
	trainHandler       *TrainHandler
	modelsHandler      *ModelsHandler
	rankingHandler     *RankingHandler
	dashboardHandler   *dashboardHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit     int
	maxBodyBytes int64
}

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLeaderboardLimit, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		shotsHandler:       NewShotsHandler(deps, cfg.maxBodyBytes),
		trainHandler:       NewTrainHandler(deps),
		modelsHandler:      NewModelsHandler(deps),
		rankingHandler:     NewRankingHandler(deps, cfg.maxLimit),
		dashboardHandler:   newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/shots", MetricsMiddleware(s.shotsHandler.HandlePostShots, "shots"))
	mux.HandleFunc("/shots/", MetricsMiddleware(s.shotsHandler.HandleGetShots, "player_shots"))
	mux.HandleFunc("/players", MetricsMiddleware(s.shotsHandler.HandleGetPlayers, "players"))
	mux.HandleFunc("/train", MetricsMiddleware(s.trainHandler.HandlePostTrain, "train"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.trainHandler.HandleGetJob, "jobs"))
	mux.HandleFunc("/models/", MetricsMiddleware(s.modelsHandler.HandleGetModel, "models"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.modelsHandler.HandlePredict, "predict"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.rankingHandler.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankingHandler.HandleRank, "rank"))
}

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

// writeFailure maps err to a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, clean.ErrMissingColumns),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, types.ErrUnknownPlayer),
		errors.Is(err, types.ErrJobNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, training.ErrNotTrained):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, types.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, types.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

