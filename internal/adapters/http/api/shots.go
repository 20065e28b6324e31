package api

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/okian/swish/internal/adapters/ingest"
	"github.com/okian/swish/internal/domain/clean"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/internal/domain/types"
)

// ShotDependencies defines the interface for shot dataset operations.
type ShotDependencies interface {
	AddShots(ctx context.Context, t clean.Table) (clean.Report, error)
	Shots(ctx context.Context, player string) ([]shot.Record, error)
	Players(ctx context.Context) []types.PlayerSummary
}

// ShotsHandler handles shot upload and listing requests.
type ShotsHandler struct {
	deps         ShotDependencies
	maxBodyBytes int64
}

// NewShotsHandler creates a new shots handler.
func NewShotsHandler(deps ShotDependencies, maxBodyBytes int64) *ShotsHandler {
	return &ShotsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostShots handles POST /shots. The body is a JSON array of shot
// objects, {"shots": [...]}, JSON lines, or CSV with a header row.
func (h *ShotsHandler) HandlePostShots(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_shots"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	table, err := decodeShots(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.AddShots(r.Context(), table)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, types.IngestResponse{
		Status:      "accepted",
		RowsIn:      report.RowsIn,
		RowsKept:    report.RowsKept,
		RowsDropped: report.RowsDropped,
	})
}

func decodeShots(contentType string, body []byte) (clean.Table, error) {
	mt, _, _ := mime.ParseMediaType(contentType)
	switch mt {
	case "text/csv":
		return ingest.ReadCSV(bytes.NewReader(body))
	case "application/x-ndjson", "application/jsonl":
		return ingest.ReadJSONLines(bytes.NewReader(body))
	default:
		return ingest.ParseJSONRows(body)
	}
}

// HandleGetShots handles GET /shots/{player}.
func (h *ShotsHandler) HandleGetShots(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_shots"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	player := pathParam(r, "/shots/")
	if player == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	records, err := h.deps.Shots(r.Context(), player)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleGetPlayers handles GET /players.
func (h *ShotsHandler) HandleGetPlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Players(r.Context()))
}
