package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/swish/internal/domain/model"
	"github.com/okian/swish/internal/domain/types"
)

// TrainDependencies defines the interface for training job operations.
type TrainDependencies interface {
	RequestTraining(ctx context.Context, player string) (model.JobStatus, bool, error)
	Job(ctx context.Context, id string) (model.JobStatus, error)
}

// TrainHandler handles training requests and job lookups.
type TrainHandler struct {
	deps TrainDependencies
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(deps TrainDependencies) *TrainHandler {
	return &TrainHandler{deps: deps}
}

// HandlePostTrain handles POST /train requests.
func (h *TrainHandler) HandlePostTrain(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_train"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	st, duplicate, err := h.deps.RequestTraining(r.Context(), req.Player)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	resp := types.TrainResponse{JobID: st.JobID, Status: string(st.State), Duplicate: duplicate}
	if duplicate {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// HandleGetJob handles GET /jobs/{id} requests.
func (h *TrainHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := pathParam(r, "/jobs/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	st, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
