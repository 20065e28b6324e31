package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/internal/domain/types"
)

// ModelDependencies defines the interface for trained model reads.
type ModelDependencies interface {
	Model(ctx context.Context, player string) (*training.Model, error)
	Predict(ctx context.Context, req types.PredictRequest) (types.PredictResponse, error)
}

// ModelsHandler serves model summaries and predictions.
type ModelsHandler struct {
	deps ModelDependencies
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(deps ModelDependencies) *ModelsHandler {
	return &ModelsHandler{deps: deps}
}

// HandleGetModel handles GET /models/{player}, including the search rounds
// that chose the capacity.
func (h *ModelsHandler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_model"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	player := pathParam(r, "/models/")
	if player == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	m, err := h.deps.Model(r.Context(), player)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandlePredict handles POST /predict.
func (h *ModelsHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
