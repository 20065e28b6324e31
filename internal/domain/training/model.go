package training

import (
	"fmt"
	"time"

	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/internal/domain/shot"
)

// Model is a trained per-player shot classifier with its selection history.
type Model struct {
	Player       string         `json:"player"`
	Capacity     int            `json:"capacity"`
	CVScore      float64        `json:"cv_score"`
	Accuracy     float64        `json:"accuracy"`
	Samples      int            `json:"samples"`
	TrainSamples int            `json:"train_samples"`
	TestSamples  int            `json:"test_samples"`
	MadeRate     float64        `json:"made_rate"`
	CacheHit     bool           `json:"cache_hit"`
	TrainedAt    time.Time      `json:"trained_at"`
	Rounds       []search.Round `json:"rounds,omitempty"`

	predictor search.Predictor
}

// Trained reports whether the model can answer predictions.
func (m *Model) Trained() bool {
	return m != nil && m.predictor != nil
}

// PredictProbability returns the probability that the player makes a shot
// from the given spot.
func (m *Model) PredictProbability(shotX, shotY, distance float64, shotType int) (float64, error) {
	if !m.Trained() {
		return 0, ErrNotTrained
	}
	p, err := m.predictor.PredictProbability(shot.Encode(shotX, shotY, distance, shotType))
	if err != nil {
		return 0, fmt.Errorf("predict %q: %w", m.Player, err)
	}
	return p, nil
}

// NewModel wraps an already fitted predictor for player. Trainer.Train is the
// usual way to obtain a model; this serves callers that fit elsewhere.
func NewModel(player string, p search.Predictor) *Model {
	return &Model{Player: player, predictor: p}
}
