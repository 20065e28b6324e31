package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/swish/internal/domain/shot"
)

// Bracket narrowing constants.
const (
	// MinWindow is the smallest half-width of the next bracket.
	MinWindow = 25
	// MinLow is the floor applied to the lower bound of the next bracket.
	MinLow = 10
)

// Bracket is a closed capacity interval.
type Bracket struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Validate reports ErrInvalidBracket for low < 1 or low > high.
func (b Bracket) Validate() error {
	if b.Low < 1 || b.Low > b.High {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidBracket, b.Low, b.High)
	}
	return nil
}

// Candidates returns the distinct values of {low, mid, high} in ascending order.
func (b Bracket) Candidates() []int {
	mid := (b.Low + b.High) / 2
	c := []int{b.Low, mid, b.High}
	slices.Sort(c)
	return slices.Compact(c)
}

// Narrow centres the next bracket on best. The window is derived from the
// receiver, i.e. the bracket before narrowing.
func (b Bracket) Narrow(best int) Bracket {
	window := max(MinWindow, (b.High-b.Low)/4)
	return Bracket{
		Low:  max(MinLow, best-window),
		High: best + window,
	}
}

// Evaluation is one scored candidate.
type Evaluation struct {
	Capacity int     `json:"capacity"`
	Score    float64 `json:"score"`
}

// Round is the immutable outcome of one narrowing iteration.
type Round struct {
	Index       int          `json:"index"`
	Bracket     Bracket      `json:"bracket"`
	Evaluations []Evaluation `json:"evaluations"`
	Best        Evaluation   `json:"best"`
	Next        Bracket      `json:"next"`
}

// EvaluateFunc scores a single candidate; Controller wraps its Estimator in one.
type EvaluateFunc func(ctx context.Context, capacity int) (float64, error)

// RunRound scores every candidate of b in ascending order and derives the next
// bracket from the first candidate with the highest score. It returns on the
// first error or context cancellation.
func RunRound(ctx context.Context, index int, b Bracket, eval EvaluateFunc) (Round, error) {
	candidates := b.Candidates()
	r := Round{
		Index:       index,
		Bracket:     b,
		Evaluations: make([]Evaluation, 0, len(candidates)),
		Best:        Evaluation{Capacity: b.Low, Score: -1},
	}

	for _, capacity := range candidates {
		if err := ctx.Err(); err != nil {
			return Round{}, err
		}
		score, err := eval(ctx, capacity)
		if err != nil {
			return Round{}, err
		}
		e := Evaluation{Capacity: capacity, Score: score}
		r.Evaluations = append(r.Evaluations, e)
		if score > r.Best.Score {
			r.Best = e
		}
	}

	r.Next = b.Narrow(r.Best.Capacity)
	return r, nil
}

// estimatorFunc adapts an Estimator bound to one training set.
func estimatorFunc(est Estimator, set shot.TrainingSet) EvaluateFunc {
	return func(ctx context.Context, capacity int) (float64, error) {
		return est.CrossValidatedScore(ctx, set, capacity)
	}
}
