package training_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/swish/internal/domain/scoring"
	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/internal/domain/shot"
	"github.com/okian/swish/internal/domain/training"
	"github.com/okian/swish/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

type countingEstimator struct {
	*scoring.ForestScorer
	evaluations atomic.Int64
}

func (c *countingEstimator) CrossValidatedScore(ctx context.Context, set shot.TrainingSet, capacity int) (float64, error) {
	c.evaluations.Add(1)
	return c.ForestScorer.CrossValidatedScore(ctx, set, capacity)
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]training.CachedCapacity
	failGet bool
}

func (m *mapCache) Get(_ context.Context, key string) (training.CachedCapacity, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return training.CachedCapacity{}, false, errors.New("cache down")
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, v training.CachedCapacity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = v
	return nil
}

// league mixes a close-range specialist with another player's random shots.
func league(n int) []shot.Record {
	rng := rand.New(rand.NewSource(9))
	var out []shot.Record
	for i := range n {
		d := rng.Float64() * 28
		out = append(out, shot.Record{
			Player: "Shaquille O'Neal", Team: "LAL",
			ShotX: rng.Float64()*50 - 25, ShotY: rng.Float64() * 47, Distance: d,
			ShotType: shot.TwoPoint, Made: d < 10,
		})
		out = append(out, shot.Record{
			Player: "Reggie Miller", Team: "IND",
			ShotX: float64(i % 50), ShotY: 20, Distance: 24, ShotType: shot.ThreePoint, Made: i%3 == 0,
		})
	}
	return out
}

func newTrainer(est training.Estimator, opts ...training.Option) *training.Trainer {
	base := []training.Option{
		training.WithBracket(search.Bracket{Low: 5, High: 15}),
		training.WithIterations(2),
		training.WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}
	return training.NewTrainer(est, append(base, opts...)...)
}

func TestTrainer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a trainer and a mixed-player dataset", t, func() {
		est := &countingEstimator{ForestScorer: scoring.NewForestScorer(scoring.WithParallelism(2))}
		cache := &mapCache{entries: map[string]training.CachedCapacity{}}
		trainer := newTrainer(est, training.WithCache(cache))
		records := league(150)

		Convey("When training the close-range player", func() {
			m, err := trainer.Train(ctx, records, "Shaquille O'Neal")

			Convey("Then only that player's shots are used", func() {
				So(err, ShouldBeNil)
				So(m.Player, ShouldEqual, "Shaquille O'Neal")
				So(m.Samples, ShouldEqual, 150)
				So(m.TrainSamples, ShouldEqual, 120)
				So(m.TestSamples, ShouldEqual, 30)
				So(m.TrainedAt, ShouldEqual, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
			})

			Convey("Then the search history and accuracy are recorded", func() {
				So(m.Rounds, ShouldHaveLength, 2)
				So(m.Capacity, ShouldBeBetweenOrEqual, 5, 15)
				So(m.CVScore, ShouldBeGreaterThan, 0.8)
				So(m.Accuracy, ShouldBeGreaterThan, 0.8)
				So(m.CacheHit, ShouldBeFalse)
			})

			Convey("Then the model answers probabilities", func() {
				near, err := m.PredictProbability(1, 2, 3, shot.TwoPoint)
				So(err, ShouldBeNil)
				So(near, ShouldBeGreaterThan, 0.5)
				far, _ := m.PredictProbability(20, 20, 26, shot.TwoPoint)
				So(far, ShouldBeLessThan, 0.5)
			})

			Convey("Then retraining on the same data reuses the cached capacity", func() {
				before := est.evaluations.Load()
				again, err := trainer.Train(ctx, records, "Shaquille O'Neal")
				So(err, ShouldBeNil)
				So(est.evaluations.Load(), ShouldEqual, before)
				So(again.CacheHit, ShouldBeTrue)
				So(again.Capacity, ShouldEqual, m.Capacity)
				So(again.CVScore, ShouldEqual, m.CVScore)
				So(again.Rounds, ShouldBeEmpty)
				So(again.Accuracy, ShouldEqual, m.Accuracy)
			})

			Convey("Then a differently configured estimator does not reuse the cached capacity", func() {
				shallow := &countingEstimator{ForestScorer: scoring.NewForestScorer(scoring.WithParallelism(2), scoring.WithMaxDepth(2))}
				other, err := newTrainer(shallow, training.WithCache(cache)).Train(ctx, records, "Shaquille O'Neal")
				So(err, ShouldBeNil)
				So(other.CacheHit, ShouldBeFalse)
				So(shallow.evaluations.Load(), ShouldBeGreaterThan, 0)
				So(cache.entries, ShouldHaveLength, 2)
			})
		})

		Convey("When the player has no shots", func() {
			_, err := trainer.Train(ctx, records, "Michael Jordan")

			Convey("Then training fails with an empty training set", func() {
				So(errors.Is(err, search.ErrEmptyTrainingSet), ShouldBeTrue)
				So(est.evaluations.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the cache is unavailable", func() {
			cache.failGet = true
			m, err := trainer.Train(ctx, records, "Shaquille O'Neal")

			Convey("Then the search runs anyway", func() {
				So(err, ShouldBeNil)
				So(m.CacheHit, ShouldBeFalse)
				So(est.evaluations.Load(), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the player has fewer shots than the minimum", func() {
			m, err := trainer.Train(ctx, league(40), "Shaquille O'Neal")

			Convey("Then training still completes", func() {
				So(err, ShouldBeNil)
				So(m.Samples, ShouldEqual, 40)
			})
		})

		Convey("When every shot of the player was made", func() {
			all := league(60)
			for i := range all {
				all[i].Made = true
			}
			_, err := trainer.Train(ctx, all, "Reggie Miller")

			Convey("Then the degenerate fold error surfaces", func() {
				So(errors.Is(err, scoring.ErrDegenerateFold), ShouldBeTrue)
				So(errors.Is(err, search.ErrEstimator), ShouldBeTrue)
			})
		})
	})
}

func TestModelNotTrained(t *testing.T) {
	Convey("Given models that were never trained", t, func() {
		var nilModel *training.Model

		Convey("Then predictions fail with ErrNotTrained", func() {
			_, err := (&training.Model{}).PredictProbability(1, 2, 3, 2)
			So(errors.Is(err, training.ErrNotTrained), ShouldBeTrue)
			_, err = nilModel.PredictProbability(1, 2, 3, 2)
			So(errors.Is(err, training.ErrNotTrained), ShouldBeTrue)
			So(nilModel.Trained(), ShouldBeFalse)
		})
	})
}
