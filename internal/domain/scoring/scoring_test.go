package scoring_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/swish/internal/domain/scoring"
	"github.com/okian/swish/internal/domain/search"
	"github.com/okian/swish/internal/domain/shot"
	. "github.com/smartystreets/goconvey/convey"
)

// closeRange builds a set where every shot inside 10 feet is made.
func closeRange(n int) shot.TrainingSet {
	rng := rand.New(rand.NewSource(3))
	set := shot.TrainingSet{Player: "Shaquille O'Neal"}
	for range n {
		d := rng.Float64() * 28
		st := shot.TwoPoint
		if d > 23.75 {
			st = shot.ThreePoint
		}
		set.Records = append(set.Records, shot.Record{
			Player:   set.Player,
			ShotX:    rng.Float64()*50 - 25,
			ShotY:    rng.Float64() * 47,
			Distance: d,
			ShotType: st,
			Made:     d < 10,
		})
	}
	return set
}

func TestStratifiedFolds(t *testing.T) {
	Convey("Given interleaved labels", t, func() {
		labels := []int{1, 1, 0, 0, 0, 1}

		Convey("When splitting into three folds", func() {
			folds, err := scoring.StratifiedFolds(labels, 3)

			Convey("Then each fold takes one of each class in input order", func() {
				So(err, ShouldBeNil)
				So(folds, ShouldResemble, [][]int{{0, 2}, {1, 3}, {4, 5}})
			})
		})

		Convey("When there are fewer samples than folds", func() {
			_, err := scoring.StratifiedFolds([]int{1, 0}, 3)

			Convey("Then the folds are degenerate", func() {
				So(errors.Is(err, scoring.ErrDegenerateFold), ShouldBeTrue)
			})
		})
	})

	Convey("Given an imbalanced label set", t, func() {
		labels := make([]int, 30)
		for i := range 6 {
			labels[i*5] = 1
		}
		folds, err := scoring.StratifiedFolds(labels, 3)
		So(err, ShouldBeNil)

		Convey("Then every sample lands in exactly one fold with two positives each", func() {
			seen := make(map[int]bool)
			for _, f := range folds {
				So(f, ShouldHaveLength, 10)
				var pos int
				for _, i := range f {
					So(seen[i], ShouldBeFalse)
					seen[i] = true
					pos += labels[i]
				}
				So(pos, ShouldEqual, 2)
			}
			So(seen, ShouldHaveLength, 30)
		})
	})
}

func TestForestScorer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a forest scorer and a learnable set", t, func() {
		scorer := scoring.NewForestScorer(scoring.WithParallelism(2))
		set := closeRange(150)

		Convey("Then its key depends on settings that change scores only", func() {
			So(scorer.Key(), ShouldEqual, scoring.NewForestScorer(scoring.WithParallelism(8)).Key())
			So(scorer.Key(), ShouldNotEqual, scoring.NewForestScorer(scoring.WithMaxDepth(3)).Key())
			So(scorer.Key(), ShouldNotEqual, scoring.NewForestScorer(scoring.WithFolds(5)).Key())
			So(scorer.Key(), ShouldNotEqual, scoring.NewForestScorer(scoring.WithSeed(7)).Key())
			So(scorer.Key(), ShouldNotEqual, scoring.NewForestScorer(scoring.WithTestFraction(0.3)).Key())
		})

		Convey("When cross-validating a capacity", func() {
			score, err := scorer.CrossValidatedScore(ctx, set, 15)

			Convey("Then the score is a high accuracy", func() {
				So(err, ShouldBeNil)
				So(score, ShouldBeGreaterThan, 0.85)
				So(score, ShouldBeLessThanOrEqualTo, 1)
			})

			Convey("Then repeating it gives the same score", func() {
				again, err := scorer.CrossValidatedScore(ctx, set, 15)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, score)
			})
		})

		Convey("When every shot was made", func() {
			for i := range set.Records {
				set.Records[i].Made = true
			}
			_, err := scorer.CrossValidatedScore(ctx, set, 10)

			Convey("Then the folds are degenerate", func() {
				So(errors.Is(err, scoring.ErrDegenerateFold), ShouldBeTrue)
			})
		})

		Convey("When fitting and measuring on a holdout split", func() {
			train, test, err := scorer.Split(set)
			So(err, ShouldBeNil)
			model, err := scorer.Fit(ctx, train, 20)
			So(err, ShouldBeNil)
			acc, err := scoring.Accuracy(model, test)

			Convey("Then the split is 80/20 and the model generalises", func() {
				So(test.Len(), ShouldEqual, 30)
				So(train.Len(), ShouldEqual, 120)
				So(acc, ShouldBeGreaterThan, 0.8)
			})
		})

		Convey("When fitting an empty set", func() {
			_, err := scorer.Fit(ctx, shot.TrainingSet{Player: "Nobody"}, 10)

			Convey("Then it reports an empty training set", func() {
				So(errors.Is(err, search.ErrEmptyTrainingSet), ShouldBeTrue)
			})
		})
	})

	Convey("Given holdout splits", t, func() {
		scorer := scoring.NewForestScorer(scoring.WithTestFraction(0.2), scoring.WithSeed(42))

		Convey("Then the same seed gives the same disjoint partitions", func() {
			set := closeRange(11)
			trainA, testA, err := scorer.Split(set)
			So(err, ShouldBeNil)
			trainB, testB, _ := scorer.Split(set)
			So(trainA, ShouldResemble, trainB)
			So(testA, ShouldResemble, testB)
			So(testA.Len(), ShouldEqual, 3)
			So(trainA.Len()+testA.Len(), ShouldEqual, 11)
			So(trainA.Fingerprint(), ShouldNotEqual, testA.Fingerprint())
		})

		Convey("Then a single record cannot be split", func() {
			_, _, err := scorer.Split(closeRange(1))
			So(errors.Is(err, scoring.ErrEmptySplit), ShouldBeTrue)
		})
	})
}
