package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/swish/internal/domain/training"
	. "github.com/smartystreets/goconvey/convey"
)

type constPredictor float64

func (c constPredictor) PredictProbability([]float64) (float64, error) { return float64(c), nil }

func model(player string, acc float64) *training.Model {
	m := training.NewModel(player, constPredictor(0.5))
	m.Accuracy = acc
	m.Capacity = 100
	return m
}

func players(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Player
	}
	return out
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	Convey("Given a registry with several models", t, func() {
		r := NewRegistry(WithSeed(1))
		So(r.Put(ctx, model("Carmelo Anthony", 0.55)), ShouldBeNil)
		So(r.Put(ctx, model("Allen Iverson", 0.61)), ShouldBeNil)
		So(r.Put(ctx, model("Kobe Bryant", 0.61)), ShouldBeNil)
		So(r.Put(ctx, model("Dirk Nowitzki", 0.48)), ShouldBeNil)

		Convey("Then TopN orders by accuracy then player", func() {
			top, err := r.TopN(ctx, 10)
			So(err, ShouldBeNil)
			So(players(top), ShouldResemble, []string{"Allen Iverson", "Kobe Bryant", "Carmelo Anthony", "Dirk Nowitzki"})
			So(top[0].Rank, ShouldEqual, 1)
			So(top[3].Rank, ShouldEqual, 4)
			So(top[2].Capacity, ShouldEqual, 100)
		})

		Convey("Then TopN truncates to the limit", func() {
			top, err := r.TopN(ctx, 2)
			So(err, ShouldBeNil)
			So(players(top), ShouldResemble, []string{"Allen Iverson", "Kobe Bryant"})
		})

		Convey("Then Rank matches the TopN position", func() {
			e, err := r.Rank(ctx, "Carmelo Anthony")
			So(err, ShouldBeNil)
			So(e.Rank, ShouldEqual, 3)
			So(e.Accuracy, ShouldEqual, 0.55)
		})

		Convey("When a player is retrained", func() {
			So(r.Put(ctx, model("Dirk Nowitzki", 0.70)), ShouldBeNil)

			Convey("Then the newer model replaces the old one", func() {
				So(r.Count(ctx), ShouldEqual, 4)
				m, err := r.Get(ctx, "Dirk Nowitzki")
				So(err, ShouldBeNil)
				So(m.Accuracy, ShouldEqual, 0.70)
				e, _ := r.Rank(ctx, "Dirk Nowitzki")
				So(e.Rank, ShouldEqual, 1)
				top, _ := r.TopN(ctx, 10)
				So(top, ShouldHaveLength, 4)
			})
		})

		Convey("Then unknown players and bad limits are rejected", func() {
			_, err := r.Get(ctx, "Nobody")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = r.Rank(ctx, "Nobody")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = r.TopN(ctx, 0)
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("Then untrained models are refused", func() {
			So(errors.Is(r.Put(ctx, &training.Model{Player: "X"}), ErrInvalidModel), ShouldBeTrue)
			So(errors.Is(r.Put(ctx, nil), ErrInvalidModel), ShouldBeTrue)
		})
	})

	Convey("Given concurrent writers", t, func() {
		r := NewRegistry()
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.Put(ctx, model(fmt.Sprintf("p%02d", i%10), float64(i)/100))
			}()
		}
		wg.Wait()

		Convey("Then each player appears once in the leaderboard", func() {
			So(r.Count(ctx), ShouldEqual, 10)
			top, err := r.TopN(ctx, 100)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 10)
			for i := 1; i < len(top); i++ {
				So(top[i-1].Accuracy, ShouldBeGreaterThanOrEqualTo, top[i].Accuracy)
			}
		})
	})
}
