package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/swish/internal/adapters/ingest"
	"github.com/okian/swish/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWiring(t *testing.T) {
	ctx := context.Background()

	Convey("Given default configuration", t, func() {
		cfg := config.New(ctx)

		Convey("When the trainer is built", func() {
			trainer, store, err := NewTrainer(ctx, cfg)
			So(err, ShouldBeNil)
			So(trainer, ShouldNotBeNil)
			So(store.Close(), ShouldBeNil)
		})

		Convey("When the cache address is unreachable", func() {
			cfg.CacheAddr = "redis://localhost:6379/notanumber"
			_, _, err := NewTrainer(ctx, cfg)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a shot file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "shots.csv")
		content := "player,team,shotX,shotY,distance,shot_type,made,game\n" +
			"Paul Pierce,BOS,1.5,20,22,3PT Field Goal,1,g1\n" +
			"Paul Pierce,BOS,0,3,3,2PT Field Goal,0,g1\n" +
			"Paul Pierce,,0,3,3,2,0,g1\n"
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("When it is read", func() {
			records, report, err := ReadShots(ctx, path)
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 2)
			So(report.RowsDropped, ShouldEqual, 1)
		})

		Convey("When a service preloads the directory", func() {
			s := New()
			report, err := s.Preload(ctx, dir)
			So(err, ShouldBeNil)
			So(report.RowsKept, ShouldEqual, 2)
			So(s.Players(ctx), ShouldHaveLength, 1)
		})

		Convey("When the path does not exist", func() {
			_, _, err := ReadShots(ctx, filepath.Join(dir, "missing"))
			So(errors.Is(err, ingest.ErrDataDirMissing), ShouldBeTrue)
		})
	})
}
