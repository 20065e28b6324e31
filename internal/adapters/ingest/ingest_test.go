package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/swish/internal/domain/clean"
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

const gameCSV = "game_id,player,team,shotX,shotY,made,distance,shot_type\n" +
	"g1,Reggie Miller,IND,22.1,7,1,23.9,3PT Field Goal\n" +
	"g1,Mark Jackson,IND,1,2,0,3,2PT Field Goal\n"

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestReaders(t *testing.T) {
	Convey("Given a CSV export", t, func() {
		tbl, err := ReadCSV(strings.NewReader("\ufeff" + gameCSV))

		Convey("Then the header and rows are read", func() {
			So(err, ShouldBeNil)
			So(tbl.Columns[0], ShouldEqual, "game_id")
			So(tbl.Rows, ShouldHaveLength, 2)
		})

		Convey("Then projection reorders onto the essential columns", func() {
			p, err := Project(tbl)
			So(err, ShouldBeNil)
			So(p.Columns, ShouldResemble, clean.EssentialColumns)
			So(p.Rows[0], ShouldResemble, []string{"Reggie Miller", "IND", "22.1", "7", "23.9", "3PT Field Goal", "1"})
		})
	})

	Convey("Given a CSV without essential columns", t, func() {
		tbl, err := ReadCSV(strings.NewReader("player,shotX\nA,1\n"))
		So(err, ShouldBeNil)

		Convey("Then projection fails", func() {
			_, err := Project(tbl)
			So(errors.Is(err, clean.ErrMissingColumns), ShouldBeTrue)
		})
	})

	Convey("Given JSON lines", t, func() {
		input := `{"player":"Reggie Miller","team":"IND","shot_x":22.1,"shot_y":7,"distance":23.9,"shot_type":3,"made":true}

{"player":"Mark Jackson","team":"IND","shotX":1,"shotY":2,"distance":3,"shot_type":"2PT","made":0,"extra":null}
`
		tbl, err := ReadJSONLines(strings.NewReader(input))

		Convey("Then each object becomes a row with aliases resolved", func() {
			So(err, ShouldBeNil)
			So(tbl.Rows, ShouldHaveLength, 2)
			So(tbl.Rows[0], ShouldResemble, []string{"Reggie Miller", "IND", "22.1", "7", "23.9", "3", "true"})
			records, rep, err := clean.New().Clean(tbl)
			So(err, ShouldBeNil)
			So(rep.RowsKept, ShouldEqual, 2)
			So(records[1].ShotType, ShouldEqual, 2)
		})
	})

	Convey("Given a malformed JSON line", t, func() {
		_, err := ReadJSONLines(strings.NewReader("{\"player\":\n"))
		So(err, ShouldNotBeNil)
	})

	Convey("Given a JSON batch body", t, func() {
		Convey("Then arrays and shots envelopes are both accepted", func() {
			a, err := ParseJSONRows([]byte(`[{"player":"A","made":1}]`))
			So(err, ShouldBeNil)
			So(a.Rows, ShouldHaveLength, 1)
			b, err := ParseJSONRows([]byte(`{"shots":[{"player":"A"},{"player":"B"}]}`))
			So(err, ShouldBeNil)
			So(b.Rows, ShouldHaveLength, 2)
			So(b.Rows[1][0], ShouldEqual, "B")
		})

		Convey("Then other shapes are rejected", func() {
			_, err := ParseJSONRows([]byte(`{"player":"A"}`))
			So(err, ShouldNotBeNil)
			_, err = ParseJSONRows([]byte(`not json`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLoader(t *testing.T) {
	ctx := context.Background()

	Convey("Given a missing data directory", t, func() {
		l := NewLoader(filepath.Join(t.TempDir(), "nope"))

		Convey("Then every operation reports it", func() {
			So(errors.Is(l.Check(), ErrDataDirMissing), ShouldBeTrue)
			_, err := l.List(ctx)
			So(errors.Is(err, ErrDataDirMissing), ShouldBeTrue)
			_, err = l.Consolidate(ctx, filepath.Join(t.TempDir(), "all.csv"))
			So(errors.Is(err, ErrDataDirMissing), ShouldBeTrue)
		})
	})

	Convey("Given a data directory with mixed files", t, func() {
		dir := t.TempDir()
		write(t, filepath.Join(dir, "a.csv"), gameCSV)
		write(t, filepath.Join(dir, "b.jsonl"), `{"player":"P","team":"T","shotX":1,"shotY":1,"distance":1,"shot_type":2,"made":1}`+"\n")
		write(t, filepath.Join(dir, "notes.txt"), "ignore me")
		l := NewLoader(dir)

		Convey("Then List finds only shot files", func() {
			files, err := l.List(ctx)
			So(err, ShouldBeNil)
			So(files, ShouldResemble, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.jsonl")})
		})

		Convey("Then Load merges the directory", func() {
			tbl, err := l.Load(ctx, dir)
			So(err, ShouldBeNil)
			So(tbl.Rows, ShouldHaveLength, 3)
		})

		Convey("Then Load reads a single file", func() {
			tbl, err := l.Load(ctx, filepath.Join(dir, "a.csv"))
			So(err, ShouldBeNil)
			So(tbl.Rows, ShouldHaveLength, 2)
		})

		Convey("Then unsupported files are rejected", func() {
			_, err := l.ReadFile(ctx, filepath.Join(dir, "notes.txt"))
			So(errors.Is(err, ErrUnsupportedFormat), ShouldBeTrue)
		})
	})
}

func TestConsolidate(t *testing.T) {
	ctx := context.Background()

	Convey("Given nested per-game CSV files", t, func() {
		dir := t.TempDir()
		for i := range 5 {
			write(t, filepath.Join(dir, fmt.Sprintf("season%d", i%2), fmt.Sprintf("game%d.csv", i)), gameCSV)
		}
		write(t, filepath.Join(dir, "broken.csv"), "player,shotX\nA,1\n")
		out := filepath.Join(dir, "merged", "shots.csv")
		l := NewLoader(dir, WithProgressEvery(2))

		Convey("When consolidating", func() {
			sum, err := l.Consolidate(ctx, out)

			Convey("Then readable files are merged and broken ones skipped", func() {
				So(err, ShouldBeNil)
				So(sum, ShouldResemble, Summary{Files: 5, Skipped: 1, Rows: 10})

				tbl, err := l.ReadFile(ctx, out)
				So(err, ShouldBeNil)
				So(tbl.Columns, ShouldResemble, clean.EssentialColumns)
				So(tbl.Rows, ShouldHaveLength, 10)
			})

			Convey("Then a second run leaves the output alone", func() {
				_, err := l.Consolidate(ctx, out)
				So(errors.Is(err, ErrAlreadyConsolidated), ShouldBeTrue)
			})
		})
	})
}
