package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given a data directory with two shot files", t, func() {
		dir := t.TempDir()
		header := "player,team,shotX,shotY,distance,shot_type,made,game_id\n"
		convey.So(os.WriteFile(filepath.Join(dir, "a.csv"), []byte(header+"A,X,1,2,3,2PT,1,g1\n"), 0o600), convey.ShouldBeNil)
		convey.So(os.MkdirAll(filepath.Join(dir, "2001"), 0o750), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(dir, "2001", "b.csv"), []byte(header+"B,Y,4,5,24,3PT,0,g2\n"), 0o600), convey.ShouldBeNil)
		out := filepath.Join(dir, "all.csv")
		var stdout bytes.Buffer

		convey.Convey("When consolidating", func() {
			err := run(context.Background(), []string{"-data", dir, "-out", out, "-log-level", "error"}, &stdout)

			convey.Convey("Then one file with the essential columns is written", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "wrote 2 rows from 2 files")
				data, err := os.ReadFile(out)
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				convey.So(lines, convey.ShouldHaveLength, 3)
				convey.So(lines[0], convey.ShouldEqual, "player,team,shotX,shotY,distance,shot_type,made")
			})

			convey.Convey("Then a second run is a no-op", func() {
				stdout.Reset()
				err := run(context.Background(), []string{"-data", dir, "-out", out, "-log-level", "error"}, &stdout)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "nothing to do")
			})
		})

		convey.Convey("When the directory does not exist", func() {
			err := run(context.Background(), []string{"-data", filepath.Join(dir, "nope"), "-log-level", "error"}, &stdout)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When the log level is invalid", func() {
			err := run(context.Background(), []string{"-data", dir, "-log-level", "loud"}, &stdout)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
