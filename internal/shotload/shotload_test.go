package shotload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/swish/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
	os.Exit(m.Run())
}

// fakeServer trains instantly, scoring each player by their make rate.
type fakeServer struct {
	mu     sync.Mutex
	shots  map[string][]Shot
	jobs   map[string]JobStatus
	models map[string]float64
	polls  int
}

func newFakeServer() *fakeServer {
	return &fakeServer{shots: map[string][]Shot{}, jobs: map[string]JobStatus{}, models: map[string]float64{}}
}

func (f *fakeServer) board() []Entry {
	out := make([]Entry, 0, len(f.models))
	for p, acc := range f.models {
		out = append(out, Entry{Player: p, Accuracy: acc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy > out[j].Accuracy
		}
		return out[i].Player < out[j].Player
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/shots", func(w http.ResponseWriter, r *http.Request) {
		var batch []Shot
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			reply(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		f.mu.Lock()
		for _, s := range batch {
			f.shots[s.Player] = append(f.shots[s.Player], s)
		}
		f.mu.Unlock()
		reply(w, http.StatusAccepted, IngestAck{Status: "accepted", RowsIn: len(batch), RowsKept: len(batch)})
	})
	mux.HandleFunc("/train", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Player string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		defer f.mu.Unlock()
		shots, ok := f.shots[req.Player]
		if !ok {
			reply(w, http.StatusNotFound, map[string]string{"error": "unknown player"})
			return
		}
		made := 0
		for _, s := range shots {
			if s.Made {
				made++
			}
		}
		id := "job-" + req.Player
		f.jobs[id] = JobStatus{JobID: id, Player: req.Player, State: "queued"}
		f.models[req.Player] = float64(made) / float64(len(shots))
		reply(w, http.StatusAccepted, TrainAck{JobID: id, Status: "queued"})
	})
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.polls++
		id := strings.TrimPrefix(r.URL.Path, "/jobs/")
		st := f.jobs[id]
		reply(w, http.StatusOK, st)
		st.State = "done"
		f.jobs[id] = st
	})
	mux.HandleFunc("/rank/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		player := strings.TrimPrefix(r.URL.Path, "/rank/")
		for _, e := range f.board() {
			if e.Player == player {
				reply(w, http.StatusOK, e)
				return
			}
		}
		reply(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var limit int
		_, _ = fmt.Sscan(r.URL.Query().Get("limit"), &limit)
		b := f.board()
		reply(w, http.StatusOK, b[:min(limit, len(b))])
	})
	return mux
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded config", t, func() {
		cfg := &Config{Players: 4, ShotsPerPlayer: 50, Seed: 7}

		Convey("When generating twice", func() {
			a := Generate(cfg)
			b := Generate(cfg)

			Convey("Then the output is reproducible and well formed", func() {
				So(a, ShouldHaveLength, 200)
				So(a, ShouldResemble, b)
				So(Players(a), ShouldHaveLength, 4)
				for _, s := range a {
					So(s.Distance, ShouldBeBetweenOrEqual, 0, maxDistance)
					if s.Distance >= threePointLine {
						So(s.ShotType, ShouldEqual, 3)
					} else {
						So(s.ShotType, ShouldEqual, 2)
					}
				}
			})
		})

		Convey("When the seed changes", func() {
			other := Generate(&Config{Players: 4, ShotsPerPlayer: 50, Seed: 8})
			Convey("Then the players differ", func() {
				So(Players(other), ShouldNotResemble, Players(Generate(cfg)))
			})
		})
	})
}

func TestVerifyLeaderboard(t *testing.T) {
	Convey("Given a consistent leaderboard", t, func() {
		board := []Entry{
			{Rank: 1, Player: "A", Accuracy: 0.7},
			{Rank: 2, Player: "B", Accuracy: 0.6},
			{Rank: 3, Player: "C", Accuracy: 0.6},
		}
		ranks := []Entry{board[2], board[0], {Rank: 4, Player: "D", Accuracy: 0.5}}

		So(VerifyLeaderboard(board, ranks), ShouldBeNil)

		Convey("Then a tie out of name order is rejected", func() {
			board[1].Player, board[2].Player = "C", "B"
			So(VerifyLeaderboard(board, nil), ShouldNotBeNil)
		})

		Convey("Then a rank gap is rejected", func() {
			board[2].Rank = 4
			So(VerifyLeaderboard(board, nil), ShouldNotBeNil)
		})

		Convey("Then a disagreeing rank row is rejected", func() {
			So(VerifyLeaderboard(board, []Entry{{Rank: 1, Player: "B", Accuracy: 0.6}}), ShouldNotBeNil)
		})

		Convey("Then an empty board with trained players is rejected", func() {
			So(VerifyLeaderboard(nil, ranks), ShouldNotBeNil)
			So(VerifyLeaderboard(nil, nil), ShouldBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		fake := newFakeServer()
		ts := httptest.NewServer(fake.handler())
		defer ts.Close()
		out := filepath.Join(t.TempDir(), "data", "shots.csv")

		Convey("When a load run completes", func() {
			stats, err := Run(context.Background(), &Config{
				BaseURL:        ts.URL,
				Players:        5,
				ShotsPerPlayer: 40,
				BatchSize:      30,
				Workers:        3,
				PollInterval:   time.Millisecond,
				TopN:           3,
				OutputFile:     out,
				Seed:           3,
			})

			Convey("Then every player is trained and the board verified", func() {
				So(err, ShouldBeNil)
				So(stats.ShotsGenerated, ShouldEqual, 200)
				So(stats.ShotsKept, ShouldEqual, 200)
				So(stats.JobsRequested, ShouldEqual, 5)
				So(stats.JobsDone, ShouldEqual, 5)
				So(stats.RanksRetrieved, ShouldEqual, 5)
				So(stats.LeaderboardEntries, ShouldEqual, 3)
				So(fake.polls, ShouldBeGreaterThanOrEqualTo, 10)

				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				So(lines, ShouldHaveLength, 201)
				So(lines[0], ShouldEqual, "player,team,shotX,shotY,distance,shot_type,made")
			})
		})

		Convey("When the server is unreachable", func() {
			ts.Close()
			_, err := Run(context.Background(), &Config{BaseURL: ts.URL, Players: 1, ShotsPerPlayer: 1, Timeout: time.Second})
			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health")
			})
		})
	})
}

func TestStatusError(t *testing.T) {
	Convey("Given a server answering 429", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"backpressure"}`, http.StatusTooManyRequests)
		}))
		defer ts.Close()

		_, err := NewClient(&Config{BaseURL: ts.URL, Timeout: time.Second}).Train(context.Background(), "A")

		Convey("Then the status is reported", func() {
			var se *StatusError
			So(err, ShouldNotBeNil)
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Code, ShouldEqual, http.StatusTooManyRequests)
		})
	})
}
