// Package shotload drives a running server with synthetic shot data and
// checks that the leaderboard it builds is consistent.
package shotload

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Players        int           // Number of synthetic players
	ShotsPerPlayer int           // Shots generated per player
	BatchSize      int           // Shots per POST /shots request
	Workers        int           // Concurrent requests in flight
	Timeout        time.Duration // HTTP request timeout
	PollInterval   time.Duration // Delay between GET /jobs polls
	TopN           int           // Leaderboard rows to fetch
	OutputFile     string        // CSV file for generated shots; empty skips
	Seed           int64         // Generator seed
	Verbose        bool
}

// Shot is one generated attempt in the server's upload schema.
type Shot struct {
	Player   string  `json:"player"`
	Team     string  `json:"team"`
	ShotX    float64 `json:"shotX"`
	ShotY    float64 `json:"shotY"`
	Distance float64 `json:"distance"`
	ShotType int     `json:"shot_type"`
	Made     bool    `json:"made"`
}

// Entry represents a leaderboard row.
type Entry struct {
	Rank     int     `json:"rank"`
	Player   string  `json:"player"`
	Accuracy float64 `json:"accuracy"`
	Capacity int     `json:"capacity"`
	Samples  int     `json:"samples"`
}

// IngestAck is the response to POST /shots.
type IngestAck struct {
	Status      string `json:"status"`
	RowsIn      int    `json:"rows_in"`
	RowsKept    int    `json:"rows_kept"`
	RowsDropped int    `json:"rows_dropped"`
}

// TrainAck is the response to POST /train.
type TrainAck struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// JobStatus is the response to GET /jobs/{id}.
type JobStatus struct {
	JobID    string  `json:"job_id"`
	Player   string  `json:"player"`
	State    string  `json:"state"`
	Error    string  `json:"error"`
	Capacity int     `json:"capacity"`
	Accuracy float64 `json:"accuracy"`
}

// Terminal reports whether the job has stopped changing.
func (s JobStatus) Terminal() bool { return s.State == "done" || s.State == "failed" }

// Stats holds run statistics.
type Stats struct {
	ShotsGenerated     int
	ShotsKept          int
	ShotsDropped       int
	BatchesFailed      int
	JobsRequested      int
	JobsDone           int
	JobsFailed         int
	RanksRetrieved     int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
