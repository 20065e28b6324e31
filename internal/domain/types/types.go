// Package types contains request and response shapes shared by the service
// and its HTTP surface.
package types

import (
	"errors"
	"strings"

	"github.com/okian/swish/internal/domain/shot"
)

// TrainRequest asks for a model to be trained for one player.
type TrainRequest struct {
	Player string `json:"player"`
}

// Validate checks the request fields.
func (r TrainRequest) Validate() error {
	if strings.TrimSpace(r.Player) == "" {
		return errors.New("missing player")
	}
	return nil
}

// TrainResponse acknowledges a training request.
type TrainResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// PredictRequest describes a hypothetical shot.
type PredictRequest struct {
	Player   string  `json:"player"`
	ShotX    float64 `json:"shot_x"`
	ShotY    float64 `json:"shot_y"`
	Distance float64 `json:"distance"`
	ShotType int     `json:"shot_type"`
}

// Validate checks the request fields.
func (r PredictRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Player) == "":
		return errors.New("missing player")
	case r.ShotType != shot.TwoPoint && r.ShotType != shot.ThreePoint:
		return errors.New("shot_type must be 2 or 3")
	case r.Distance < 0:
		return errors.New("distance must not be negative")
	}
	return nil
}

// PredictResponse is the model's answer for a PredictRequest.
type PredictResponse struct {
	Player      string  `json:"player"`
	Probability float64 `json:"probability"`
	Made        bool    `json:"made"`
	Capacity    int     `json:"capacity"`
	Accuracy    float64 `json:"accuracy"`
}

// PlayerSummary lists a player known to the dataset.
type PlayerSummary struct {
	Player  string `json:"player"`
	Shots   int    `json:"shots"`
	Trained bool   `json:"trained"`
}

// Stats is the GET /stats snapshot. Queue figures are zero until the
// service starts.
type Stats struct {
	Started     bool           `json:"started"`
	Workers     int            `json:"workers"`
	QueueSize   int            `json:"queue_size"`
	QueueLength int            `json:"queue_length"`
	InFlight    int            `json:"in_flight"`
	DedupeSize  int            `json:"dedupe_size"`
	Shots       int            `json:"shots"`
	Players     int            `json:"players"`
	Models      int            `json:"models"`
	Jobs        map[string]int `json:"jobs"`
}

// IngestResponse reports the outcome of a shot upload.
type IngestResponse struct {
	Status      string `json:"status"`
	RowsIn      int    `json:"rows_in"`
	RowsKept    int    `json:"rows_kept"`
	RowsDropped int    `json:"rows_dropped"`
}
