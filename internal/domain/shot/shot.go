// Package shot defines cleaned shot records, per-player training sets and
// their numeric feature encoding.
package shot

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// Shot value classes.
const (
	TwoPoint   = 2
	ThreePoint = 3
)

// NumFeatures is the width of an encoded feature row: is2, is3, shotX, shotY, distance.
const NumFeatures = 5

// Record is one attempted shot after cleaning.
type Record struct {
	Player   string  `json:"player"`
	Team     string  `json:"team"`
	ShotX    float64 `json:"shot_x"`
	ShotY    float64 `json:"shot_y"`
	Distance float64 `json:"distance"`
	ShotType int     `json:"shot_type"`
	Made     bool    `json:"made"`
}

// TrainingSet holds the records of exactly one player in input order.
type TrainingSet struct {
	Player  string
	Records []Record
}

// FilterPlayer returns the records belonging to player, copied so the caller's
// slice can change afterwards.
func FilterPlayer(records []Record, player string) TrainingSet {
	set := TrainingSet{Player: player}
	for _, r := range records {
		if r.Player == player {
			set.Records = append(set.Records, r)
		}
	}
	return set
}

// Len returns the number of records.
func (s TrainingSet) Len() int { return len(s.Records) }

// Empty reports whether the set has no records.
func (s TrainingSet) Empty() bool { return len(s.Records) == 0 }

// Subset returns a set holding the records at idx, in idx order.
func (s TrainingSet) Subset(idx []int) TrainingSet {
	out := TrainingSet{Player: s.Player, Records: make([]Record, len(idx))}
	for i, j := range idx {
		out.Records[i] = s.Records[j]
	}
	return out
}

// Matrix encodes the set as an n x NumFeatures matrix.
func (s TrainingSet) Matrix() *mat.Dense {
	if s.Empty() {
		return nil
	}
	data := make([]float64, 0, len(s.Records)*NumFeatures)
	for _, r := range s.Records {
		data = append(data, Encode(r.ShotX, r.ShotY, r.Distance, r.ShotType)...)
	}
	return mat.NewDense(len(s.Records), NumFeatures, data)
}

// Labels returns 1 for made shots and 0 for misses.
func (s TrainingSet) Labels() []int {
	labels := make([]int, len(s.Records))
	for i, r := range s.Records {
		if r.Made {
			labels[i] = 1
		}
	}
	return labels
}

// MadeRate returns the fraction of made shots, or 0 for an empty set.
func (s TrainingSet) MadeRate() float64 {
	if s.Empty() {
		return 0
	}
	var made int
	for _, r := range s.Records {
		if r.Made {
			made++
		}
	}
	return float64(made) / float64(len(s.Records))
}

// Fingerprint hashes the set contents. Equal sets hash equally regardless of
// which slice backs them.
func (s TrainingSet) Fingerprint() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(s.Player)
	var buf [8]byte
	for _, r := range s.Records {
		for _, v := range [...]float64{r.ShotX, r.ShotY, r.Distance} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
		flags := byte(r.ShotType)
		if r.Made {
			flags |= 0x80
		}
		_, _ = h.Write([]byte{flags})
	}
	return h.Sum64()
}

// Encode builds a feature row. The shot type is one-hot encoded first; values
// other than 2 or 3 encode as all zeros.
func Encode(shotX, shotY, distance float64, shotType int) []float64 {
	row := make([]float64, NumFeatures)
	switch shotType {
	case TwoPoint:
		row[0] = 1
	case ThreePoint:
		row[1] = 1
	}
	row[2] = shotX
	row[3] = shotY
	row[4] = distance
	return row
}

// Players returns the distinct players in records with their shot counts.
func Players(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Player]++
	}
	return counts
}
