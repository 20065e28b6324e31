// Package clean turns raw tabular shot rows into typed shot records.
package clean

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/swish/internal/domain/shot"
)

// Essential column names.
const (
	ColPlayer   = "player"
	ColTeam     = "team"
	ColShotX    = "shotX"
	ColShotY    = "shotY"
	ColDistance = "distance"
	ColShotType = "shot_type"
	ColMade     = "made"
)

// EssentialColumns lists the columns every shot source must provide.
var EssentialColumns = []string{ColPlayer, ColTeam, ColShotX, ColShotY, ColDistance, ColShotType, ColMade} //nolint:gochecknoglobals // fixed schema

// Table is raw rows under a header. Rows shorter than the header are padded
// with missing values.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Report summarises one cleaning pass.
type Report struct {
	RowsIn      int `json:"rows_in"`
	RowsKept    int `json:"rows_kept"`
	RowsDropped int `json:"rows_dropped"`
}

// Cleaner normalises raw rows.
type Cleaner struct{}

// New returns a Cleaner.
func New() *Cleaner { return &Cleaner{} }

// Clean strips text, coerces numbers, normalises shot type and outcome, and
// drops any row missing an essential value.
func (c *Cleaner) Clean(t Table) ([]shot.Record, Report, error) {
	idx, err := columnIndex(t.Columns)
	if err != nil {
		return nil, Report{}, err
	}

	rep := Report{RowsIn: len(t.Rows)}
	out := make([]shot.Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		r, ok := parseRow(row, idx)
		if !ok {
			continue
		}
		out = append(out, r)
	}
	rep.RowsKept = len(out)
	rep.RowsDropped = rep.RowsIn - rep.RowsKept
	return out, rep, nil
}

func columnIndex(columns []string) (map[string]int, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[NormalizeText(c)] = i
	}
	var missing []string
	for _, c := range EssentialColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (shot.Record, bool) {
	get := func(col string) string {
		if i := idx[col]; i < len(row) {
			return NormalizeText(row[i])
		}
		return ""
	}

	var r shot.Record
	var ok bool
	if r.Player = get(ColPlayer); r.Player == "" {
		return r, false
	}
	if r.Team = get(ColTeam); r.Team == "" {
		return r, false
	}
	if r.ShotX, ok = ParseNumber(get(ColShotX)); !ok {
		return r, false
	}
	if r.ShotY, ok = ParseNumber(get(ColShotY)); !ok {
		return r, false
	}
	if r.Distance, ok = ParseNumber(get(ColDistance)); !ok {
		return r, false
	}
	if r.ShotType, ok = ParseShotType(get(ColShotType)); !ok {
		return r, false
	}
	if r.Made, ok = ParseMade(get(ColMade)); !ok {
		return r, false
	}
	return r, true
}

// NormalizeText trims whitespace and removes quote characters.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer(`'`, "", `"`, "").Replace(s)
}

// ParseNumber parses a float. Blank, unparsable and NaN values are missing.
func ParseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseShotType maps any value containing "3" to a three and otherwise any
// value containing "2" to a two, e.g. "3PT Field Goal" or "2".
func ParseShotType(s string) (int, bool) {
	switch {
	case strings.Contains(s, "3"):
		return shot.ThreePoint, true
	case strings.Contains(s, "2"):
		return shot.TwoPoint, true
	default:
		return 0, false
	}
}

// ParseMade accepts 0/1 (also as floats), true/false and made/missed.
func ParseMade(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "1.0", "true", "t", "made", "yes":
		return true, true
	case "0", "0.0", "false", "f", "missed", "no":
		return false, true
	default:
		return false, false
	}
}
